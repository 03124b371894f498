// Package model contains core data types for the project.
package model

// MetricType defines the type of a metric: gauge, counter or summary.
type MetricType string

const (
	Gauge   MetricType = "gauge"   // Gauge holds the latest value, overwritten on save.
	Counter MetricType = "counter" // Counter accumulates deltas.
	Summary MetricType = "summary" // Summary accumulates an observation count and sum.
)

// Family describes a metric name: its help text, type and label names.
// The label names are fixed, so the series of a family are bounded by the
// distinct label values the aggregator feeds in.
type Family struct {
	Name   string
	Help   string
	Type   MetricType
	Labels []string
}

// Metric represents a single time series of a family.
type Metric struct {
	Name   string     `json:"name"`            // Family name.
	Type   MetricType `json:"type"`            // Metric type.
	Labels []string   `json:"labels"`          // Label values, ordered as in the family.
	Delta  *int64     `json:"delta,omitempty"` // Value for counter metrics.
	Value  *float64   `json:"value,omitempty"` // Value for gauge metrics.
	Count  *uint64    `json:"count,omitempty"` // Observation count for summary metrics.
	Sum    *float64   `json:"sum,omitempty"`   // Observation sum for summary metrics.
}
