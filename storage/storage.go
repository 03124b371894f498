// Package storage defines the metrics snapshot store contract.
package storage

import (
	"context"
	"errors"

	"github.com/and161185/gitlab-exporter/model"
)

var (
	ErrMetricNotFound = errors.New("metric not found")
	ErrUnknownMetric  = errors.New("unknown metric family")
	ErrLabelMismatch  = errors.New("label values do not match family")
	ErrInvalidMetric  = errors.New("invalid metric")
)

// Storage is written by the aggregator and read by the exposition endpoint.
type Storage interface {
	Save(ctx context.Context, metric *model.Metric) error
	Get(ctx context.Context, name string, labels ...string) (*model.Metric, error)
	GetAll(ctx context.Context) ([]model.Metric, error)
}
