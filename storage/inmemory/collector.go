package inmemory

import (
	"github.com/and161185/gitlab-exporter/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the store to a prometheus.Registry.
// Families must be defined before the collector is registered.
func (store *MemStorage) Collector() prometheus.Collector {
	return &collector{store: store}
}

type collector struct {
	store *MemStorage
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	for _, d := range c.store.descs {
		ch <- d
	}
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	for _, m := range c.store.metrics {
		desc := c.store.descs[m.Name]
		pm, err := constMetric(desc, m)
		if err != nil {
			ch <- prometheus.NewInvalidMetric(desc, err)
			continue
		}
		ch <- pm
	}
}

func constMetric(desc *prometheus.Desc, m *model.Metric) (prometheus.Metric, error) {
	switch m.Type {
	case model.Gauge:
		return prometheus.NewConstMetric(desc, prometheus.GaugeValue, *m.Value, m.Labels...)
	case model.Counter:
		return prometheus.NewConstMetric(desc, prometheus.CounterValue, float64(*m.Delta), m.Labels...)
	default:
		return prometheus.NewConstSummary(desc, *m.Count, *m.Sum, nil, m.Labels...)
	}
}
