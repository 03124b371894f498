package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/and161185/gitlab-exporter/model"
	"github.com/and161185/gitlab-exporter/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// labelSep cannot appear in a valid UTF-8 label value.
const labelSep = "\xff"

// MemStorage is the process-lifetime metrics snapshot.
// Gauges are overwritten on save, counters and summaries accumulate. Every
// save happens under one lock, so a reader never sees a summary whose count
// and sum belong to different observations.
type MemStorage struct {
	mu       sync.RWMutex
	families map[string]model.Family
	descs    map[string]*prometheus.Desc
	metrics  map[string]*model.Metric
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		families: make(map[string]model.Family),
		descs:    make(map[string]*prometheus.Desc),
		metrics:  make(map[string]*model.Metric),
	}
}

// Define registers metric families. Redefining a family with a different
// type or label set is an error; an identical redefinition is a no-op.
func (store *MemStorage) Define(families ...model.Family) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, f := range families {
		if f.Name == "" {
			return fmt.Errorf("%w: empty family name", storage.ErrInvalidMetric)
		}
		if existing, ok := store.families[f.Name]; ok {
			if existing.Type != f.Type || !slices.Equal(existing.Labels, f.Labels) {
				return fmt.Errorf("%w: %s redefined", storage.ErrInvalidMetric, f.Name)
			}
			continue
		}
		switch f.Type {
		case model.Gauge, model.Counter, model.Summary:
		default:
			return fmt.Errorf("%w: %s has type %q", storage.ErrInvalidMetric, f.Name, f.Type)
		}
		labels := append([]string(nil), f.Labels...)
		f.Labels = labels
		store.families[f.Name] = f
		store.descs[f.Name] = prometheus.NewDesc(f.Name, f.Help, labels, nil)
	}
	return nil
}

// Families returns the defined families sorted by name.
func (store *MemStorage) Families() []model.Family {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]model.Family, 0, len(store.families))
	for _, f := range store.families {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (store *MemStorage) Save(ctx context.Context, m *model.Metric) error {
	if m == nil {
		return fmt.Errorf("%w: nil metric", storage.ErrInvalidMetric)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	family, ok := store.families[m.Name]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrUnknownMetric, m.Name)
	}
	// an empty type takes the family's; m itself is left as given
	typ := m.Type
	if typ == "" {
		typ = family.Type
	}
	if typ != family.Type {
		return fmt.Errorf("%w: %s is a %s, got %s", storage.ErrInvalidMetric, m.Name, family.Type, typ)
	}
	if len(m.Labels) != len(family.Labels) {
		return fmt.Errorf("%w: %s wants %d labels, got %d",
			storage.ErrLabelMismatch, m.Name, len(family.Labels), len(m.Labels))
	}
	if err := checkValue(typ, m); err != nil {
		return err
	}

	key := seriesKey(m.Name, m.Labels)
	existing, ok := store.metrics[key]
	if !ok {
		c := clone(m)
		c.Type = typ
		store.metrics[key] = c
		return nil
	}

	switch typ {
	case model.Gauge:
		v := *m.Value
		existing.Value = &v
	case model.Counter:
		v := *existing.Delta + *m.Delta
		existing.Delta = &v
	case model.Summary:
		c := *existing.Count + *m.Count
		s := *existing.Sum + *m.Sum
		existing.Count = &c
		existing.Sum = &s
	}
	return nil
}

func (store *MemStorage) SaveBatch(ctx context.Context, metrics []model.Metric) error {
	for i := range metrics {
		if err := store.Save(ctx, &metrics[i]); err != nil {
			return err
		}
	}
	return nil
}

func (store *MemStorage) Get(ctx context.Context, name string, labels ...string) (*model.Metric, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	val, ok := store.metrics[seriesKey(name, labels)]
	if !ok {
		return nil, fmt.Errorf("%w: %s%v", storage.ErrMetricNotFound, name, labels)
	}
	return clone(val), nil
}

// GetAll returns copies of every series, sorted by name and label values.
func (store *MemStorage) GetAll(ctx context.Context) ([]model.Metric, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]model.Metric, 0, len(store.metrics))
	for _, v := range store.metrics {
		result = append(result, *clone(v))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return strings.Join(result[i].Labels, labelSep) < strings.Join(result[j].Labels, labelSep)
	})
	return result, nil
}

func checkValue(typ model.MetricType, m *model.Metric) error {
	switch typ {
	case model.Gauge:
		if m.Value == nil {
			return fmt.Errorf("%w: value required for gauge %s", storage.ErrInvalidMetric, m.Name)
		}
	case model.Counter:
		if m.Delta == nil || *m.Delta < 0 {
			return fmt.Errorf("%w: non-negative delta required for counter %s", storage.ErrInvalidMetric, m.Name)
		}
	case model.Summary:
		if m.Count == nil || m.Sum == nil {
			return fmt.Errorf("%w: count and sum required for summary %s", storage.ErrInvalidMetric, m.Name)
		}
	}
	return nil
}

func seriesKey(name string, labels []string) string {
	return name + labelSep + strings.Join(labels, labelSep)
}

func clone(m *model.Metric) *model.Metric {
	c := &model.Metric{
		Name:   m.Name,
		Type:   m.Type,
		Labels: append([]string(nil), m.Labels...),
	}
	if m.Delta != nil {
		v := *m.Delta
		c.Delta = &v
	}
	if m.Value != nil {
		v := *m.Value
		c.Value = &v
	}
	if m.Count != nil {
		v := *m.Count
		c.Count = &v
	}
	if m.Sum != nil {
		v := *m.Sum
		c.Sum = &v
	}
	return c
}
