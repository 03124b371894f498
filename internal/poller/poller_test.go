package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/and161185/gitlab-exporter/internal/aggregator"
	"github.com/and161185/gitlab-exporter/internal/walker"
	"github.com/and161185/gitlab-exporter/model"
	"github.com/and161185/gitlab-exporter/storage"
	"github.com/and161185/gitlab-exporter/storage/inmemory"
)

type fakeProvider struct {
	mu          sync.Mutex
	projects    []model.Project
	projectsErr error
	jobsErr     error
	delay       time.Duration
	calls       []time.Time
}

func (f *fakeProvider) ListProjects(context.Context) ([]model.Project, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.projects, f.projectsErr
}

func (f *fakeProvider) ListPipelines(context.Context, int64) ([]model.Pipeline, error) {
	return nil, nil
}

func (f *fakeProvider) ListJobs(context.Context, int64) ([]model.Job, error) {
	return nil, f.jobsErr
}

func (f *fakeProvider) starts() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

func newPoller(t *testing.T, p walker.Provider, interval time.Duration, logger *zap.SugaredLogger) (*Poller, *inmemory.MemStorage) {
	t.Helper()
	store := inmemory.NewMemStorage()
	agg, err := aggregator.New(store, logger)
	require.NoError(t, err)
	return New(walker.New(p, logger), agg, interval, logger), store
}

func TestRunCycle_ProjectListingFails(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{projects: []model.Project{{ID: 1}, {ID: 2}, {ID: 3}}}
	p, store := newPoller(t, provider, time.Minute, nil)

	projectCount := func() float64 {
		t.Helper()
		m, err := store.Get(ctx, aggregator.ProjectsMetric)
		require.NoError(t, err)
		return *m.Value
	}

	res := p.RunCycle(ctx)
	require.True(t, res.OK())
	require.Equal(t, 3.0, projectCount())

	provider.projects, provider.projectsErr = nil, errors.New("502 Bad Gateway")
	res = p.RunCycle(ctx)
	require.Zero(t, res.Projects)
	require.Equal(t, 1, res.Failures)
	require.False(t, res.OK())
	_, err := uuid.Parse(res.ID)
	require.NoError(t, err)
	require.Zero(t, projectCount(), "a failed listing overwrites the previous count")

	m, err := store.Get(ctx, aggregator.EnumerationFailureMetric, aggregator.ResourceProjects)
	require.NoError(t, err)
	require.EqualValues(t, 1, *m.Delta)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	for _, m := range all {
		require.NotEqual(t, aggregator.PipelineDurationMetric, m.Name)
		require.NotEqual(t, aggregator.JobDurationMetric, m.Name)
	}

	// the same poller retries on the next cycle
	provider.projects, provider.projectsErr = []model.Project{{ID: 1, Name: "a"}}, nil
	res = p.RunCycle(ctx)
	require.True(t, res.OK())
	require.Equal(t, 1.0, projectCount())

	m, err = store.Get(ctx, aggregator.CyclesMetric)
	require.NoError(t, err)
	require.EqualValues(t, 3, *m.Delta)
}

func TestRunCycle_FailedFirstCycleHasNoSuccessTimestamp(t *testing.T) {
	ctx := context.Background()
	p, store := newPoller(t, &fakeProvider{projectsErr: errors.New("down")}, time.Minute, nil)

	p.RunCycle(ctx)
	_, err := store.Get(ctx, aggregator.LastSuccessMetric)
	require.ErrorIs(t, err, storage.ErrMetricNotFound)
}

func TestRunCycle_CountsSubResourceFailures(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	provider := &fakeProvider{
		projects: []model.Project{{ID: 1}, {ID: 2}},
		jobsErr:  errors.New("forbidden"),
	}
	p, store := newPoller(t, provider, time.Minute, zap.New(core).Sugar())

	res := p.RunCycle(ctx)
	require.Equal(t, 2, res.Projects)
	require.Equal(t, 2, res.Failures)

	m, err := store.Get(ctx, aggregator.EnumerationFailureMetric, aggregator.ResourceJobs)
	require.NoError(t, err)
	require.EqualValues(t, 2, *m.Delta)

	finished := logs.FilterMessage("cycle finished").All()
	require.Len(t, finished, 1)
	require.Equal(t, res.ID, finished[0].ContextMap()["cycle_id"])
	require.Equal(t, 2, logs.FilterMessage("listing jobs failed").Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{}
	p, _ := newPoller(t, provider, time.Hour, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(provider.starts()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Len(t, provider.starts(), 1)
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &fakeProvider{}
	p, _ := newPoller(t, provider, time.Millisecond, nil)

	require.NoError(t, p.Run(ctx))
	require.Empty(t, provider.starts())
}

func TestRun_SleepsAfterCycleFinishes(t *testing.T) {
	const (
		interval = 40 * time.Millisecond
		work     = 30 * time.Millisecond
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := &fakeProvider{delay: work}
	p, store := newPoller(t, provider, interval, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(provider.starts()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	starts := provider.starts()
	for i := 1; i < len(starts); i++ {
		require.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), interval+work)
	}

	m, err := store.Get(context.Background(), aggregator.CyclesMetric)
	require.NoError(t, err)
	require.GreaterOrEqual(t, *m.Delta, int64(2))
}
