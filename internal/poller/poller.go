// Package poller runs collection cycles: it walks GitLab and feeds the
// aggregator, then sleeps for the configured interval.
package poller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/and161185/gitlab-exporter/internal/aggregator"
	"github.com/and161185/gitlab-exporter/internal/walker"
	"github.com/and161185/gitlab-exporter/model"
)

// CycleResult summarizes one collection cycle.
type CycleResult struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Projects int
	Failures int  // failed listings of any resource type
	Aborted  bool // the context was cancelled during the cycle
}

func (r CycleResult) OK() bool {
	return r.Failures == 0 && !r.Aborted
}

type Poller struct {
	walker     *walker.Walker
	aggregator *aggregator.Aggregator
	interval   time.Duration
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func New(w *walker.Walker, agg *aggregator.Aggregator, interval time.Duration, logger *zap.SugaredLogger) *Poller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Poller{
		walker:     w,
		aggregator: agg,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle walks every project once and applies the results to the store,
// project by project. A failed listing is counted and the cycle goes on.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{ID: uuid.NewString(), Started: p.now()}
	log := p.logger.With("cycle_id", res.ID)
	log.Debug("cycle started")

	failed := func(resource string, err error) {
		// errors caused by shutdown are not upstream failures
		if err == nil || ctx.Err() != nil {
			return
		}
		res.Failures++
		if recErr := p.aggregator.RecordEnumerationFailure(ctx, resource); recErr != nil {
			log.Errorw("recording enumeration failure", "error", recErr)
		}
	}

	n, err := p.walker.Walk(ctx, func(r model.ProjectResources) {
		failed(aggregator.ResourcePipelines, r.PipelinesErr)
		failed(aggregator.ResourceJobs, r.JobsErr)
		if aggErr := p.aggregator.Aggregate(ctx, r); aggErr != nil {
			log.Errorw("aggregating project", "project_id", r.Project.ID, "error", aggErr)
		}
	})
	failed(aggregator.ResourceProjects, err)
	res.Projects = n
	res.Duration = p.now().Sub(res.Started)

	if ctx.Err() != nil {
		res.Aborted = true
		log.Infow("cycle aborted", "projects", n, "duration", res.Duration)
		return res
	}

	if err := p.aggregator.SetProjectCount(ctx, n); err != nil {
		log.Errorw("saving project count", "error", err)
	}
	if err := p.aggregator.RecordCycle(ctx, res.Started, res.Duration, res.OK()); err != nil {
		log.Errorw("saving cycle metrics", "error", err)
	}

	log.Infow("cycle finished",
		"projects", res.Projects,
		"failures", res.Failures,
		"duration", res.Duration,
	)
	return res
}

// Run repeats RunCycle, sleeping the interval after each cycle finishes,
// until ctx is cancelled. It always returns nil.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		p.RunCycle(ctx)

		p.logger.Debugw("sleeping", "interval", p.interval)
		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("poller stopped")
			return nil
		case <-timer.C:
		}
	}
}
