// Package aggregator turns the resources fetched in a cycle into metric
// updates of the snapshot store.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/gitlab-exporter/internal/timing"
	"github.com/and161185/gitlab-exporter/internal/utils"
	"github.com/and161185/gitlab-exporter/model"
	"github.com/and161185/gitlab-exporter/storage"
)

// Store is the snapshot store the aggregator writes to.
type Store interface {
	storage.Storage
	Define(families ...model.Family) error
	SaveBatch(ctx context.Context, metrics []model.Metric) error
}

// Aggregator is the only writer of the store.
type Aggregator struct {
	store  Store
	logger *zap.SugaredLogger
}

// New defines Families on store and returns an aggregator writing to it.
func New(store Store, logger *zap.SugaredLogger) (*Aggregator, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := store.Define(Families...); err != nil {
		return nil, fmt.Errorf("define metric families: %w", err)
	}
	return &Aggregator{store: store, logger: logger}, nil
}

func gauge(name string, v float64, labels ...string) *model.Metric {
	return &model.Metric{Name: name, Type: model.Gauge, Labels: labels, Value: utils.F64Ptr(v)}
}

func counter(name string, delta int64, labels ...string) *model.Metric {
	return &model.Metric{Name: name, Type: model.Counter, Labels: labels, Delta: utils.I64Ptr(delta)}
}

func observation(name string, d time.Duration, labels ...string) *model.Metric {
	return &model.Metric{
		Name:   name,
		Type:   model.Summary,
		Labels: labels,
		Count:  utils.U64Ptr(1),
		Sum:    utils.F64Ptr(d.Seconds()),
	}
}

func (a *Aggregator) SetProjectCount(ctx context.Context, n int) error {
	return a.store.Save(ctx, gauge(ProjectsMetric, float64(n)))
}

func (a *Aggregator) RecordEnumerationFailure(ctx context.Context, resource string) error {
	return a.store.Save(ctx, counter(EnumerationFailureMetric, 1, resource))
}

// RecordCycle updates the cycle health metrics. The timestamps are the time
// the cycle finished.
func (a *Aggregator) RecordCycle(ctx context.Context, started time.Time, d time.Duration, ok bool) error {
	finished := float64(started.Add(d).UnixNano()) / 1e9
	batch := []model.Metric{
		*counter(CyclesMetric, 1),
		*gauge(LastCycleMetric, finished),
		*gauge(LastCycleDurationMetric, d.Seconds()),
	}
	if ok {
		batch = append(batch, *gauge(LastSuccessMetric, finished))
	}
	return a.store.SaveBatch(ctx, batch)
}

// Aggregate applies one project's resources to the store. Pipelines and jobs
// without an available duration are counted as skipped. The job gauge is
// left untouched when the job listing failed.
func (a *Aggregator) Aggregate(ctx context.Context, res model.ProjectResources) error {
	p := res.Project
	projectID := strconv.FormatInt(p.ID, 10)
	base := []string{p.Namespace, projectID, p.Name}

	var errs []error
	save := func(m *model.Metric) {
		if err := a.store.Save(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	skip := func(resource, reason string, id int64) {
		a.logger.Debugw("observation skipped",
			"resource", resource, "id", id, "project_id", p.ID, "reason", reason)
		save(counter(SkippedMetric, 1, resource, reason))
	}

	save(gauge(ProjectOpenIssuesMetric, float64(p.OpenIssues), base...))
	if res.JobsErr == nil {
		save(gauge(ProjectJobsMetric, float64(len(res.Jobs)), base...))
	}

	refs := make(map[int64]string, len(res.Pipelines))
	for _, pl := range res.Pipelines {
		refs[pl.ID] = pl.Ref

		if pl.Status == "" {
			skip(ResourcePipelines, ReasonMissingAttribute, pl.ID)
			continue
		}
		d, err := timing.Elapsed(pl.StartedAt, pl.FinishedAt)
		if err != nil {
			skip(ResourcePipelines, timing.Reason(err), pl.ID)
			continue
		}
		ref := pl.Ref
		if ref == "" {
			ref = UnknownRef
		}
		save(observation(PipelineDurationMetric, d, append(base[:3:3], pl.Status, ref)...))
	}

	for _, job := range res.Jobs {
		if job.Status == "" || job.Stage == "" {
			skip(ResourceJobs, ReasonMissingAttribute, job.ID)
			continue
		}
		d, err := timing.Elapsed(job.StartedAt, job.FinishedAt)
		if err != nil {
			skip(ResourceJobs, timing.Reason(err), job.ID)
			continue
		}
		save(observation(JobDurationMetric, d, append(base[:3:3], job.Stage, job.Status, jobRef(job, refs))...))
	}

	return errors.Join(errs...)
}

// jobRef resolves the ref of the pipeline that owns job: first from the job
// itself, then from the project's pipeline with the same id.
func jobRef(job model.Job, refs map[int64]string) string {
	if job.Pipeline == nil {
		return UnknownRef
	}
	if job.Pipeline.Ref != "" {
		return job.Pipeline.Ref
	}
	if ref := refs[job.Pipeline.ID]; ref != "" {
		return ref
	}
	return UnknownRef
}
