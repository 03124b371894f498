// Package walker enumerates projects and their pipelines and jobs, isolating
// failures so one broken listing never hides the others.
package walker

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/gitlab-exporter/model"
)

// Provider lists GitLab resources. It is implemented by client.Client.
type Provider interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListPipelines(ctx context.Context, projectID int64) ([]model.Pipeline, error)
	ListJobs(ctx context.Context, projectID int64) ([]model.Job, error)
}

type Walker struct {
	provider Provider
	logger   *zap.SugaredLogger
}

func New(provider Provider, logger *zap.SugaredLogger) *Walker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Walker{provider: provider, logger: logger}
}

// Projects lists all projects. On failure the error is logged and returned
// together with an empty list.
func (w *Walker) Projects(ctx context.Context) ([]model.Project, error) {
	projects, err := w.provider.ListProjects(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warnw("listing projects failed", "error", err)
		}
		return []model.Project{}, err
	}
	return projects, nil
}

// Resources fetches pipelines and jobs of one project. Each listing fails on
// its own; the error is kept on the result.
func (w *Walker) Resources(ctx context.Context, project model.Project) model.ProjectResources {
	res := model.ProjectResources{Project: project}

	pipelines, err := w.provider.ListPipelines(ctx, project.ID)
	if err != nil {
		res.PipelinesErr = err
		if ctx.Err() == nil {
			w.logger.Warnw("listing pipelines failed",
				"project_id", project.ID, "project_name", project.Name, "error", err)
		}
	} else {
		res.Pipelines = pipelines
	}

	jobs, err := w.provider.ListJobs(ctx, project.ID)
	if err != nil {
		res.JobsErr = err
		if ctx.Err() == nil {
			w.logger.Warnw("listing jobs failed",
				"project_id", project.ID, "project_name", project.Name, "error", err)
		}
	} else {
		res.Jobs = jobs
	}

	return res
}

// Walk lists the projects and hands every project's resources to visit as
// soon as they are fetched. It returns the number of projects listed and the
// project listing error. Walk stops between projects once ctx is done.
func (w *Walker) Walk(ctx context.Context, visit func(model.ProjectResources)) (int, error) {
	projects, err := w.Projects(ctx)
	if err != nil {
		return 0, err
	}

	for _, p := range projects {
		if ctx.Err() != nil {
			break
		}
		visit(w.Resources(ctx, p))
	}
	return len(projects), nil
}
