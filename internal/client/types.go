package client

import (
	"github.com/and161185/gitlab-exporter/internal/utils"
	"github.com/and161185/gitlab-exporter/model"
)

type gitLabNamespace struct {
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
}

type gitLabProject struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Namespace       gitLabNamespace `json:"namespace"`
	OpenIssuesCount int             `json:"open_issues_count"`
}

func (p gitLabProject) toProject() model.Project {
	return model.Project{
		ID:         p.ID,
		Name:       p.Name,
		Namespace:  p.Namespace.Name,
		OpenIssues: p.OpenIssuesCount,
	}
}

type gitLabPipeline struct {
	ID         int64   `json:"id"`
	Status     string  `json:"status"`
	Ref        string  `json:"ref"`
	StartedAt  *string `json:"started_at"`
	FinishedAt *string `json:"finished_at"`
}

func (p gitLabPipeline) toPipeline(projectID int64) model.Pipeline {
	return model.Pipeline{
		ID:         p.ID,
		ProjectID:  projectID,
		Status:     p.Status,
		Ref:        p.Ref,
		StartedAt:  emptyAsNil(p.StartedAt),
		FinishedAt: emptyAsNil(p.FinishedAt),
	}
}

type gitLabPipelineRef struct {
	ID  int64  `json:"id"`
	Ref string `json:"ref"`
}

type gitLabJob struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Stage      string             `json:"stage"`
	Status     string             `json:"status"`
	Ref        string             `json:"ref"`
	StartedAt  *string            `json:"started_at"`
	FinishedAt *string            `json:"finished_at"`
	Pipeline   *gitLabPipelineRef `json:"pipeline"`
}

func (j gitLabJob) toJob(projectID int64) model.Job {
	job := model.Job{
		ID:         j.ID,
		ProjectID:  projectID,
		Name:       j.Name,
		Stage:      j.Stage,
		Status:     j.Status,
		StartedAt:  emptyAsNil(j.StartedAt),
		FinishedAt: emptyAsNil(j.FinishedAt),
	}
	if j.Pipeline != nil {
		ref := j.Pipeline.Ref
		if ref == "" {
			ref = j.Ref
		}
		job.Pipeline = &model.PipelineRef{ID: j.Pipeline.ID, Ref: ref}
	}
	return job
}

func emptyAsNil(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.StrPtr(*s)
}
