package model

// Project is a GitLab project as returned by the projects listing.
type Project struct {
	ID         int64
	Name       string
	Namespace  string
	OpenIssues int
}

// PipelineRef points a job at its owning pipeline.
type PipelineRef struct {
	ID  int64
	Ref string
}

// Pipeline is one execution of a project's CI configuration.
// Timestamps are kept as the raw strings sent by the API; nil means absent.
type Pipeline struct {
	ID         int64
	ProjectID  int64
	Status     string
	Ref        string
	StartedAt  *string
	FinishedAt *string
}

// Job is one unit of work inside a pipeline stage.
type Job struct {
	ID         int64
	ProjectID  int64
	Name       string
	Stage      string
	Status     string
	StartedAt  *string
	FinishedAt *string
	Pipeline   *PipelineRef
}

// ProjectResources is everything the walker fetched for one project in a cycle.
// PipelinesErr and JobsErr are set when the matching listing failed; the
// corresponding slice is then empty.
type ProjectResources struct {
	Project      Project
	Pipelines    []Pipeline
	Jobs         []Job
	PipelinesErr error
	JobsErr      error
}
