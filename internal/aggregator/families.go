package aggregator

import "github.com/and161185/gitlab-exporter/model"

const (
	ProjectsMetric           = "gitlab_projects"
	ProjectJobsMetric        = "gitlab_project_jobs"
	ProjectOpenIssuesMetric  = "gitlab_project_open_issues"
	PipelineDurationMetric   = "gitlab_pipeline_duration_seconds"
	JobDurationMetric        = "gitlab_job_duration_seconds"
	EnumerationFailureMetric = "gitlab_exporter_enumeration_failures_total"
	SkippedMetric            = "gitlab_exporter_skipped_observations_total"
	CyclesMetric             = "gitlab_exporter_cycles_total"
	LastCycleMetric          = "gitlab_exporter_last_cycle_timestamp_seconds"
	LastCycleDurationMetric  = "gitlab_exporter_last_cycle_duration_seconds"
	LastSuccessMetric        = "gitlab_exporter_last_successful_cycle_timestamp_seconds"
)

// Values of the resource label.
const (
	ResourceProjects  = "projects"
	ResourcePipelines = "pipelines"
	ResourceJobs      = "jobs"
)

// UnknownRef labels job observations whose pipeline ref cannot be resolved.
const UnknownRef = "unknown"

// ReasonMissingAttribute marks entities skipped for lacking status or stage.
const ReasonMissingAttribute = "missing_attribute"

var projectLabels = []string{"namespace", "project_id", "project_name"}

func withProject(extra ...string) []string {
	return append(append([]string(nil), projectLabels...), extra...)
}

// Families lists every metric family the aggregator writes.
var Families = []model.Family{
	{Name: ProjectsMetric, Help: "Number of projects visible in the last cycle.", Type: model.Gauge},
	{Name: ProjectJobsMetric, Help: "Number of jobs of a project.", Type: model.Gauge, Labels: withProject()},
	{Name: ProjectOpenIssuesMetric, Help: "Number of open issues of a project.", Type: model.Gauge, Labels: withProject()},
	{Name: PipelineDurationMetric, Help: "Time pipelines took to run.", Type: model.Summary, Labels: withProject("status", "ref")},
	{Name: JobDurationMetric, Help: "Time jobs took to run.", Type: model.Summary, Labels: withProject("stage", "status", "ref")},
	{Name: EnumerationFailureMetric, Help: "Failed GitLab listings by resource.", Type: model.Counter, Labels: []string{"resource"}},
	{Name: SkippedMetric, Help: "Pipelines and jobs not observed, by reason.", Type: model.Counter, Labels: []string{"resource", "reason"}},
	{Name: CyclesMetric, Help: "Completed collection cycles.", Type: model.Counter},
	{Name: LastCycleMetric, Help: "Unix time the last collection cycle finished.", Type: model.Gauge},
	{Name: LastCycleDurationMetric, Help: "Duration of the last collection cycle.", Type: model.Gauge},
	{Name: LastSuccessMetric, Help: "Unix time the last cycle without enumeration failures finished.", Type: model.Gauge},
}
