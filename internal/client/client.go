// Package client implements a read-only GitLab REST client that lists
// projects, pipelines and jobs page by page.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/gitlab-exporter/internal/buildinfo"
	"github.com/and161185/gitlab-exporter/internal/client/transport"
	"github.com/and161185/gitlab-exporter/internal/config"
	"github.com/and161185/gitlab-exporter/model"
)

// ErrUnauthorized is returned when GitLab rejects the credential (401 or 403).
var ErrUnauthorized = errors.New("gitlab: unauthorized")

// APIError describes any other non-success answer of the GitLab API.
type APIError struct {
	Path       string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gitlab API error: GET %s: %s", e.Path, e.Status)
	}
	return fmt.Sprintf("gitlab API error: GET %s: %s: %s", e.Path, e.Status, e.Message)
}

// Temporary reports whether GitLab answered with an overload or gateway
// status that usually clears on its own.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// User is the account behind the configured token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Client is a paginated GitLab API client.
type Client struct {
	baseURL         string
	perPage         int
	membership      bool
	pipelineDetails bool
	httpClient      *http.Client
	logger          *zap.SugaredLogger
}

// NewHTTPClient builds the http.Client used to talk to GitLab: it carries the
// request timeout and injects the token into every request.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout(),
		Transport: &transport.AuthRoundTripper{
			Base:      http.DefaultTransport,
			Token:     cfg.Token,
			UserAgent: buildinfo.UserAgent(),
		},
	}
}

func NewClient(cfg *config.Config) *Client {
	return NewClientWithHTTP(cfg, NewHTTPClient(cfg))
}

func NewClientWithHTTP(cfg *config.Config, hc *http.Client) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	return &Client{
		baseURL:         cfg.APIBaseURL(),
		perPage:         perPage,
		membership:      cfg.Membership,
		pipelineDetails: cfg.PipelineDetails,
		httpClient:      hc,
		logger:          logger,
	}
}

// CurrentUser checks the credential by fetching the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if _, err := c.get(ctx, "/user", nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListProjects returns every project visible to the token.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	q := url.Values{}
	q.Set("order_by", "id")
	q.Set("sort", "asc")
	q.Set("archived", "false")
	if c.membership {
		q.Set("membership", "true")
	}

	raw, err := getAll[gitLabProject](ctx, c, "/projects", q)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]model.Project, len(raw))
	for i, p := range raw {
		projects[i] = p.toProject()
	}
	return projects, nil
}

// ListPipelines returns every pipeline of a project. The list endpoint does
// not carry start and finish times, so finished pipelines are completed from
// the detail endpoint when pipeline details are enabled.
func (c *Client) ListPipelines(ctx context.Context, projectID int64) ([]model.Pipeline, error) {
	path := "/projects/" + strconv.FormatInt(projectID, 10) + "/pipelines"
	raw, err := getAll[gitLabPipeline](ctx, c, path, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("list pipelines of project %d: %w", projectID, err)
	}
	raw = dropRepeated(raw, func(p gitLabPipeline) int64 { return p.ID })

	pipelines := make([]model.Pipeline, len(raw))
	for i, p := range raw {
		pipelines[i] = p.toPipeline(projectID)
		if !c.pipelineDetails || !needsDetails(pipelines[i]) {
			continue
		}

		var detail gitLabPipeline
		_, err := c.get(ctx, path+"/"+strconv.FormatInt(p.ID, 10), nil, &detail)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debugw("pipeline details unavailable",
				"project_id", projectID, "pipeline_id", p.ID, "error", err)
			continue
		}
		pipelines[i].StartedAt = emptyAsNil(detail.StartedAt)
		pipelines[i].FinishedAt = emptyAsNil(detail.FinishedAt)
	}
	return pipelines, nil
}

// ListJobs returns every job of a project.
func (c *Client) ListJobs(ctx context.Context, projectID int64) ([]model.Job, error) {
	path := "/projects/" + strconv.FormatInt(projectID, 10) + "/jobs"
	raw, err := getAll[gitLabJob](ctx, c, path, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("list jobs of project %d: %w", projectID, err)
	}
	raw = dropRepeated(raw, func(j gitLabJob) int64 { return j.ID })

	jobs := make([]model.Job, len(raw))
	for i, j := range raw {
		jobs[i] = j.toJob(projectID)
	}
	return jobs, nil
}

var terminalStatuses = map[string]bool{
	"success":  true,
	"failed":   true,
	"canceled": true,
	"skipped":  true,
}

func needsDetails(p model.Pipeline) bool {
	return p.StartedAt == nil && p.FinishedAt == nil && terminalStatuses[p.Status]
}

// getAll walks every page of a listing by following X-Next-Page.
func getAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("per_page", strconv.Itoa(c.perPage))

	var all []T
	page := "1"
	for {
		q.Set("page", page)

		var batch []T
		next, err := c.get(ctx, path, q, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if next == "" || next == page {
			return all, nil
		}
		page = next
	}
}

// dropRepeated keeps the first item of every id. Pipelines and jobs are
// listed newest first, so entities created during a walk push older ones
// onto the next page and they show up twice.
func dropRepeated[T any](items []T, id func(T) int64) []T {
	seen := make(map[int64]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		k := id(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// get fetches path and decodes the JSON body into target. It returns the
// value of the X-Next-Page header.
func (c *Client) get(ctx context.Context, path string, query url.Values, target any) (string, error) {
	apiURL := c.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("gitlab API error: GET %s: %s: %w", path, resp.Status, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return strings.TrimSpace(resp.Header.Get("X-Next-Page")), nil
}
