package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"planner/internal/models"
)

// searchFields is the field set requested for every issue search.
var searchFields = []string{
	"summary", "description", "status", "assignee", "priority",
	"created", "updated", "subtasks", "parent", "issuetype",
	"customfield_10020",
}

const searchPageSize = 100

// Credentials configure access to the tracker's REST API.
type Credentials struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Client is the tracker gateway. It is constructed once from explicit
// credentials; configuration changes go through Reconfigure rather than any
// implicit reload. The client keeps a per-project issue cache that is
// replaced all-or-nothing on each successful fetch, so a failed fetch never
// corrupts previously cached issues.
type Client struct {
	httpc  *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	creds Credentials
	cache map[int64][]models.Task
}

// NewClient builds a tracker gateway from explicit credentials.
func NewClient(creds Credentials, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpc:  &http.Client{Timeout: 30 * time.Second},
		logger: logger,
		creds:  creds,
		cache:  make(map[int64][]models.Task),
	}
}

// Reconfigure replaces the credentials used for subsequent requests.
func (c *Client) Reconfigure(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// credentials returns a snapshot of the current credentials.
func (c *Client) credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

type searchResponse struct {
	Issues []Issue `json:"issues"`
}

// FetchProjectIssues searches the tracker for the project's issues and
// returns them mapped to tasks. On success the project's cache entry is
// replaced with the new result; on failure the cache is left untouched and
// the error is returned for the caller to report per project.
func (c *Client) FetchProjectIssues(ctx context.Context, project models.Project) ([]models.Task, error) {
	if !project.Tracked() {
		return nil, fmt.Errorf("project %q has no tracker key", project.Name)
	}

	body := map[string]any{
		"jql":        fmt.Sprintf("project = %q ORDER BY created DESC", project.JiraKey),
		"maxResults": searchPageSize,
		"fields":     searchFields,
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/search", body, &resp); err != nil {
		return nil, fmt.Errorf("search issues for %s: %w", project.JiraKey, err)
	}

	tasks := make([]models.Task, 0, len(resp.Issues))
	for _, rec := range resp.Issues {
		tasks = append(tasks, MapIssue(rec, project.ID))
	}

	c.mu.Lock()
	c.cache[project.ID] = tasks
	c.mu.Unlock()

	c.logger.Info("fetched project issues",
		slog.String("project", project.JiraKey), slog.Int("count", len(tasks)))
	return tasks, nil
}

// CachedIssues returns the last successfully fetched issues for a project.
// The returned slice is a copy; callers may reorder it freely.
func (c *Client) CachedIssues(projectID int64) []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached := c.cache[projectID]
	out := make([]models.Task, len(cached))
	copy(out, cached)
	return out
}

// CreateIssue creates a new issue in the given tracker project and returns
// its key.
func (c *Client) CreateIssue(ctx context.Context, projectKey, summary, description, priorityName string) (string, error) {
	fields := map[string]any{
		"project":   map[string]any{"key": projectKey},
		"summary":   summary,
		"issuetype": map[string]any{"name": "Task"},
	}
	if description != "" {
		fields["description"] = adfDocument(description)
	}
	if priorityName != "" {
		fields["priority"] = map[string]any{"name": priorityName}
	}

	var resp struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/issue", map[string]any{"fields": fields}, &resp); err != nil {
		return "", fmt.Errorf("create issue in %s: %w", projectKey, err)
	}
	return resp.Key, nil
}

// EditIssue updates fields of an existing issue. Summary and description are
// applied when non-empty.
func (c *Client) EditIssue(ctx context.Context, key, summary, description string) error {
	fields := map[string]any{}
	if summary != "" {
		fields["summary"] = summary
	}
	if description != "" {
		fields["description"] = adfDocument(description)
	}
	if len(fields) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPut, "/rest/api/3/issue/"+key, map[string]any{"fields": fields}, nil); err != nil {
		return fmt.Errorf("edit issue %s: %w", key, err)
	}
	return nil
}

// TransitionIssue moves an issue to a new workflow state by transition id.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	body := map[string]any{"transition": map[string]any{"id": transitionID}}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/issue/"+key+"/transitions", body, nil); err != nil {
		return fmt.Errorf("transition issue %s: %w", key, err)
	}
	return nil
}

// DeleteIssue removes an issue from the tracker.
func (c *Client) DeleteIssue(ctx context.Context, key string) error {
	if err := c.do(ctx, http.MethodDelete, "/rest/api/3/issue/"+key, nil, nil); err != nil {
		return fmt.Errorf("delete issue %s: %w", key, err)
	}
	return nil
}

// AddComment posts a plain-text comment on an issue.
func (c *Client) AddComment(ctx context.Context, key, text string) error {
	body := map[string]any{"body": adfDocument(text)}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/issue/"+key+"/comment", body, nil); err != nil {
		return fmt.Errorf("comment on issue %s: %w", key, err)
	}
	return nil
}

// AssignIssue sets the issue's assignee by account id. An empty id unassigns.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	var body map[string]any
	if accountID == "" {
		body = map[string]any{"accountId": nil}
	} else {
		body = map[string]any{"accountId": accountID}
	}
	if err := c.do(ctx, http.MethodPut, "/rest/api/3/issue/"+key+"/assignee", body, nil); err != nil {
		return fmt.Errorf("assign issue %s: %w", key, err)
	}
	return nil
}

// adfDocument wraps plain text in the minimal document tree the tracker
// accepts for rich-text fields.
func adfDocument(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}

// do runs one authenticated JSON request against the tracker and decodes the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	creds := c.credentials()
	if creds.BaseURL == "" {
		return fmt.Errorf("tracker not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := strings.TrimSuffix(creds.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(creds.Email, creds.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tracker returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode tracker response: %w", err)
		}
	}
	return nil
}
