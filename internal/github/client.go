package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.github.com/"
	pageSize       = 100
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
}

type Issue struct {
	Number  int      `json:"number"`
	Title   string   `json:"title"`
	State   string   `json:"state"`
	HTMLURL string   `json:"html_url"`
	Labels  []Label  `json:"labels"`
	PR      *prLinks `json:"pull_request,omitempty"`
}

type Label struct {
	Name string `json:"name"`
}

type prLinks struct {
	URL string `json:"url"`
}

type IssueRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

type ListOptions struct {
	State  string
	Labels []string
}

type DispatchRequest struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

// APIError is returned for any response outside the expected status range
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api %s %s: %s: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("github api %s %s: %s", e.Method, e.Path, e.Status)
}

func New(token, owner, repo string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
		owner:      owner,
		repo:       repo,
	}
}

// WithBaseURL overrides the default API base URL (useful for tests or GH Enterprise)
func (c *Client) WithBaseURL(base string) *Client {
	cp := *c
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	cp.baseURL = base
	return &cp
}

func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.httpClient = hc
	return &cp
}

func (c *Client) repoPath(parts ...string) string {
	p := "repos/" + url.PathEscape(c.owner) + "/" + url.PathEscape(c.repo)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and decodes the response into v when v is non-nil. ok reports
// whether a status code is acceptable.
func (c *Client) do(req *http.Request, ok func(int) bool, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github api %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return &APIError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(resp.Body),
		}
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode github response for %s: %w", req.URL.Path, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}

func success(code int) bool { return code >= 200 && code < 300 }

func (c *Client) CreateIssue(ctx context.Context, issue IssueRequest) (*Issue, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.repoPath("issues"), nil, issue)
	if err != nil {
		return nil, err
	}
	var created Issue
	if err := c.do(req, success, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListIssues pages through every issue matching opts. Pull requests, which the
// issues endpoint also returns, are dropped.
func (c *Client) ListIssues(ctx context.Context, opts ListOptions) ([]Issue, error) {
	var all []Issue
	for page := 1; ; page++ {
		q := url.Values{}
		if opts.State != "" {
			q.Set("state", opts.State)
		}
		if len(opts.Labels) > 0 {
			q.Set("labels", strings.Join(opts.Labels, ","))
		}
		q.Set("per_page", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))

		req, err := c.newRequest(ctx, http.MethodGet, c.repoPath("issues"), q, nil)
		if err != nil {
			return nil, err
		}
		var issues []Issue
		if err := c.do(req, success, &issues); err != nil {
			return nil, err
		}
		for _, iss := range issues {
			if iss.PR == nil {
				all = append(all, iss)
			}
		}
		if len(issues) < pageSize {
			break
		}
	}
	return all, nil
}

func (c *Client) DispatchWorkflow(ctx context.Context, workflow string, dispatch DispatchRequest) error {
	path := c.repoPath("actions", "workflows", url.PathEscape(workflow), "dispatches")
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, dispatch)
	if err != nil {
		return err
	}
	return c.do(req, func(code int) bool { return code == http.StatusNoContent }, nil)
}

// ScanInputs builds the workflow_dispatch inputs for a remote scan
func ScanInputs(scanType string, createIssues bool, maxIssues int) map[string]string {
	return map[string]string{
		"scan_type":     scanType,
		"create_issues": strconv.FormatBool(createIssues),
		"max_issues":    strconv.Itoa(maxIssues),
	}
}
