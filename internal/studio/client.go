package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Fetcher is the read side of the backend API. It is implemented by *Client
// and can be faked in tests.
type Fetcher interface {
	Health(ctx context.Context) (Health, error)
	FetchProjects(ctx context.Context) ([]Project, error)
	FetchTasks(ctx context.Context, projectID string) ([]Task, error)
	FetchCharacters(ctx context.Context, projectID string) ([]Character, error)
	FetchFindings(ctx context.Context, projectID string) ([]Finding, error)
	FetchBatches(ctx context.Context, projectID string) ([]Batch, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the studio HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
	mutations *rate.Limiter
}

const (
	defaultBaseURL      = "http://127.0.0.1:8000"
	defaultUserAgent    = "framer/0.1"
	requestTimeout      = 10 * time.Second
	defaultMutationRate = 5
)

// Option customizes a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMutationRate limits write requests to perSecond, with a burst of the
// same size. Zero or negative disables the limit.
func WithMutationRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.mutations = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.mutations = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient builds a Client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		mutations: rate.NewLimiter(rate.Limit(defaultMutationRate), defaultMutationRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) (Health, error) {
	if c == nil {
		return Health{}, fmt.Errorf("client is nil")
	}
	var payload Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &payload); err != nil {
		return Health{}, err
	}
	return payload, nil
}

// FetchProjects lists every project visible to the caller.
func (c *Client) FetchProjects(ctx context.Context) ([]Project, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload struct {
		Items []Project `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchTasks lists a project's tasks with their subtasks.
func (c *Client) FetchTasks(ctx context.Context, projectID string) ([]Task, error) {
	var payload struct {
		Items []Task `json:"items"`
	}
	if err := c.getProjectList(ctx, projectID, "tasks", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchCharacters lists a project's character references.
func (c *Client) FetchCharacters(ctx context.Context, projectID string) ([]Character, error) {
	var payload struct {
		Items []Character `json:"items"`
	}
	if err := c.getProjectList(ctx, projectID, "characters", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchFindings lists a project's AI review findings.
func (c *Client) FetchFindings(ctx context.Context, projectID string) ([]Finding, error) {
	var payload struct {
		Items []Finding `json:"items"`
	}
	if err := c.getProjectList(ctx, projectID, "findings", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchBatches lists a project's batch processing records.
func (c *Client) FetchBatches(ctx context.Context, projectID string) ([]Batch, error) {
	var payload struct {
		Items []Batch `json:"items"`
	}
	if err := c.getProjectList(ctx, projectID, "batches", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// UpdateFindingBox replaces a finding's bounding box and returns the stored finding.
func (c *Client) UpdateFindingBox(ctx context.Context, findingID string, box BoundingBox) (Finding, error) {
	if c == nil {
		return Finding{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(findingID) == "" {
		return Finding{}, fmt.Errorf("finding id required")
	}
	if !box.Valid() {
		return Finding{}, fmt.Errorf("bounding box %s outside image", box)
	}
	if err := c.mutations.Wait(ctx); err != nil {
		return Finding{}, fmt.Errorf("wait for rate limit: %w", err)
	}
	var payload Finding
	path := "/api/findings/" + url.PathEscape(findingID) + "/bbox"
	if err := c.do(ctx, http.MethodPatch, path, box, &payload); err != nil {
		return Finding{}, err
	}
	return payload, nil
}

// SaveFindingBox is UpdateFindingBox shaped as an edit persistence callback.
func (c *Client) SaveFindingBox(ctx context.Context, findingID string, box BoundingBox) error {
	_, err := c.UpdateFindingBox(ctx, findingID, box)
	return err
}

func (c *Client) getProjectList(ctx context.Context, projectID, resource string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("project id required")
	}
	path := "/api/projects/" + url.PathEscape(projectID) + "/" + resource
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newAPIError(method, rel.Path, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
