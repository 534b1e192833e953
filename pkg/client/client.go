package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a Go SDK for the progress-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey sets the key sent on admin requests
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// NewClient creates a new progress-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := call[map[string]string](ctx, c, http.MethodGet, "/health", nil)
	return err
}

// ListModules returns every module in listing order
func (c *Client) ListModules(ctx context.Context) ([]ModuleSummary, error) {
	data, err := call[struct {
		Modules []ModuleSummary `json:"modules"`
	}](ctx, c, http.MethodGet, "/api/v1/modules", nil)
	if err != nil {
		return nil, err
	}
	return data.Modules, nil
}

// GetModule returns a module's full curriculum
func (c *Client) GetModule(ctx context.Context, moduleID string) (*Module, error) {
	return call[*Module](ctx, c, http.MethodGet, "/api/v1/modules/"+url.PathEscape(moduleID), nil)
}

// ListTiers returns the certification ladder
func (c *Client) ListTiers(ctx context.Context) ([]Tier, error) {
	data, err := call[struct {
		Tiers []Tier `json:"tiers"`
	}](ctx, c, http.MethodGet, "/api/v1/certifications/tiers", nil)
	if err != nil {
		return nil, err
	}
	return data.Tiers, nil
}

// CompleteSection records a section completion
func (c *Client) CompleteSection(ctx context.Context, req CompleteSectionRequest) (*Progress, error) {
	return call[*Progress](ctx, c, http.MethodPost, "/api/v1/progress/complete", req)
}

// GetProgress returns a learner's progress. An empty moduleID selects the default module.
func (c *Client) GetProgress(ctx context.Context, userAddress, moduleID string) (*Progress, error) {
	path := "/api/v1/progress/" + url.PathEscape(userAddress)
	if moduleID != "" {
		path += "?module=" + url.QueryEscape(moduleID)
	}
	return call[*Progress](ctx, c, http.MethodGet, path, nil)
}

// CheckEligibility evaluates the ladder for a learner
func (c *Client) CheckEligibility(ctx context.Context, userAddress string) (*Eligibility, error) {
	return call[*Eligibility](ctx, c, http.MethodGet,
		"/api/v1/certifications/"+url.PathEscape(userAddress)+"/eligibility", nil)
}

// Claim records a certification claim
func (c *Client) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	return call[*ClaimResult](ctx, c, http.MethodPost, "/api/v1/certifications/claim", req)
}

// GetClaim returns a learner's claim for a module
func (c *Client) GetClaim(ctx context.Context, userAddress, moduleID string) (*Claim, error) {
	return call[*Claim](ctx, c, http.MethodGet,
		"/api/v1/certifications/"+url.PathEscape(userAddress)+"/claims/"+url.PathEscape(moduleID), nil)
}

// ListClaims returns every certification a learner holds
func (c *Client) ListClaims(ctx context.Context, userAddress string) ([]Claim, error) {
	data, err := call[struct {
		Claims []Claim `json:"claims"`
	}](ctx, c, http.MethodGet, "/api/v1/certifications/"+url.PathEscape(userAddress)+"/claims", nil)
	if err != nil {
		return nil, err
	}
	return data.Claims, nil
}

// SubmitChallenge submits a challenge for review
func (c *Client) SubmitChallenge(ctx context.Context, req SubmitChallengeRequest) (*Submission, error) {
	return call[*Submission](ctx, c, http.MethodPost, "/api/v1/submissions", req)
}

// GetSubmission returns a submission by id. Requires an API key.
func (c *Client) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	return call[*Submission](ctx, c, http.MethodGet, "/api/v1/admin/submissions/"+url.PathEscape(id), nil)
}

// ReviewSubmission accepts or rejects a submission. Requires an API key.
func (c *Client) ReviewSubmission(ctx context.Context, id, action string) (*Submission, error) {
	return call[*Submission](ctx, c, http.MethodPost,
		"/api/v1/admin/submissions/"+url.PathEscape(id)+"/review", reviewRequest{Action: action})
}

// GetLeaderboard returns the top learners of a scoring module. When
// userAddress is set the learner's own rank is included.
func (c *Client) GetLeaderboard(ctx context.Context, moduleID string, limit int, userAddress string) (*Leaderboard, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if userAddress != "" {
		q.Set("address", userAddress)
	}

	path := "/api/v1/leaderboard/" + url.PathEscape(moduleID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return call[*Leaderboard](ctx, c, http.MethodGet, path, nil)
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs a request and unwraps the response envelope
func call[T any](ctx context.Context, c *Client, method, path string, payload interface{}) (T, error) {
	var zero T

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	status, resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return zero, err
	}

	var result envelope[T]
	if err := json.Unmarshal(resp, &result); err != nil {
		if status >= 400 {
			return zero, &APIError{StatusCode: status, Code: "http_error", Message: string(resp)}
		}
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := &APIError{StatusCode: status, Code: "unknown_error"}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return zero, apiErr
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
