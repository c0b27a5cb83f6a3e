package cloudability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zgpcy/cloudability-exporter/internal/logger"
	"github.com/zgpcy/cloudability-exporter/internal/version"
)

// API constants
const (
	// DefaultBaseURL is the root every resource path is joined to
	DefaultBaseURL = "https://app.cloudability.com/api/1"

	// AuthTokenParam is the query parameter carrying the auth token
	AuthTokenParam = "auth_token"

	// TokenEnv is the environment variable holding the auth token
	TokenEnv = "CLOUDABILITY_API_TOKEN"

	// RequestIDHeader is sent with every request and echoed in logs and errors
	RequestIDHeader = "X-Request-Id"

	// DefaultTimeout is the HTTP client timeout when none is configured
	DefaultTimeout = 30 * time.Second
)

// Client performs authenticated GET requests against the Cloudability API.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	logger     *logger.Logger
	metrics    *Metrics
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger used for request logging
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics enables per-request metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client authenticating with token. The token is not
// validated beyond being non-empty.
func NewClient(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		token:      token,
		userAgent:  "cloudability-exporter/" + version.Version,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root in use
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch issues one GET to baseURL+resource+subPath with params and the auth
// token merged into the query string. The token always wins over a caller
// supplied auth_token. The raw response is returned for the caller to decode
// and close; transport errors are returned wrapped, never retried.
func (c *Client) Fetch(ctx context.Context, resource, subPath string, params Params) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + resource + subPath)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	q := params.Values()
	q.Set(AuthTokenParam, c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	// Never log u: it carries the token
	log := c.logger.WithFields(
		"resource", resource,
		"path", resource+subPath,
		"request_id", requestID)
	log.Debug("Calling Cloudability API")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	c.metrics.observe(resource, resp, err, duration)

	if err != nil {
		err = redactURLError(err)
		log.Debug("Cloudability API request failed", "error", err, "duration_seconds", duration.Seconds())
		return nil, fmt.Errorf("GET %s%s: %w", resource, subPath, err)
	}

	log.Debug("Cloudability API responded",
		"status", resp.StatusCode,
		"duration_seconds", duration.Seconds())
	return resp, nil
}

// redactURLError strips the query string, and with it the auth token, from
// the URL carried by a transport error
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		u.RawQuery = ""
		redacted.URL = u.String()
	} else {
		redacted.URL = ""
	}
	return &redacted
}

// fetchReport performs Fetch and wraps the decoded body in a Report
func (c *Client) fetchReport(ctx context.Context, resource, subPath string, params Params) (*Report, error) {
	resp, err := c.Fetch(ctx, resource, subPath, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	requestID := ""
	if resp.Request != nil {
		requestID = resp.Request.Header.Get(RequestIDHeader)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			RequestID:  requestID,
		}
	}

	if isErrorBody(body) {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			RequestID:  requestID,
		}
	}

	report, err := DecodeReport(body)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", resource, subPath, err)
	}
	return report, nil
}

// isErrorBody reports whether a 2xx body is the API's error envelope: a
// top-level object with a non-null "error" key
func isErrorBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	v, ok := NewEntry(trimmed).Lookup("error")
	return ok && v != nil
}

// endpoint binds a client to one resource family
type endpoint struct {
	client   *Client
	resource string
}

func (e endpoint) report(ctx context.Context, subPath string, params Params) (*Report, error) {
	return e.client.fetchReport(ctx, e.resource, subPath, params)
}
