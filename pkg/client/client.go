// Package client provides the core Honeycomb HTTP client with rate-limit
// retry, metadata caching, and error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hny-community/honeycomb-client/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public Honeycomb API root.
const DefaultBaseURL = "https://api.honeycomb.io/1/"

// teamHeader carries the API key on every request.
const teamHeader = "X-Honeycomb-Team"

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "honeycomb_requests_total",
		Help: "Total Honeycomb API requests by path and status",
	}, []string{"path", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "honeycomb_request_duration_seconds",
		Help:    "Honeycomb API request duration in seconds by path",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"path"})

	apiDecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honeycomb_decode_errors_total",
		Help: "Total responses that failed JSON decoding",
	})
)

// Response is the outcome of a single HTTP exchange. The body is fully read
// so it can be decoded, cached, or embedded in diagnostics without further I/O.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs a single HTTP request. Implementations must be safe for
// concurrent use; one Transport is shared by every fetch the orchestrators
// spawn. Rate-limit responses (429) must be passed through undisturbed so the
// retry layer can recognize them.
type Transport interface {
	Do(ctx context.Context, method, path string, body []byte) (*Response, error)
}

// httpTransport is the default Transport backed by net/http.
type httpTransport struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

func (t *httpTransport) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(teamHeader, t.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body for %s: %w", path, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// Client is the Honeycomb API client.
type Client struct {
	transport Transport
	cache     *cache.Manager
	config    Config
	logger    zerolog.Logger
}

// Config holds the client configuration. The numeric budgets are policy
// constants in production; tests shrink them for fast, deterministic runs.
type Config struct {
	// APIKey is sent as the X-Honeycomb-Team header (REQUIRED).
	APIKey string

	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent identifies the application to the API.
	UserAgent string

	// Retry policy for rate-limited (429) mutating requests.
	RetryBudget  int           // Attempts before giving up
	RetryBackoff time.Duration // Fixed wait between attempts

	// Cache is an optional metadata cache for GET listings. Nil disables caching.
	Cache *cache.Manager

	// Transport overrides the default HTTP transport (for testing).
	Transport Transport

	// Timeout for a single HTTP exchange.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:       apiKey,
		BaseURL:      DefaultBaseURL,
		UserAgent:    "honeycomb-client/0.1.0",
		RetryBudget:  12,
		RetryBackoff: 5 * time.Second,
		Timeout:      30 * time.Second,
	}
}

// New creates a new Honeycomb API client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.Transport == nil {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "honeycomb-client/0.1.0"
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = 12
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &httpTransport{
			httpClient: &http.Client{Timeout: cfg.Timeout},
			baseURL:    cfg.BaseURL,
			apiKey:     cfg.APIKey,
			userAgent:  cfg.UserAgent,
		}
	}

	return &Client{
		transport: transport,
		cache:     cfg.Cache,
		config:    cfg,
		logger:    log.With().Str("component", "honeycomb-client").Logger(),
	}, nil
}

// Get performs a GET request. Listings are served from the metadata cache
// when one is configured; cache errors fall back to a direct request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.get(ctx, path, true)
}

// GetFresh performs a GET request that bypasses the metadata cache. Poll
// loops use it: caching an in-progress query result would freeze its
// completion flag.
func (c *Client) GetFresh(ctx context.Context, path string) (*Response, error) {
	return c.get(ctx, path, false)
}

func (c *Client) get(ctx context.Context, path string, useCache bool) (*Response, error) {
	start := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}()

	if useCache && c.cache != nil {
		if body, err := c.cache.Get(ctx, path); err == nil {
			c.logger.Debug().Str("path", path).Msg("Metadata cache hit")
			return &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body}, nil
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("path", path).Msg("Cache get error")
		}
	}

	resp, err := c.transport.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		apiRequestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, err
	}
	apiRequestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if useCache && c.cache != nil && resp.StatusCode == http.StatusOK {
		if err := c.cache.Set(ctx, path, resp.Body); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("Failed to cache listing")
		}
	}

	return resp, nil
}

// Post performs a state-changing request with the rate-limit retry loop (see retry.go).
func (c *Client) Post(ctx context.Context, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body for %s: %w", path, err)
	}
	return c.postWithRetry(ctx, path, body)
}

// GetJSON performs a GET request and decodes the body into T.
func GetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	resp, err := c.Get(ctx, path)
	if err != nil {
		return zero, err
	}
	return Decode[T](resp)
}

// PostJSON performs a retrying POST request and decodes the body into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	var zero T
	resp, err := c.Post(ctx, path, payload)
	if err != nil {
		return zero, err
	}
	return Decode[T](resp)
}

// Decode parses a response body as JSON into T. Parse failures keep the raw
// status, headers, and body for diagnosis; they indicate schema drift, not a
// transient condition, and are never retried.
func Decode[T any](resp *Response) (T, error) {
	var value T
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		apiDecodeErrorsTotal.Inc()
		var zero T
		return zero, &DecodeError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       string(resp.Body),
			Err:        err,
		}
	}
	return value, nil
}
