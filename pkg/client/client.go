// Package client provides the HTTP client for the education directory API
// with timeouts, optional retries, response caching, and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/school-directory-crawler/pkg/cache"
	"github.com/Sternrassler/school-directory-crawler/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for upstream requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_upstream_requests_total",
		Help: "Total upstream requests by request kind and status",
	}, []string{"kind", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawler_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by request kind",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// DefaultBaseURL is the public directory API root.
const DefaultBaseURL = "https://api.data.belajar.id/data-portal-backend/v1/master-data/"

// ResponseCache stores successful responses between runs.
// *cache.Manager implements it.
type ResponseCache interface {
	Get(ctx context.Context, key cache.CacheKey) (*cache.CacheEntry, error)
	Set(ctx context.Context, key cache.CacheKey, entry *cache.CacheEntry) error
	TTL() time.Duration
}

// Config holds the client configuration.
type Config struct {
	// BaseURL every request path is resolved against (REQUIRED)
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout per request. 0 disables the timeout.
	Timeout time.Duration

	// Retry policy for network and 5xx failures
	Retry RetryConfig

	// Cache is optional; nil disables caching
	Cache ResponseCache

	// Logger receives request-level logs
	Logger zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   2 * time.Minute,
		Retry:     DefaultRetryConfig(),
		Logger:    zerolog.Nop(),
	}
}

// Request describes one upstream GET.
type Request struct {
	// Kind labels metrics and logs ("subarea", "list", "metadata", "detail")
	Kind string

	// Path relative to the base URL
	Path string

	// Query parameters
	Query url.Values
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode  int
	Status      string
	Proto       string
	ContentType string
	URL         string
	Body        []byte
	FromCache   bool
}

// StatusLine returns e.g. "HTTP/1.1 404 Not Found".
func (r *Response) StatusLine() string {
	proto := r.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	status := r.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
	}
	return proto + " " + status
}

// Client is the directory API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	base       *url.URL
	config     Config
	logger     zerolog.Logger
}

// New creates a new directory API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		base:   base,
		config: cfg,
		logger: logging.WithComponent(cfg.Logger, "directory-client"),
	}, nil
}

// URL resolves a request to an absolute URL.
func (c *Client) URL(req Request) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(req.Path, "/")})
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

// Get performs the request and reads the whole body.
//
// Any status is returned as a Response; interpreting it is up to the caller.
// Failures to obtain a response at all are returned as *TransportError.
// With retries enabled, network errors and 5xx responses are retried; if all
// attempts return 5xx the last response is returned.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	target := c.URL(req)
	key := cache.CacheKey{Endpoint: req.Path, QueryParams: req.Query}

	if c.config.Cache != nil {
		entry, err := c.config.Cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("kind", req.Kind).Str("url", target).Msg("Cache hit")
			requestsTotal.WithLabelValues(req.Kind, "cache").Inc()
			return &Response{
				StatusCode:  entry.StatusCode,
				Status:      entry.Status,
				Proto:       entry.Proto,
				ContentType: entry.ContentType,
				URL:         target,
				Body:        entry.Data,
				FromCache:   true,
			}, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("url", target).Msg("Cache get error")
		}
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(req.Kind).Observe(time.Since(startTime).Seconds())
	}()

	var resp *Response
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		r, err := c.do(ctx, req.Kind, target)
		if err != nil {
			return err
		}
		resp = r
		if r.StatusCode >= 500 {
			return &StatusError{
				URL:        target,
				StatusCode: r.StatusCode,
				Status:     r.Status,
				ErrorClass: ErrorClassServer,
			}
		}
		return nil
	}, classify)

	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && resp != nil {
			return resp, nil
		}
		return nil, err
	}

	if c.config.Cache != nil && resp.StatusCode == http.StatusOK {
		entry := cache.NewEntry(resp.StatusCode, resp.Status, resp.Proto, resp.ContentType, resp.Body, c.config.Cache.TTL())
		if err := c.config.Cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("url", target).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, kind, target string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().Str("kind", kind).Str("url", target).Msg("Executing upstream request")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(kind, "network_error").Inc()
		c.logger.Error().Err(err).Str("url", target).Msg("HTTP request failed")
		return nil, &TransportError{URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(kind, "network_error").Inc()
		return nil, &TransportError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	requestsTotal.WithLabelValues(kind, strconv.Itoa(httpResp.StatusCode)).Inc()
	if class := classifyStatus(httpResp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		Status:      httpResp.Status,
		Proto:       httpResp.Proto,
		ContentType: httpResp.Header.Get("Content-Type"),
		URL:         target,
		Body:        body,
	}, nil
}

// classify maps an attempt error to its error class.
func classify(err error) ErrorClass {
	var se *StatusError
	if errors.As(err, &se) {
		return se.ErrorClass
	}
	if errors.Is(err, context.Canceled) {
		return ""
	}
	if IsTransport(err) {
		return ErrorClassNetwork
	}
	return ""
}

// classifyStatus categorizes a status code. Success statuses have no class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
