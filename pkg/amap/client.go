package amap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 10 << 20

// ClientConfig configures the Invoker.
type ClientConfig struct {
	BaseURL   string
	Key       string
	UserAgent string

	Timeout                time.Duration // overall per-attempt timeout
	ConnectTimeout         time.Duration
	ReadTimeout            time.Duration // response header timeout
	IdleTimeout            time.Duration
	MaxConnections         int
	MaxConnectionsPerRoute int

	// Endpoints overrides the default path table when non-nil.
	Endpoints Endpoints
	Retry     RetryPolicy
	RateLimit RateLimitConfig
}

// DefaultClientConfig returns the production defaults without a key.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:                DefaultBaseURL,
		UserAgent:              DefaultUserAgent,
		Timeout:                30 * time.Second,
		ConnectTimeout:         10 * time.Second,
		ReadTimeout:            30 * time.Second,
		IdleTimeout:            5 * time.Minute,
		MaxConnections:         100,
		MaxConnectionsPerRoute: 20,
		Endpoints:              DefaultEndpoints(),
		Retry:                  DefaultRetryPolicy(),
		RateLimit:              DefaultRateLimitConfig(),
	}
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the pooled HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the instruments the client records to.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client invokes Amap operations with rate limiting, retries and error
// classification. It is safe for concurrent use.
type Client struct {
	baseURL   string
	key       string
	userAgent string
	endpoints Endpoints
	retry     RetryPolicy
	limiter   *RateLimiter
	http      *http.Client
	logger    *slog.Logger
	metrics   *Metrics
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: err.Error()}
	}
	if isBlank(cfg.Key) {
		return nil, &Error{Kind: KindConfig, Message: "access key must not be empty"}
	}

	limiter, err := NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	endpoints := cfg.Endpoints
	if endpoints == nil {
		endpoints = DefaultEndpoints()
	}

	c := &Client{
		baseURL:   base,
		key:       strings.TrimSpace(cfg.Key),
		userAgent: cfg.UserAgent,
		endpoints: endpoints,
		retry:     cfg.Retry,
		limiter:   limiter,
		logger:    slog.Default(),
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(cfg)
	}

	return c, nil
}

func parseBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL must be http or https: %q", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL has no host: %q", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// newHTTPClient builds the pooled transport wrapped for OpenTelemetry.
func newHTTPClient(cfg ClientConfig) *http.Client {
	defaults := DefaultClientConfig()
	pick := func(v, def time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return v
	}
	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = defaults.MaxConnections
	}
	perRoute := cfg.MaxConnectionsPerRoute
	if perRoute <= 0 {
		perRoute = defaults.MaxConnectionsPerRoute
	}

	dialer := &net.Dialer{
		Timeout:   pick(cfg.ConnectTimeout, defaults.ConnectTimeout),
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          maxConns,
		MaxConnsPerHost:       perRoute,
		MaxIdleConnsPerHost:   perRoute,
		IdleConnTimeout:       pick(cfg.IdleTimeout, defaults.IdleTimeout),
		ResponseHeaderTimeout: pick(cfg.ReadTimeout, defaults.ReadTimeout),
		TLSHandshakeTimeout:   10 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   pick(cfg.Timeout, defaults.Timeout),
	}
}

// Key returns the access key merged into every parameter map.
func (c *Client) Key() string {
	return c.key
}

// Invoke performs op with params and returns the successful envelope. The
// rate limiter is consulted once per call; retries do not take new tokens.
func (c *Client) Invoke(ctx context.Context, op Operation, params map[string]string) (*RawResponse, error) {
	path, ok := c.endpoints.Path(op)
	if !ok {
		return nil, &Error{Kind: KindConfig, Op: op, Message: "no endpoint configured"}
	}
	logger := c.logger.With("operation", op)

	if err := c.limiter.Allow(op); err != nil {
		c.metrics.recordRejection(ctx, op)
		logger.Warn("request rejected by rate limiter", "error", err)
		return nil, err
	}

	query := toValues(params)
	if _, ok := query[KeyParam]; !ok {
		query.Set(KeyParam, c.key)
	}
	endpoint := c.baseURL + path

	policy := c.retry
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("retrying provider call", "attempt", attempt, "delay", delay, "error", err)
		c.metrics.recordRetry(ctx, op)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}

	start := time.Now()
	var raw *RawResponse
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		logger.Debug("calling provider", "path", path, "attempt", attempt)
		r, err := c.do(ctx, op, endpoint, query)
		if err != nil {
			return err
		}
		raw = r
		return nil
	})
	c.metrics.recordRequest(ctx, op, time.Since(start), err)

	if err != nil {
		if KindOf(err) == KindApplication {
			logger.Warn("provider returned failure status", "error", err)
		} else {
			logger.Error("provider call failed", "error", err)
		}
		return nil, err
	}
	return raw, nil
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, op Operation, endpoint string, query url.Values) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: op, Message: "building request", Err: stripURL(err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, transportError(ctx, op, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &Error{Kind: KindServer, Op: op, StatusCode: resp.StatusCode, Message: statusMessage(resp, body)}
	case resp.StatusCode >= 400:
		return nil, &Error{Kind: KindClient, Op: op, StatusCode: resp.StatusCode, Message: statusMessage(resp, body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &Error{Kind: KindClient, Op: op, StatusCode: resp.StatusCode, Message: "unexpected status " + resp.Status}
	}

	if len(body) > maxBodyBytes {
		return nil, &Error{Kind: KindDecode, Op: op, Message: fmt.Sprintf("response body exceeds %d bytes", maxBodyBytes)}
	}

	raw, err := parseRawResponse(body)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, Message: "malformed response body", Err: err}
	}
	if !raw.OK() {
		msg := raw.Info
		if msg == "" {
			msg = "provider status " + raw.Status
		}
		return nil, &Error{Kind: KindApplication, Op: op, InfoCode: raw.InfoCode, Message: msg}
	}

	return raw, nil
}

// transportError classifies a failed round trip. Errors caused by the
// caller's context are not transport failures.
func transportError(ctx context.Context, op Operation, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Kind: KindCanceled, Op: op, Message: "request canceled", Err: ctxErr}
	}
	return &Error{Kind: KindTransport, Op: op, Message: "request failed", Err: stripURL(err)}
}

// stripURL drops the request URL, which carries the access key, from err.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

func statusMessage(resp *http.Response, body []byte) string {
	const maxSnippet = 200
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	if snippet == "" {
		return resp.Status
	}
	return resp.Status + ": " + snippet
}
