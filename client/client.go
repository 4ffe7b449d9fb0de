package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-mortar/logger"
	"github.com/gaborage/go-mortar/trace"
)

const (
	// DefaultTimeout is the default per-attempt deadline
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries after the first
	// attempt
	DefaultMaxRetries = 2
)

// client implements the Client interface
type client struct {
	httpClient *nethttp.Client
	logger     logger.Logger
	config     *Config
	limiter    *rate.Limiter
	retryable  map[int]struct{}
	backoff    Backoff
	callCount  int64
}

func defaultConfig() *Config {
	return &Config{
		Timeout:               DefaultTimeout,
		MaxRetries:            DefaultMaxRetries,
		RetryOnTransportError: true,
		DefaultHeaders:        make(map[string]string),
		RequestIDHeader:       trace.HeaderXRequestID,
	}
}

// NewClient creates a new resilient REST client with default
// configuration: 30s per-attempt timeout, 2 retries with full-jitter
// exponential backoff, transport errors retried.
func NewClient(log logger.Logger) Client {
	return newClient(log, defaultConfig(), nil)
}

// NewFromConfig creates a client from an explicit configuration.
// Zero-value Timeout and nil Backoff/RetryableStatuses fall back to the
// defaults; MaxRetries and RetryOnTransportError are taken as given.
func NewFromConfig(log logger.Logger, cfg *Config) Client {
	if cfg == nil {
		return NewClient(log)
	}
	c := *cfg
	return newClient(log, &c, nil)
}

func newClient(log logger.Logger, cfg *Config, limiter *rate.Limiter) *client {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.DefaultHeaders == nil {
		cfg.DefaultHeaders = make(map[string]string)
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = ExponentialJitter(DefaultBackoffBase, DefaultBackoffCap)
	}
	statuses := cfg.RetryableStatuses
	if statuses == nil {
		statuses = DefaultRetryableStatuses()
	}
	retryable := make(map[int]struct{}, len(statuses))
	for _, code := range statuses {
		retryable[code] = struct{}{}
	}
	return &client{
		// Per-attempt deadlines are enforced through the request context,
		// so the underlying client carries no timeout of its own.
		httpClient: &nethttp.Client{},
		logger:     log,
		config:     cfg,
		limiter:    limiter,
		retryable:  retryable,
		backoff:    backoff,
	}
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config  *Config
	logger  logger.Logger
	limiter *rate.Limiter
}

// NewBuilder creates a new client builder with default configuration
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: log,
	}
}

// FromConfig seeds the builder from an explicit configuration.
func (b *Builder) FromConfig(cfg *Config) *Builder {
	if cfg != nil {
		c := *cfg
		b.config = &c
	}
	return b
}

// WithTimeout sets the per-attempt deadline
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithMaxRetries bounds retries after the first attempt
func (b *Builder) WithMaxRetries(maxRetries int) *Builder {
	b.config.MaxRetries = maxRetries
	return b
}

// WithBackoff sets the backoff policy
func (b *Builder) WithBackoff(backoff Backoff) *Builder {
	b.config.Backoff = backoff
	return b
}

// WithRetryableStatuses replaces the set of HTTP status codes that are
// retried
func (b *Builder) WithRetryableStatuses(statuses ...int) *Builder {
	b.config.RetryableStatuses = statuses
	return b
}

// WithRetryOnTransportError controls whether connection-level failures
// are retried
func (b *Builder) WithRetryOnTransportError(retry bool) *Builder {
	b.config.RetryOnTransportError = retry
	return b
}

// WithOnRetry registers an observer notified on every retry transition
func (b *Builder) WithOnRetry(observer RetryObserver) *Builder {
	b.config.OnRetry = observer
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{
		Username: username,
		Password: password,
	}
	return b
}

// WithDefaultHeader adds a default header that will be sent with all
// requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithRateLimit gates logical calls (not individual attempts) through a
// client-side token bucket. Zero or negative rps disables the limiter.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	if rps <= 0 {
		b.limiter = nil
		return b
	}
	if burst < 1 {
		burst = 1
	}
	b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

// WithRequestIDHeader sets the header used for request ID propagation.
// An empty name disables propagation.
func (b *Builder) WithRequestIDHeader(header string) *Builder {
	b.config.RequestIDHeader = header
	return b
}

// WithW3CTrace enables traceparent/tracestate propagation
func (b *Builder) WithW3CTrace() *Builder {
	b.config.EnableW3CTrace = true
	return b
}

// WithPayloadLogging enables debug-level logging of request and response
// payloads, capped at maxBytes per body
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	cfg := *b.config
	return newClient(b.logger, &cfg, b.limiter)
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do performs one logical HTTP operation with bounded retry, per-attempt
// deadlines, and cooperative cancellation.
//
// Outcomes map onto the error taxonomy: nil error with a *Response for
// success, an AbortError when the caller's context or the per-attempt
// deadline cut the call short, and an HTTPError/NetworkError otherwise.
// Non-success HTTP responses are returned alongside their HTTPError so
// callers can inspect the raw body.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewAbortError("cancelled while awaiting rate limiter", err)
		}
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	maxRetries := c.config.MaxRetries

	var lastErr ClientError
	for attempt := 0; ; attempt++ {
		// Cancellation observed before an attempt starts means no network
		// call is issued at all.
		if ctx.Err() != nil {
			return nil, NewAbortError("cancelled before attempt", context.Cause(ctx))
		}

		c.logRequest(method, req, attempt)

		resp, err := c.doAttempt(ctx, method, req)
		if err != nil {
			if isTerminalClientError(err) {
				return nil, err
			}
			if abortErr := c.classifyAbort(ctx, err); abortErr != nil {
				return nil, abortErr
			}
			lastErr = NewNetworkError(networkErrorMessage, err)
			if c.config.RetryOnTransportError && attempt < maxRetries {
				if abortErr := c.awaitRetry(ctx, attempt, lastErr); abortErr != nil {
					return nil, abortErr
				}
				continue
			}
			return nil, lastErr
		}

		// Cancellation wins over a response that arrived concurrently
		// with it.
		if ctx.Err() != nil {
			return nil, NewAbortError("request aborted", context.Cause(ctx))
		}

		if IsSuccessStatus(resp.StatusCode) {
			c.finishResponse(resp, start, attempt, callCount)
			c.logResponse(resp)
			return resp, nil
		}

		lastErr = NewHTTPError(resolveErrorMessage(resp.StatusCode, resp.Body), resp.StatusCode, resp.Body)
		if c.isRetryableStatus(resp.StatusCode) && attempt < maxRetries {
			if abortErr := c.awaitRetry(ctx, attempt, lastErr); abortErr != nil {
				return nil, abortErr
			}
			continue
		}

		c.finishResponse(resp, start, attempt, callCount)
		c.logResponse(resp)
		return resp, lastErr
	}
}

// doAttempt issues a single attempt under a fresh deadline derived from
// the caller's context. The deadline timer is released on every settle
// path via the deferred cancel.
func (c *client) doAttempt(ctx context.Context, method string, req *Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := c.buildRequest(attemptCtx, method, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	return c.buildResponse(attemptCtx, httpReq, httpResp)
}

// awaitRetry notifies the retry observer and sleeps out the backoff
// delay for the given attempt index. It returns an AbortError when the
// caller's context is cancelled mid-sleep.
func (c *client) awaitRetry(ctx context.Context, attempt int, cause error) error {
	retry := attempt + 1
	if c.config.OnRetry != nil {
		c.config.OnRetry(retry, cause)
	}

	delay := c.backoff(attempt)
	c.logger.Warn().
		Err(cause).
		Int("retry", retry).
		Dur("backoff", delay).
		Msg("REST client retrying request")

	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return NewAbortError("cancelled during backoff", context.Cause(ctx))
	case <-timer.C:
		return nil
	}
}

// classifyAbort maps a transport failure onto the abort outcome when it
// is attributable to cancellation: the caller's context fired, or the
// per-attempt deadline elapsed. Returns nil for genuine network failures.
func (c *client) classifyAbort(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return NewAbortError("request aborted", context.Cause(ctx))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewAbortError("attempt deadline exceeded", context.DeadlineExceeded)
	}
	if errors.Is(err, context.Canceled) {
		return NewAbortError("request aborted", context.Canceled)
	}
	return nil
}

func (c *client) isRetryableStatus(code int) bool {
	_, ok := c.retryable[code]
	return ok
}

// isTerminalClientError reports whether the error must never be retried
// regardless of budget.
func isTerminalClientError(err error) bool {
	return IsErrorType(err, ValidationError) || IsErrorType(err, InterceptorError)
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

// applyHeaders applies headers to the HTTP request
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	// Request-specific headers override defaults
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get("Content-Type") == "" && req.Body != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
}

// applyAuth applies authentication to the HTTP request
func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	auth := req.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}
	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}
}

// applyTraceHeaders injects request correlation headers unless the
// request already carries them.
func (c *client) applyTraceHeaders(ctx context.Context, httpReq *nethttp.Request) {
	if c.config.RequestIDHeader != "" && httpReq.Header.Get(c.config.RequestIDHeader) == "" {
		httpReq.Header.Set(c.config.RequestIDHeader, trace.EnsureRequestID(ctx))
	}
	if c.config.EnableW3CTrace {
		if httpReq.Header.Get(trace.HeaderTraceParent) == "" {
			traceParent, ok := trace.ParentFromContext(ctx)
			if !ok {
				traceParent = trace.GenerateTraceParent()
			}
			httpReq.Header.Set(trace.HeaderTraceParent, traceParent)
		}
		if traceState, ok := trace.StateFromContext(ctx); ok && httpReq.Header.Get(trace.HeaderTraceState) == "" {
			httpReq.Header.Set(trace.HeaderTraceState, traceState)
		}
	}
}

// buildRequest constructs an *http.Request, applies headers, auth, and
// trace propagation, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method string, req *Request) (*nethttp.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "url")
	}

	c.applyHeaders(httpReq, req)
	c.applyAuth(httpReq, req)
	c.applyTraceHeaders(ctx, httpReq)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads the body, and builds a
// Response. The body is fully read before the attempt deadline is
// released by the caller.
func (c *client) buildResponse(ctx context.Context, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

func (c *client) finishResponse(resp *Response, start time.Time, attempt int, callCount int64) {
	resp.Stats = Stats{
		ElapsedTime: time.Since(start),
		Attempts:    attempt + 1,
		CallCount:   callCount,
	}
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.config.RequestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.config.ResponseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// logRequest logs the outgoing request
func (c *client) logRequest(method string, req *Request, attempt int) {
	logEvent := c.logger.Info().
		Str("direction", "outbound").
		Str("method", method).
		Str("url", req.URL)

	if attempt > 0 {
		logEvent = logEvent.Int("attempt", attempt+1)
	}
	logEvent.Msg("REST client request")

	if c.config.LogPayloads {
		debugEvent := c.logger.Debug().
			Str("method", method).
			Str("url", req.URL)
		if len(req.Headers) > 0 {
			debugEvent = debugEvent.Interface("headers", req.Headers)
		}
		if len(req.Body) > 0 {
			debugEvent = debugEvent.Bytes("body", truncatePayload(req.Body, c.config.MaxPayloadLogBytes))
		}
		debugEvent.Msg("REST client request payload")
	}
}

// logResponse logs the incoming response
func (c *client) logResponse(resp *Response) {
	c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int("attempts", resp.Stats.Attempts).
		Int64("call_count", resp.Stats.CallCount).
		Msg("REST client response")

	if c.config.LogPayloads && len(resp.Body) > 0 {
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Bytes("body", truncatePayload(resp.Body, c.config.MaxPayloadLogBytes)).
			Msg("REST client response payload")
	}
}

func truncatePayload(body []byte, maxBytes int) []byte {
	if maxBytes <= 0 || len(body) <= maxBytes {
		return body
	}
	return body[:maxBytes]
}
