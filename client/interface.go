package client

import (
	"context"
	nethttp "net/http"
	"time"
)

// Client defines the resilient REST client interface for making HTTP
// requests.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request represents an HTTP request with all necessary data
type Request struct {
	URL     string
	Headers map[string]string
	Body    []byte
	Auth    *BasicAuth
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
	CallCount   int64
}

// BasicAuth contains basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// RequestInterceptor is called before sending each attempt of a request.
// An interceptor error is terminal and is never retried.
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving a response, before the
// body is read.
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// RetryObserver is notified once per retry transition, before the
// backoff sleep. retry is 1-based and strictly increasing within a
// call; err is the failure that triggered the retry.
type RetryObserver func(retry int, err error)

// Config holds the resilient client configuration.
type Config struct {
	// Timeout is the per-attempt deadline. Each attempt gets a fresh
	// deadline composed with the caller's context.
	Timeout time.Duration
	// MaxRetries bounds the number of retries after the first attempt,
	// so a call makes at most MaxRetries+1 attempts.
	MaxRetries int
	// Backoff maps a 0-based attempt index to the delay before the next
	// attempt. Nil uses ExponentialJitter with the default base and cap.
	Backoff Backoff
	// RetryOnTransportError controls whether connection-level failures
	// (as opposed to HTTP status failures) are retried.
	RetryOnTransportError bool
	// RetryableStatuses enumerates the HTTP status codes that are
	// retried. Nil uses DefaultRetryableStatuses.
	RetryableStatuses []int
	// OnRetry, when set, observes every retry transition.
	OnRetry RetryObserver

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	BasicAuth            *BasicAuth
	DefaultHeaders       map[string]string

	// RequestIDHeader, when non-empty, carries the context request ID on
	// every outbound request (typically X-Request-ID).
	RequestIDHeader string
	// EnableW3CTrace enables traceparent/tracestate propagation.
	EnableW3CTrace bool

	// LogPayloads enables debug-level logging of headers and body payloads.
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when
	// LogPayloads is enabled.
	MaxPayloadLogBytes int
}
