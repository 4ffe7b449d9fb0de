package config

import "time"

// Config is the root configuration of the library, assembled by the
// caller's composition root and passed into the client and stream
// constructors. Components never reach for module-level defaults.
type Config struct {
	Client ClientConfig `koanf:"client"`
	Stream StreamConfig `koanf:"stream"`
	Log    LogConfig    `koanf:"log"`
}

// ClientConfig configures the resilient request client.
type ClientConfig struct {
	// Timeout is the per-attempt deadline.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	// MaxRetries bounds retries after the first attempt.
	MaxRetries int `koanf:"max_retries" validate:"gte=0"`
	// BackoffBase and BackoffCap shape the exponential backoff curve.
	BackoffBase time.Duration `koanf:"backoff_base" validate:"gte=0"`
	BackoffCap  time.Duration `koanf:"backoff_cap" validate:"gte=0"`
	// BackoffJitter draws each delay uniformly from [0, delay).
	BackoffJitter bool `koanf:"backoff_jitter"`
	// RetryOnTransportError retries connection-level failures.
	RetryOnTransportError bool `koanf:"retry_on_transport_error"`
	// RetryableStatuses are the HTTP status codes that are retried.
	RetryableStatuses []int `koanf:"retryable_statuses" validate:"dive,gte=100,lte=599"`

	// RateLimit caps logical calls per second client-side; zero disables
	// the limiter. RateBurst is the token bucket size.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`

	// RequestIDHeader names the request correlation header; empty
	// disables propagation.
	RequestIDHeader string `koanf:"request_id_header"`
	// EnableW3CTrace enables traceparent/tracestate propagation.
	EnableW3CTrace bool `koanf:"w3c_trace"`

	// LogPayloads enables debug-level payload logging, capped at
	// MaxPayloadLogBytes per body.
	LogPayloads        bool `koanf:"log_payloads"`
	MaxPayloadLogBytes int  `koanf:"max_payload_log_bytes" validate:"gte=0"`
}

// StreamConfig configures SSE subscriptions.
type StreamConfig struct {
	// Deadline bounds a whole subscription; zero means no deadline.
	Deadline time.Duration `koanf:"deadline" validate:"gte=0"`
	// Reconnect redials broken streams.
	Reconnect bool `koanf:"reconnect"`
	// ReconnectWait is the delay before redialling, unless the server
	// supplies a retry hint.
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"gte=0"`
}

// LogConfig configures the zerolog-backed logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}
