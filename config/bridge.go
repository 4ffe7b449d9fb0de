package config

import (
	"github.com/gaborage/go-mortar/client"
	"github.com/gaborage/go-mortar/logger"
	"github.com/gaborage/go-mortar/sse"
)

// NewLogger builds the zerolog-backed logger described by the
// configuration.
func (c *Config) NewLogger() logger.Logger {
	return logger.New(c.Log.Level, c.Log.Pretty)
}

// NewClient builds a resilient request client from the configuration.
func (c *Config) NewClient(log logger.Logger) client.Client {
	cc := c.Client
	b := client.NewBuilder(log).
		WithTimeout(cc.Timeout).
		WithMaxRetries(cc.MaxRetries).
		WithBackoff(cc.Backoff()).
		WithRetryOnTransportError(cc.RetryOnTransportError).
		WithRetryableStatuses(cc.RetryableStatuses...).
		WithRequestIDHeader(cc.RequestIDHeader)

	if cc.EnableW3CTrace {
		b = b.WithW3CTrace()
	}
	if cc.LogPayloads {
		b = b.WithPayloadLogging(cc.MaxPayloadLogBytes)
	}
	if cc.RateLimit > 0 {
		b = b.WithRateLimit(cc.RateLimit, cc.RateBurst)
	}
	return b.Build()
}

// Backoff returns the backoff policy described by the configuration.
func (c ClientConfig) Backoff() client.Backoff {
	if c.BackoffJitter {
		return client.ExponentialJitter(c.BackoffBase, c.BackoffCap)
	}
	return client.Exponential(c.BackoffBase, c.BackoffCap)
}

// StreamOptions seeds sse.Options from the configuration. Callbacks and
// headers are filled in by the caller.
func (c *Config) StreamOptions() sse.Options {
	return sse.Options{
		Deadline:      c.Stream.Deadline,
		Reconnect:     c.Stream.Reconnect,
		ReconnectWait: c.Stream.ReconnectWait,
	}
}
