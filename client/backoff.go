package client

import (
	crand "crypto/rand"
	"math/big"
	"time"
)

const (
	// DefaultBackoffBase is the default base delay between retries.
	DefaultBackoffBase = 1 * time.Second
	// DefaultBackoffCap is the default upper bound on a single backoff
	// delay.
	DefaultBackoffCap = 30 * time.Second

	// maxBackoffShift caps the exponent to avoid overflow when computing
	// the multiplier (2^20 = 1,048,576).
	maxBackoffShift = 20
)

// Backoff maps a 0-based attempt index to the delay inserted before the
// next attempt. Implementations used as defaults must tolerate any
// non-negative attempt index.
type Backoff func(attempt int) time.Duration

// Exponential returns a deterministic exponential backoff:
// delay = base * 2^attempt, capped at maxDelay. Being a pure function of
// the attempt index, it is the policy of choice for tests.
func Exponential(base, maxDelay time.Duration) Backoff {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = DefaultBackoffCap
	}
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		if attempt > maxBackoffShift {
			attempt = maxBackoffShift
		}
		d := base * time.Duration(1<<attempt)
		if d > maxDelay || d <= 0 {
			d = maxDelay
		}
		return d
	}
}

// ExponentialJitter returns an exponential backoff with full jitter: the
// delay is drawn uniformly from [0, base*2^attempt), capped at maxDelay.
// Jitter spreads retry storms from concurrent callers.
func ExponentialJitter(base, maxDelay time.Duration) Backoff {
	exp := Exponential(base, maxDelay)
	return func(attempt int) time.Duration {
		d := exp(attempt)
		if d <= 0 {
			return 0
		}
		n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
		if err != nil {
			// On RNG failure, fall back to the full delay
			return d
		}
		return time.Duration(n.Int64())
	}
}

// NoBackoff retries immediately. Intended for tests.
func NoBackoff() Backoff {
	return func(int) time.Duration { return 0 }
}
