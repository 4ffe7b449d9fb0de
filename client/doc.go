// Package client provides a resilient HTTP client with bounded retry,
// per-attempt deadlines, and cooperative cancellation.
//
// Retries
//   - A call makes at most MaxRetries+1 sequential attempts; attempt N+1
//     never starts before attempt N has settled.
//   - Retries occur on transport errors (when RetryOnTransportError is
//     set) and on the configured retryable HTTP statuses, by default
//     408, 429, 502, 503, and 504.
//   - Cancellation is never retried: a caller context cancel or an
//     elapsed per-attempt deadline ends the call with an AbortError,
//     regardless of remaining budget.
//   - The OnRetry observer fires once per retry transition, before the
//     backoff sleep, with 1-based strictly increasing retry numbers.
//
// Deadlines and cancellation
//   - Each attempt runs under a fresh context.WithTimeout derived from
//     the caller's context; the deadline timer is released when the
//     attempt settles, on every path.
//   - Cancellation observed before an attempt starts short-circuits the
//     call without issuing a network request. Cancellation during the
//     backoff sleep abandons all further attempts.
//   - Callers branch on IsAbort first (user cancelled, usually a silent
//     no-op), then inspect the error, else consume the response.
//
// Backoff
//   - The delay is a policy function of the 0-based attempt index.
//     Exponential is pure and deterministic; ExponentialJitter draws the
//     delay uniformly from [0, base*2^attempt) and is the default.
//
// Errors
//   - Every failure is a typed ClientError; Do never panics. Terminal
//     HTTP failures carry the status code and a human-readable message
//     resolved from the body's "error"/"message" JSON field, falling
//     back to a status-keyed message table.
//
// Request bodies are re-sent by rebuilding the http.Request on each
// attempt. Interceptor errors are not retried and surface immediately.
package client
