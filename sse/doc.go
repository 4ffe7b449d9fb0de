// Package sse provides a client for server-sent-event subscriptions
// with the same cancellation discipline as the request client.
//
// A subscription owns one reader goroutine. Events are delivered to
// OnMessage in arrival order with no buffering or batching; payloads are
// JSON-decoded on a best-effort basis with raw-string fallback.
//
// Reconnection policy: when Options.Reconnect is set, every failed
// connection attempt and every broken stream fires OnError, then the
// client waits the reconnect delay (the server's "retry:" hint wins over
// the configured wait) and redials, carrying the Last-Event-ID of the
// last dispatched event. Consecutive failures are not coalesced. When
// Reconnect is unset, the first failure tears the stream down.
//
// Teardown fires OnClose exactly once. An explicit Close is silent;
// context cancellation and deadline expiry report the context cause
// through OnError first.
package sse
