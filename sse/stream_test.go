package sse

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// callbackRecorder collects stream callbacks for assertion.
type callbackRecorder struct {
	mu       sync.Mutex
	messages []any
	errors   []error
	opens    int32
	closes   int32
}

func (r *callbackRecorder) options() Options {
	return Options{
		OnMessage: func(data any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.messages = append(r.messages, data)
		},
		OnOpen: func() { atomic.AddInt32(&r.opens, 1) },
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, err)
		},
		OnClose: func() { atomic.AddInt32(&r.closes, 1) },
	}
}

func (r *callbackRecorder) seenMessages() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.messages...)
}

func (r *callbackRecorder) seenErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errors...)
}

func (r *callbackRecorder) closeCount() int32 { return atomic.LoadInt32(&r.closes) }

func writeSSE(t *testing.T, w nethttp.ResponseWriter, frames string) {
	t.Helper()
	_, err := fmt.Fprint(w, frames)
	require.NoError(t, err)
	w.(nethttp.Flusher).Flush()
}

func sseHeaders(w nethttp.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(nethttp.StatusOK)
}

func TestStreamDeliversEventsInOrder(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sseHeaders(w)
		writeSSE(t, w, "data: first\n\n")
		writeSSE(t, w, "data: {\"x\":1}\n\n")
		writeSSE(t, w, "data: line one\ndata: line two\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	stream := Open(context.Background(), server.URL, rec.options())
	defer stream.Close()

	require.Eventually(t, func() bool {
		return len(rec.seenMessages()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	messages := rec.seenMessages()
	assert.Equal(t, "first", messages[0], "non-JSON payloads stay raw strings")
	assert.Equal(t, map[string]any{"x": float64(1)}, messages[1], "JSON payloads are decoded")
	assert.Equal(t, "line one\nline two", messages[2], "multi-line data is joined with newlines")
	assert.EqualValues(t, 1, atomic.LoadInt32(&rec.opens))
}

func TestCloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sseHeaders(w)
		writeSSE(t, w, "data: hello\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	stream := Open(context.Background(), server.URL, rec.options())

	require.Eventually(t, func() bool {
		return len(rec.seenMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	g := new(errgroup.Group)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			stream.Close()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	stream.Close()

	assert.EqualValues(t, 1, rec.closeCount(), "OnClose fires exactly once")
	assert.Empty(t, rec.seenErrors(), "explicit close is silent")
}

func TestOpenWithCancelledContext(t *testing.T) {
	var dials int64
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		atomic.AddInt64(&dials, 1)
		sseHeaders(w)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &callbackRecorder{}
	stream := Open(ctx, server.URL, rec.options())

	// The failure is synchronous: both callbacks fired before Open returned.
	errs := rec.seenErrors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.EqualValues(t, 1, rec.closeCount())
	assert.EqualValues(t, 0, atomic.LoadInt64(&dials), "no connection is dialed")

	stream.Close()
	assert.EqualValues(t, 1, rec.closeCount())
}

func TestOpenWithoutMessageHandler(t *testing.T) {
	rec := &callbackRecorder{}
	opts := rec.options()
	opts.OnMessage = nil

	stream := Open(context.Background(), "http://127.0.0.1:0/events", opts)
	defer stream.Close()

	errs := rec.seenErrors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoMessageHandler)
	assert.EqualValues(t, 1, rec.closeCount())
}

func TestReconnectResumesWithLastEventID(t *testing.T) {
	var conns int64
	var lastEventID atomic.Value
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn := atomic.AddInt64(&conns, 1)
		if conn == 1 {
			sseHeaders(w)
			writeSSE(t, w, "id: 41\ndata: before drop\n\n")
			return // server drops the connection
		}
		lastEventID.Store(r.Header.Get("Last-Event-ID"))
		sseHeaders(w)
		writeSSE(t, w, "data: after drop\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	opts := rec.options()
	opts.Reconnect = true
	opts.ReconnectWait = 10 * time.Millisecond

	stream := Open(context.Background(), server.URL, opts)
	defer stream.Close()

	require.Eventually(t, func() bool {
		return len(rec.seenMessages()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []any{"before drop", "after drop"}, rec.seenMessages())
	assert.Equal(t, "41", lastEventID.Load(), "reconnect carries the last dispatched event id")
	assert.NotEmpty(t, rec.seenErrors(), "every broken stream fires OnError")
	assert.EqualValues(t, 2, atomic.LoadInt32(&rec.opens), "OnOpen fires per successful connection")
}

func TestFatalErrorWithoutReconnect(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	stream := Open(context.Background(), server.URL, rec.options())
	defer stream.Close()

	require.Eventually(t, func() bool {
		return rec.closeCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	errs := rec.seenErrors()
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "unexpected status 500")
}

func TestDeadlineTearsStreamDown(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sseHeaders(w)
		writeSSE(t, w, "data: tick\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	opts := rec.options()
	opts.Deadline = 100 * time.Millisecond

	stream := Open(context.Background(), server.URL, opts)
	defer stream.Close()

	require.Eventually(t, func() bool {
		return rec.closeCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	errs := rec.seenErrors()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], context.DeadlineExceeded)
	assert.Equal(t, []any{"tick"}, rec.seenMessages())
}

func TestUpstreamCancellationReportsCause(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sseHeaders(w)
		writeSSE(t, w, "data: tick\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rec := &callbackRecorder{}
	stream := Open(ctx, server.URL, rec.options())
	defer stream.Close()

	require.Eventually(t, func() bool {
		return len(rec.seenMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		return rec.closeCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	errs := rec.seenErrors()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], context.Canceled)
}

func TestWrongContentTypeIsAnError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	stream := Open(context.Background(), server.URL, rec.options())
	defer stream.Close()

	require.Eventually(t, func() bool {
		return rec.closeCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	errs := rec.seenErrors()
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "unexpected content type")
}

func TestCustomHeadersAreSent(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		got.Store(r.Header.Get("Authorization"))
		sseHeaders(w)
		writeSSE(t, w, "data: ok\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := &callbackRecorder{}
	opts := rec.options()
	opts.Headers = map[string]string{"Authorization": "Bearer token-123"}

	stream := Open(context.Background(), server.URL, opts)
	defer stream.Close()

	require.Eventually(t, func() bool {
		return len(rec.seenMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Bearer token-123", got.Load())
}
