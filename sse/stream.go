package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaborage/go-mortar/logger"
)

const (
	// DefaultReconnectWait is the delay before redialling a broken
	// stream, unless the server supplied a retry hint.
	DefaultReconnectWait = 3 * time.Second

	contentTypeEventStream = "text/event-stream"
)

// ErrNoMessageHandler is reported when Open is called without an
// OnMessage callback.
var ErrNoMessageHandler = errors.New("sse: OnMessage handler is required")

// Options configures a stream subscription.
type Options struct {
	// Deadline bounds the whole subscription; zero means no deadline.
	Deadline time.Duration
	// Headers are added to every (re)connection request.
	Headers map[string]string
	// LastEventID seeds the Last-Event-ID header on the first connect.
	LastEventID string

	// Reconnect redials broken streams after ReconnectWait (or the
	// server's retry hint). When false the first failure is fatal.
	Reconnect bool
	// ReconnectWait overrides DefaultReconnectWait when positive.
	ReconnectWait time.Duration

	// OnMessage receives every event's payload in arrival order,
	// JSON-decoded when possible, raw string otherwise. Required.
	OnMessage func(data any)
	// OnOpen fires after each successful (re)connection.
	OnOpen func()
	// OnError fires once per failed connection attempt or broken stream;
	// reconnection does not coalesce consecutive failures.
	OnError func(err error)
	// OnClose fires exactly once, when the stream is torn down for any
	// reason.
	OnClose func()

	// HTTPClient overrides the transport. The default carries no global
	// timeout, as required for long-lived streaming responses.
	HTTPClient *nethttp.Client
	// Logger receives stream lifecycle events. Nil discards them.
	Logger logger.Logger
}

// Stream is one live SSE subscription.
type Stream struct {
	opts   Options
	log    logger.Logger
	client *nethttp.Client
	url    string

	ctx      context.Context
	cancel   context.CancelFunc
	explicit atomic.Bool
	once     sync.Once

	// reader-goroutine state
	parser      frameParser
	lastEventID string
	retryHint   time.Duration
}

// Open subscribes to an SSE endpoint and starts delivering events
// through the callbacks in Options. It never returns an error: failure
// paths are reported through OnError, mirroring how the request client
// funnels every outcome into its result.
//
// If ctx is already cancelled, no connection is dialed and OnError then
// OnClose fire synchronously before Open returns. The same synchronous
// teardown happens when OnMessage is missing.
//
// All OnOpen/OnMessage/OnError callbacks are invoked from a single
// reader goroutine, so event delivery is strictly FIFO. OnClose is
// invoked exactly once, from the reader goroutine or from the goroutine
// calling Close, whichever tears the stream down first.
func Open(ctx context.Context, url string, opts Options) *Stream {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	s := &Stream{
		opts:        opts,
		log:         log,
		url:         url,
		lastEventID: opts.LastEventID,
	}
	s.client = opts.HTTPClient
	if s.client == nil {
		s.client = &nethttp.Client{}
	}

	if err := ctx.Err(); err != nil {
		return s.failBeforeOpen(context.Cause(ctx))
	}
	if opts.OnMessage == nil {
		return s.failBeforeOpen(ErrNoMessageHandler)
	}

	if opts.Deadline > 0 {
		s.ctx, s.cancel = context.WithTimeout(ctx, opts.Deadline)
	} else {
		s.ctx, s.cancel = context.WithCancel(ctx)
	}

	go s.run()
	return s
}

// Close tears the stream down: the live connection and any deadline
// timer are released and OnClose fires if it has not already. Close is
// idempotent and safe to call from any goroutine, even if the
// connection never opened.
func (s *Stream) Close() {
	s.explicit.Store(true)
	if s.cancel != nil {
		s.cancel()
	}
	s.fireClose()
}

// failBeforeOpen reports a synchronous pre-connection failure and
// returns the already-closed stream.
func (s *Stream) failBeforeOpen(err error) *Stream {
	s.cancel = func() {}
	s.emitError(err)
	s.fireClose()
	return s
}

func (s *Stream) fireClose() {
	s.once.Do(func() {
		if s.opts.OnClose != nil {
			s.opts.OnClose()
		}
		s.log.Debug().Str("url", s.url).Msg("SSE stream closed")
	})
}

func (s *Stream) emitError(err error) {
	s.log.Warn().Err(err).Str("url", s.url).Msg("SSE stream error")
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
}

// run is the reader loop: connect, consume, and optionally reconnect
// until the stream context ends.
func (s *Stream) run() {
	defer s.cancel()
	defer s.fireClose()

	for {
		err := s.consume()

		if s.ctx.Err() != nil {
			// Explicit Close is silent; cancellation and deadline expiry
			// surface the context cause before teardown.
			if !s.explicit.Load() {
				s.emitError(context.Cause(s.ctx))
			}
			return
		}

		s.emitError(err)
		if !s.opts.Reconnect {
			return
		}

		timer := time.NewTimer(s.reconnectDelay())
		select {
		case <-s.ctx.Done():
			timer.Stop()
			if !s.explicit.Load() {
				s.emitError(context.Cause(s.ctx))
			}
			return
		case <-timer.C:
		}
	}
}

// consume dials the endpoint and delivers events until the connection
// breaks. It always returns a non-nil error; io.EOF means the server
// ended the stream.
func (s *Stream) consume() error {
	req, err := nethttp.NewRequestWithContext(s.ctx, nethttp.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("sse: invalid request: %w", err)
	}
	req.Header.Set("Accept", contentTypeEventStream)
	req.Header.Set("Cache-Control", "no-cache")
	for key, value := range s.opts.Headers {
		req.Header.Set(key, value)
	}
	if s.lastEventID != "" {
		req.Header.Set("Last-Event-ID", s.lastEventID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return fmt.Errorf("sse: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), contentTypeEventStream) {
		return fmt.Errorf("sse: unexpected content type %q", ct)
	}

	s.log.Info().Str("url", s.url).Msg("SSE stream connected")
	if s.opts.OnOpen != nil {
		s.opts.OnOpen()
	}

	s.parser = frameParser{retryHint: s.retryHint}
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A partial trailing line without a newline never dispatches
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
		s.feed(strings.TrimSuffix(line, "\n"))
	}
}

func (s *Stream) feed(line string) {
	ev, ok := s.parser.feed(line)
	s.retryHint = s.parser.retryHint
	if !ok {
		return
	}
	if ev.id != "" {
		s.lastEventID = ev.id
	}
	s.opts.OnMessage(decodePayload(ev.data))
}

func (s *Stream) reconnectDelay() time.Duration {
	if s.retryHint > 0 {
		return s.retryHint
	}
	if s.opts.ReconnectWait > 0 {
		return s.opts.ReconnectWait
	}
	return DefaultReconnectWait
}

// decodePayload parses the event payload as JSON on a best-effort
// basis, falling back to the raw string.
func decodePayload(data string) any {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err == nil {
		return v
	}
	return data
}
