package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	redact *Redactor
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing JSON to stdout at the given level.
// If pretty is true the output is formatted for human readability.
// Unknown levels fall back to info.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithWriter(level, pretty, os.Stdout)
}

// NewWithWriter creates a ZeroLogger writing to the given writer. Tests
// use this to capture output.
func NewWithWriter(level string, pretty bool, w io.Writer) *ZeroLogger {
	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(w).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, redact: NewRedactor(DefaultRedactorConfig())}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZeroLogger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l}
}

// WithRedactor returns a copy of the logger using the given redactor for
// sensitive field filtering. A nil redactor disables filtering.
func (l *ZeroLogger) WithRedactor(r *Redactor) *ZeroLogger {
	return &ZeroLogger{zlog: l.zlog, redact: r}
}

// WithFields returns a logger with additional fields attached to every
// log entry.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.redact != nil {
		fields = l.redact.RedactFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, redact: l.redact}
}

// Info creates an info-level log event
func (l *ZeroLogger) Info() LogEvent {
	return &eventAdapter{event: l.zlog.Info(), redact: l.redact}
}

// Error creates an error-level log event
func (l *ZeroLogger) Error() LogEvent {
	return &eventAdapter{event: l.zlog.Error(), redact: l.redact}
}

// Debug creates a debug-level log event
func (l *ZeroLogger) Debug() LogEvent {
	return &eventAdapter{event: l.zlog.Debug(), redact: l.redact}
}

// Warn creates a warning-level log event
func (l *ZeroLogger) Warn() LogEvent {
	return &eventAdapter{event: l.zlog.Warn(), redact: l.redact}
}

// eventAdapter adapts zerolog events to the LogEvent interface.
type eventAdapter struct {
	event  *zerolog.Event
	redact *Redactor
}

func (e *eventAdapter) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *eventAdapter) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *eventAdapter) Err(err error) LogEvent {
	return &eventAdapter{event: e.event.Err(err), redact: e.redact}
}

func (e *eventAdapter) Str(key, value string) LogEvent {
	if e.redact != nil {
		value = e.redact.RedactString(key, value)
	}
	return &eventAdapter{event: e.event.Str(key, value), redact: e.redact}
}

func (e *eventAdapter) Int(key string, value int) LogEvent {
	return &eventAdapter{event: e.event.Int(key, value), redact: e.redact}
}

func (e *eventAdapter) Int64(key string, value int64) LogEvent {
	return &eventAdapter{event: e.event.Int64(key, value), redact: e.redact}
}

func (e *eventAdapter) Dur(key string, d time.Duration) LogEvent {
	return &eventAdapter{event: e.event.Dur(key, d), redact: e.redact}
}

func (e *eventAdapter) Interface(key string, i any) LogEvent {
	if e.redact != nil {
		i = e.redact.RedactValue(key, i)
	}
	return &eventAdapter{event: e.event.Interface(key, i), redact: e.redact}
}

func (e *eventAdapter) Bytes(key string, val []byte) LogEvent {
	return &eventAdapter{event: e.event.Bytes(key, val), redact: e.redact}
}
