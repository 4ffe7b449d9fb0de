package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedLines pushes lines through the parser and collects dispatched
// events.
func feedLines(p *frameParser, lines ...string) []*event {
	var events []*event
	for _, line := range lines {
		if ev, ok := p.feed(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

func TestFrameParserDispatchesOnBlankLine(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "data: hello", "")
	require.Len(t, events, 1)
	assert.Equal(t, "hello", events[0].data)
}

func TestFrameParserJoinsMultiLineData(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "data: one", "data: two", "data:", "")
	require.Len(t, events, 1)
	assert.Equal(t, "one\ntwo\n", events[0].data)
}

func TestFrameParserIgnoresComments(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, ": keep-alive", "data: real", "")
	require.Len(t, events, 1)
	assert.Equal(t, "real", events[0].data)
}

func TestFrameParserBlankLineWithoutDataIsSilent(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "", ": ping", "", "event: named", "")
	assert.Empty(t, events)
}

func TestFrameParserEventName(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p,
		"event: progress", "data: 10", "",
		"data: plain", "",
	)
	require.Len(t, events, 2)
	assert.Equal(t, "progress", events[0].name)
	assert.Equal(t, "", events[1].name, "event name resets between dispatches")
}

func TestFrameParserIDPersistsAcrossEvents(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p,
		"id: 7", "data: a", "",
		"data: b", "",
	)
	require.Len(t, events, 2)
	assert.Equal(t, "7", events[0].id)
	assert.Equal(t, "7", events[1].id, "last event id persists until overwritten")
}

func TestFrameParserIgnoresIDWithNUL(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "id: bad\x00id", "data: a", "")
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].id)
}

func TestFrameParserRetryHint(t *testing.T) {
	p := &frameParser{}
	feedLines(p, "retry: 250", "data: a", "")
	assert.Equal(t, 250*time.Millisecond, p.retryHint)

	// Malformed and negative hints are ignored.
	feedLines(p, "retry: soon", "retry: -5")
	assert.Equal(t, 250*time.Millisecond, p.retryHint)
}

func TestFrameParserFieldWithoutColon(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "data", "")
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].data, "a bare field name has an empty value")
}

func TestFrameParserStripsCarriageReturn(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "data: crlf\r", "\r")
	require.Len(t, events, 1)
	assert.Equal(t, "crlf", events[0].data)
}

func TestFrameParserValueSpaceHandling(t *testing.T) {
	p := &frameParser{}
	events := feedLines(p, "data:no space", "data:  padded", "")
	require.Len(t, events, 1)
	// Only a single leading space is stripped from the value.
	assert.Equal(t, "no space\n padded", events[0].data)
}
