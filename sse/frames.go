package sse

import (
	"strconv"
	"strings"
	"time"
)

// event is one dispatched server-sent event.
type event struct {
	name string
	id   string
	data string
}

// frameParser accumulates SSE wire-format lines into events per the
// WHATWG EventSource framing: "field: value" lines, multi-line data
// joined with newlines, blank-line dispatch, ":" comments ignored.
type frameParser struct {
	data      []string
	name      string
	id        string
	retryHint time.Duration
}

// feed consumes one line (without its trailing newline) and returns the
// completed event when the line was a dispatching blank line.
func (p *frameParser) feed(line string) (*event, bool) {
	line = strings.TrimSuffix(line, "\r")

	if line == "" {
		if len(p.data) == 0 {
			p.reset()
			return nil, false
		}
		ev := &event{
			name: p.name,
			id:   p.id,
			data: strings.Join(p.data, "\n"),
		}
		p.reset()
		return ev, true
	}

	if strings.HasPrefix(line, ":") {
		return nil, false
	}

	field, value := line, ""
	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		field = line[:idx]
		value = strings.TrimPrefix(line[idx+1:], " ")
	}

	switch field {
	case "data":
		p.data = append(p.data, value)
	case "event":
		p.name = value
	case "id":
		// An id containing NUL is ignored per the WHATWG event stream format
		if !strings.ContainsRune(value, 0) {
			p.id = value
		}
	case "retry":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			p.retryHint = time.Duration(ms) * time.Millisecond
		}
	}
	return nil, false
}

func (p *frameParser) reset() {
	p.data = nil
	p.name = ""
	// id persists across events until overwritten
}
