package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestLoggerWritesStructuredJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("debug", false, buf)

	log.Info().
		Str("direction", "outbound").
		Int("status", 200).
		Int64("call_count", 3).
		Dur("elapsed", 150*time.Millisecond).
		Msg("REST client response")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "outbound", lines[0]["direction"])
	assert.Equal(t, float64(200), lines[0]["status"])
	assert.Equal(t, "REST client response", lines[0]["message"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("warn", false, buf)

	log.Debug().Msg("hidden")
	log.Info().Msg("hidden too")
	log.Warn().Msg("visible")
	log.Error().Msg("also visible")

	lines := logLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "visible", lines[0]["message"])
	assert.Equal(t, "also visible", lines[1]["message"])
}

func TestLoggerUnknownLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("chatty", false, buf)

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["message"])
}

func TestLoggerWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("info", false, buf)

	scoped := log.WithFields(map[string]any{"component": "client", "password": "hunter2"})
	scoped.Info().Msg("scoped")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "client", lines[0]["component"])
	assert.Equal(t, redactedValue, lines[0]["password"], "sensitive fields are redacted")
}

func TestLoggerRedactsSensitiveStrings(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("info", false, buf)

	log.Info().
		Str("url", "https://example.test").
		Str("api_key", "sk-secret").
		Msg("request")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "https://example.test", lines[0]["url"])
	assert.Equal(t, redactedValue, lines[0]["api_key"])
}

func TestLoggerRedactsHeaderMaps(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("info", false, buf)

	log.Info().
		Interface("headers", map[string]string{
			"Authorization": "Bearer token",
			"Accept":        "application/json",
		}).
		Msg("request payload")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	headers, ok := lines[0]["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, redactedValue, headers["Authorization"])
	assert.Equal(t, "application/json", headers["Accept"])
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	log := NewNop()
	// Must not panic and must accept the full event surface.
	log.Info().Str("k", "v").Int("n", 1).Err(assert.AnError).Msg("nope")
	log.Error().Msgf("formatted %d", 7)
}

func TestRedactor(t *testing.T) {
	r := NewRedactor(nil)

	assert.Equal(t, redactedValue, r.RedactString("password", "hunter2"))
	assert.Equal(t, redactedValue, r.RedactString("service_api_key", "sk-1"), "substring match")
	assert.Equal(t, "ok", r.RedactString("status", "ok"))

	fields := r.RedactFields(map[string]any{
		"token": "t",
		"nested": map[string]any{
			"client_secret": "s",
			"name":          "n",
		},
	})
	assert.Equal(t, redactedValue, fields["token"])
	nested := fields["nested"].(map[string]any)
	assert.Equal(t, redactedValue, nested["client_secret"])
	assert.Equal(t, "n", nested["name"])

	assert.Nil(t, r.RedactFields(nil))
}

func TestRedactorCustomConfig(t *testing.T) {
	r := NewRedactor(&RedactorConfig{SensitiveKeys: []string{"pin"}})

	assert.Equal(t, redactedValue, r.RedactString("card_pin", "0000"))
	assert.Equal(t, "hunter2", r.RedactString("password", "hunter2"), "custom config replaces the defaults")
}
