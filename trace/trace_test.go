package trace

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")

	id, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-7", id)

	_, ok = RequestIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestEnsureRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "existing")
	assert.Equal(t, "existing", EnsureRequestID(ctx))

	generated := EnsureRequestID(context.Background())
	_, err := uuid.Parse(generated)
	assert.NoError(t, err, "generated IDs are valid UUIDs")
}

func TestEmptyRequestIDIsAbsent(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	_, ok := RequestIDFromContext(ctx)
	assert.False(t, ok)
}

func TestTraceParentRoundTrip(t *testing.T) {
	ctx := WithTraceParent(context.Background(), "00-abc-def-01")
	tp, ok := ParentFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "00-abc-def-01", tp)

	ctx = WithTraceState(ctx, "vendor=1")
	ts, ok := StateFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "vendor=1", ts)
}

func TestGenerateTraceParent(t *testing.T) {
	format := regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`)
	seen := map[string]struct{}{}
	for i := 0; i < 16; i++ {
		tp := GenerateTraceParent()
		assert.Regexp(t, format, tp)
		seen[tp] = struct{}{}
	}
	assert.Len(t, seen, 16, "trace parents are unique")
}
