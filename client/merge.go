package client

import "context"

// MergeContexts returns a context that is cancelled the first time any
// of the given contexts is cancelled, with the winning context's cause.
// The transition happens exactly once and is permanent.
//
// If any input is already cancelled, the merged context is cancelled
// synchronously, before MergeContexts returns. Nil inputs are ignored.
// Values are not propagated from the inputs.
//
// The returned CancelFunc releases the listeners registered on the
// inputs and must be called once the merged context is no longer needed,
// or the listeners leak for the lifetime of their parents.
func MergeContexts(ctxs ...context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancelCause(context.Background())

	stops := make([]func() bool, 0, len(ctxs))
	release := func() {
		for _, stop := range stops {
			stop()
		}
		cancel(context.Canceled)
	}

	for _, parent := range ctxs {
		parent := parent
		if parent == nil {
			continue
		}
		if parent.Err() != nil {
			cancel(context.Cause(parent))
			return merged, release
		}
		stops = append(stops, context.AfterFunc(parent, func() {
			cancel(context.Cause(parent))
		}))
	}

	return merged, release
}
