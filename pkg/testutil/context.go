package testutil

import (
	"context"
	"testing"
	"time"

	"cadlink/pkg/requestcontext"
)

// FixedTime is the timestamp tests pin the request clock to when they need
// deterministic hashes and last_synced_at comparisons.
var FixedTime = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

// ContextWithTime returns a background context with the request clock pinned.
func ContextWithTime(t *testing.T, at time.Time) context.Context {
	t.Helper()
	return requestcontext.WithTime(context.Background(), at)
}

// Context returns a background context pinned to FixedTime.
func Context(t *testing.T) context.Context {
	t.Helper()
	return ContextWithTime(t, FixedTime)
}
