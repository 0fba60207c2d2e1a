package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCounter_RejectsAboveCapacity(t *testing.T) {
	ctx := context.Background()

	counter := NewMemoryCounter(100, time.Minute)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return at }

	for i := 0; i < 100; i++ {
		allowed, _, err := counter.Allow(ctx, "caller-1")
		require.NoError(t, err)
		require.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, retryAfter, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 60, retryAfter)
}

func TestMemoryCounter_WindowElapseResets(t *testing.T) {
	ctx := context.Background()

	counter := NewMemoryCounter(2, time.Minute)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return at }

	for i := 0; i < 2; i++ {
		allowed, _, err := counter.Allow(ctx, "caller-1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, _, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.False(t, allowed)

	at = at.Add(time.Minute)

	allowed, retryAfter, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 0, retryAfter)
}

func TestMemoryCounter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()

	counter := NewMemoryCounter(1, time.Minute)

	allowed, _, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, _, err = counter.Allow(ctx, "caller-2")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMemoryCounter_EvictsExpiredWindows(t *testing.T) {
	ctx := context.Background()

	counter := NewMemoryCounter(10, time.Minute)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return at }

	for _, key := range []string{"a", "b", "c", "d"} {
		_, _, err := counter.Allow(ctx, key)
		require.NoError(t, err)
	}
	require.Len(t, counter.windows, 4)

	at = at.Add(2 * time.Minute)

	// The next call sweeps every expired window, not just its own key.
	_, _, err := counter.Allow(ctx, "e")
	require.NoError(t, err)
	require.Len(t, counter.windows, 1)
}

func TestMemoryCounter_RetryAfterShrinksWithinWindow(t *testing.T) {
	ctx := context.Background()

	counter := NewMemoryCounter(1, time.Minute)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return at }

	_, _, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)

	at = at.Add(45 * time.Second)

	allowed, retryAfter, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 15, retryAfter)
}
