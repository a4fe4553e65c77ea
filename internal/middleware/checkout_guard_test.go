package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySubmissionGuard(t *testing.T) {
	guard := newMemorySubmissionGuard(time.Minute)
	ctx := context.Background()

	seen, err := guard.Seen(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, seen, "first submission passes")

	seen, err = guard.Seen(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, seen, "immediate retry is a duplicate")

	// keys are case-insensitive: the same email with different casing
	// counts as the same submission
	seen, err = guard.Seen(ctx, "Buyer@Example.com")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = guard.Seen(ctx, "other@example.com")
	require.NoError(t, err)
	assert.False(t, seen, "a different email is unaffected")
}

func TestMemorySubmissionGuard_Forget(t *testing.T) {
	guard := newMemorySubmissionGuard(time.Minute)
	ctx := context.Background()

	_, err := guard.Seen(ctx, "buyer@example.com")
	require.NoError(t, err)

	require.NoError(t, guard.Forget(ctx, "Buyer@Example.com"))

	seen, err := guard.Seen(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, seen, "released reservation passes again")
}

func TestMemorySubmissionGuard_TTLExpiry(t *testing.T) {
	guard := newMemorySubmissionGuard(20 * time.Millisecond)
	ctx := context.Background()

	seen, err := guard.Seen(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, seen)

	time.Sleep(30 * time.Millisecond)

	seen, err = guard.Seen(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, seen, "entry expired, submission passes again")
}

func TestNewSubmissionGuard_FallsBackWithoutRedis(t *testing.T) {
	guard, err := NewSubmissionGuard("", "", 0, 0)
	require.NoError(t, err)
	require.NotNil(t, guard)

	_, ok := guard.(*memorySubmissionGuard)
	assert.True(t, ok, "no address configured means the in-memory guard")
}
