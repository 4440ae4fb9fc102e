package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJittered_Bounds(t *testing.T) {
	base := time.Second

	assert.Equal(t, 800*time.Millisecond, jittered(base, 0))
	assert.Equal(t, base, jittered(base, 0.5))
	assert.InDelta(t, float64(1200*time.Millisecond), float64(jittered(base, 0.999999)), float64(time.Millisecond))
	assert.Zero(t, jittered(0, 0.7))
	assert.Zero(t, jittered(-time.Second, 0.7))
}

func TestWaitRetry_ZeroIsImmediate(t *testing.T) {
	start := time.Now()
	assert.NoError(t, waitRetry(context.Background(), 0))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitRetry_Sleeps(t *testing.T) {
	start := time.Now()
	assert.NoError(t, waitRetry(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 16*time.Millisecond)
}

func TestWaitRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, waitRetry(ctx, time.Hour), context.Canceled)
}
