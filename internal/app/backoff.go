package app

import (
	"context"
	"math/rand"
	"time"
)

// DefaultRetryDelay is the base pause between a failed chunk attempt and
// its single retry.
const DefaultRetryDelay = 500 * time.Millisecond

// retryJitter is the fraction the pause may deviate from its base.
const retryJitter = 0.2

// jittered spreads base by up to ±20%. u is a sample from [0, 1).
func jittered(base time.Duration, u float64) time.Duration {
	if base <= 0 {
		return 0
	}
	return time.Duration(float64(base) * (1 + retryJitter*(u*2-1)))
}

// waitRetry sleeps for a jittered base delay before a chunk is retried.
// Returns early with the context error if ctx is done.
func waitRetry(ctx context.Context, base time.Duration) error {
	d := jittered(base, rand.Float64())
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
