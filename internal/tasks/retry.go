package tasks

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy retries an operation with exponential backoff and full jitter.
//
// The policy is invoked explicitly at each call site rather than wrapping
// functions implicitly. Creation calls against the quota-limited API are not
// idempotent upstream, so MaxAttempts bounds the worst-case duplicate count.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	Base        time.Duration // first backoff delay
	Factor      float64       // geometric growth per attempt
	MaxDelay    time.Duration // cap on a single delay
	Permanent   func(error) bool // short-circuits the loop when true

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the tuning the API tolerates well: five attempts,
// 3s base delay growing 5x, capped at two minutes.
func DefaultRetryPolicy(permanent func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Base:        3 * time.Second,
		Factor:      5,
		MaxDelay:    2 * time.Minute,
		Permanent:   permanent,
	}
}

// Do runs op until it succeeds, exhausts MaxAttempts, hits a permanent error,
// or ctx is cancelled. Returns the last error on failure.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.delay(attempt)); err != nil {
				return err
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Permanent != nil && p.Permanent(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// delay computes the full-jitter backoff for the given attempt (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	factor := p.Factor
	if factor <= 1 {
		factor = 2
	}

	ceil := float64(base) * math.Pow(factor, float64(attempt-1))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && ceil > max {
		ceil = max
	}
	return time.Duration(rand.Float64() * ceil)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
