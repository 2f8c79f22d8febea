package base

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// RetryPolicy retries an operation at a constant interval plus random jitter.
// Only errors accepted by ShouldRetry are retried; anything else is returned
// immediately. MaxAttempts counts the first call.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
	Jitter      time.Duration

	// ShouldRetry decides whether err is transient. Nil means rate limits only.
	ShouldRetry func(err error) bool
	// OnRetry is called before each wait with the attempt that just failed (1-based).
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryPolicy creates a constant-interval policy that retries rate limits
func NewRetryPolicy(maxAttempts int, interval, jitter time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		Interval:    interval,
		Jitter:      jitter,
	}
}

// DefaultRetryPolicy returns five attempts thirty seconds apart with up to a second of jitter
func DefaultRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(5, 30*time.Second, time.Second)
}

// NoRetryPolicy returns a policy that doesn't retry
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

// Execute runs fn until it succeeds, fails with a non-retryable error, or
// exhausts MaxAttempts. On exhaustion the last error is returned wrapped.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	attempts := rp.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	shouldRetry := rp.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = errors.IsRateLimit
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't wait after the last attempt
		if attempt == attempts {
			break
		}

		delay := rp.Delay()
		if rp.OnRetry != nil {
			rp.OnRetry(attempt, delay, err)
		}

		if delay <= 0 {
			if ctx.Err() != nil {
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// Delay returns the next wait: Interval plus a uniform draw from [0, Jitter).
func (rp *RetryPolicy) Delay() time.Duration {
	delay := rp.Interval
	if rp.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(rp.Jitter)))
	}
	return delay
}

// Clone creates a copy of the retry policy
func (rp *RetryPolicy) Clone() *RetryPolicy {
	c := *rp
	return &c
}

// WithOnRetry returns a new policy that reports retries to fn
func (rp *RetryPolicy) WithOnRetry(fn func(attempt int, delay time.Duration, err error)) *RetryPolicy {
	policy := rp.Clone()
	policy.OnRetry = fn
	return policy
}
