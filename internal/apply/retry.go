package apply

import (
	"context"
	"math"
	"time"
)

// RetryPolicy bounds retries of RETRYABLE_FAILURE results within one
// strategy. It is an explicit value passed into the agent so tests can
// inject zero-delay policies.
type RetryPolicy struct {
	// MaxRetries is the maximum number of tries per strategy, including
	// the first one.
	MaxRetries int
	// BaseDelay is the wait before the second try.
	BaseDelay time.Duration
	// Multiplier grows the delay per retry; 2 doubles it each time.
	Multiplier float64
	// MaxDelay caps the grown delay.
	MaxDelay time.Duration
	// AttemptTimeout bounds a single strategy attempt. Attempts run on a
	// context detached from run cancellation so a submission already on
	// the wire is never aborted mid-flight; this timeout is what stops a
	// hung attempt instead. Zero uses DefaultAttemptTimeout.
	AttemptTimeout time.Duration
}

// DefaultAttemptTimeout bounds one strategy attempt when the policy does
// not set its own.
const DefaultAttemptTimeout = 2 * time.Minute

// DefaultRetryPolicy returns the production policy: three tries with a
// doubling delay from one second, capped at thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		BaseDelay:      time.Second,
		Multiplier:     2,
		MaxDelay:       30 * time.Second,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Delay returns the backoff before retry attempt n (1-indexed: attempt 1
// is the first retry after the initial failure).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// wait sleeps for d or until the context is done, whichever comes first.
// It reports whether the full wait elapsed.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
