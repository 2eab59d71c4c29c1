package ingestion_engine

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds one artifact call: MaxAttempts tries, a linear backoff of
// attempt × BaseDelay between them, and AttemptTimeout per try.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, AttemptTimeout: 90 * time.Second}
}

// Backoff is the wait after the given (1-based) failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = d.AttemptTimeout
	}
	return p
}

// Do calls fn until it succeeds or MaxAttempts is reached and returns the
// number of attempts made. A try running past AttemptTimeout sees its context
// expire and counts as failed. On exhaustion the last error is returned as is.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	p = p.normalized()

	attempts := 0
	var lastErr error

	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if attempts >= p.MaxAttempts {
			return 0, true
		}
		return p.Backoff(attempts), false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()

		if err := fn(attemptCtx, attempts); err != nil {
			lastErr = err
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}
		return attempts, lastErr
	}
	return attempts, nil
}
