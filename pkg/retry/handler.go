package retry

import (
	"context"
	"time"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

// Do executes fn under the given policy. It retries only errors the policy
// classifies as retryable, waiting the fixed policy delay between attempts.
// Non-retryable errors are returned unchanged and immediately.
//
// When every attempt fails, the last error is wrapped in *Error with cause
// ErrExhaustedAttempts; it is never silently swallowed.
//
// Type parameter T represents the return type of the function being retried.
func Do[T any](ctx context.Context, policy Policy, fn func() (T, failure.ClassifiedError)) (T, failure.ClassifiedError) {
	var lastErr failure.ClassifiedError
	var zero T

	if policy.MaxAttempts < 1 {
		return zero, &Error{Cause: ErrZeroAttempts}
	}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !policy.shouldRetry(err) {
			return zero, err
		}

		if attempt == policy.MaxAttempts {
			break
		}

		if waitErr := wait(ctx, policy.Delay); waitErr != nil {
			// Cancelled mid-wait: surface the last classified error rather
			// than inventing a new kind.
			return zero, lastErr
		}
	}

	return zero, &Error{
		Cause:    ErrExhaustedAttempts,
		Attempts: policy.MaxAttempts,
		Last:     lastErr,
	}
}

func (p Policy) shouldRetry(err failure.ClassifiedError) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}

	type hasRetryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	// Default to retryable if we can't determine
	return true
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
