package retry

import (
	"time"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

// Policy is an explicit retry policy value. Callers construct it from config
// and pass it into Do; the retry handler owns no policy knowledge of its own.
//
// The wait between attempts is fixed, not exponential: the remote site rate
// limits on request spacing, so spreading retries further apart buys nothing.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Delay is the fixed wait applied between consecutive attempts.
	Delay time.Duration
	// Retryable decides whether a failed attempt may be retried.
	// A nil predicate falls back to the error's own IsRetryable method.
	Retryable func(err failure.ClassifiedError) bool
}

// NewPolicy creates a Policy with the given settings.
func NewPolicy(
	maxAttempts int,
	delay time.Duration,
	retryable func(err failure.ClassifiedError) bool,
) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Retryable:   retryable,
	}
}
