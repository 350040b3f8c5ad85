package retry

import (
	"fmt"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

type ErrorCause string

const (
	ErrZeroAttempts      ErrorCause = "zero attempts"
	ErrExhaustedAttempts ErrorCause = "exhausted attempts"
)

// Error is returned when the retry loop itself gives up. For exhaustion it
// wraps the last attempt's error so callers can still classify the failure
// with errors.As.
type Error struct {
	Cause    ErrorCause
	Attempts int
	Last     failure.ClassifiedError
}

func (e *Error) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("retry error: %s after %d attempts, last error: %v", e.Cause, e.Attempts, e.Last)
	}
	return fmt.Sprintf("retry error: %s", e.Cause)
}

func (e *Error) Severity() failure.Severity {
	// Exhaustion is recoverable at the orchestrator level: a batch drops the
	// item and continues.
	return failure.SeverityRecoverable
}

func (e *Error) IsRetryable() bool {
	return false
}

func (e *Error) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// Is allows errors.Is to match Error types
func (e *Error) Is(target error) bool {
	_, ok := target.(*Error)
	return ok
}
