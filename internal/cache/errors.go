package cache

import (
	"fmt"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseEncodeFailure StoreErrorCause = "encode failed"
	ErrCauseWriteFailure  StoreErrorCause = "write failed"
	ErrCauseRenameFailure StoreErrorCause = "rename failed"
)

// StoreError reports a failed persistence attempt. Losing write confirmation
// must be observable, so save failures always propagate to the caller.
type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
	Path      string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache error: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *StoreError) IsRetryable() bool {
	return e.Retryable
}
