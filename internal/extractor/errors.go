package extractor

import (
	"fmt"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

type ParseErrorCause string

const (
	ErrCauseBadHTML          ParseErrorCause = "malformed HTML"
	ErrCauseStructureChanged ParseErrorCause = "expected page structure missing"
)

// ParseError means the page did not match the expected shape. It is never
// retryable: refetching the same page yields the same structure.
type ParseError struct {
	Message string
	Cause   ParseErrorCause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %s", e.Cause, e.Message)
}

func (e *ParseError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// IsRetryable returns whether this error is retryable
func (e *ParseError) IsRetryable() bool {
	return false
}
