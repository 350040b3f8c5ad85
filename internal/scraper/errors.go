package scraper

import (
	"fmt"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

// ValidationError means the caller-supplied salon URL is structurally
// invalid. It is raised before any network activity takes place.
type ValidationError struct {
	Message string
	URL     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Message, e.URL)
}

func (e *ValidationError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *ValidationError) IsRetryable() bool {
	return false
}
