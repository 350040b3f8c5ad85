package fetcher

import (
	"fmt"
	"time"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

// NetworkError covers transport failures and non-429 HTTP error statuses.
// StatusCode is zero when the failure happened below the HTTP layer.
type NetworkError struct {
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("network error: %s", e.Message)
}

func (e *NetworkError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *NetworkError) IsRetryable() bool {
	return e.Retryable
}

// RateLimitError is an HTTP 429 response. RetryAfter carries the server's
// Retry-After hint, or a fixed default when the header is absent.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s (retry after %s)", e.Message, e.RetryAfter)
}

func (e *RateLimitError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// IsRetryable returns whether this error is retryable
func (e *RateLimitError) IsRetryable() bool {
	return true
}
