package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
	"github.com/rohmanhakim/salon-scraper/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockError is a mock implementation of failure.ClassifiedError for testing
type mockError struct {
	msg       string
	retryable bool
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	if m.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (m *mockError) IsRetryable() bool {
	return m.retryable
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		return "success", nil
	}

	policy := retry.NewPolicy(3, time.Millisecond, nil)

	result, err := retry.Do(context.Background(), policy, fn)
	require.Nil(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, callCount)
}

func TestDo_RetryThenSucceed(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		if callCount < 3 {
			return "", &mockError{msg: "transient error", retryable: true}
		}
		return "success", nil
	}

	policy := retry.NewPolicy(3, 10*time.Millisecond, nil)

	start := time.Now()
	result, err := retry.Do(context.Background(), policy, fn)
	elapsed := time.Since(start)

	require.Nil(t, err)
	assert.Equal(t, "success", result)
	// exactly 3 attempts and 2 fixed waits
	assert.Equal(t, 3, callCount)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestDo_ExhaustionWrapsLastError(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		return "", &mockError{msg: "still failing", retryable: true}
	}

	policy := retry.NewPolicy(3, time.Millisecond, nil)

	_, err := retry.Do(context.Background(), policy, fn)
	require.NotNil(t, err)
	assert.Equal(t, 3, callCount)

	var retryErr *retry.Error
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)
	assert.Equal(t, 3, retryErr.Attempts)

	// The last attempt's error stays reachable through Unwrap.
	var last *mockError
	require.True(t, errors.As(err, &last))
	assert.Equal(t, "still failing", last.msg)
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		return "", &mockError{msg: "fatal error", retryable: false}
	}

	policy := retry.NewPolicy(5, time.Millisecond, nil)

	_, err := retry.Do(context.Background(), policy, fn)
	require.NotNil(t, err)
	assert.Equal(t, 1, callCount)

	var mock *mockError
	require.True(t, errors.As(err, &mock))
}

func TestDo_PredicateOverridesErrorClassification(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		return "", &mockError{msg: "claims retryable", retryable: true}
	}

	// The policy predicate refuses everything, regardless of IsRetryable.
	policy := retry.NewPolicy(5, time.Millisecond, func(err failure.ClassifiedError) bool {
		return false
	})

	_, err := retry.Do(context.Background(), policy, fn)
	require.NotNil(t, err)
	assert.Equal(t, 1, callCount)
}

func TestDo_ZeroAttempts(t *testing.T) {
	fn := func() (string, failure.ClassifiedError) {
		t.Fatal("fn must not be called")
		return "", nil
	}

	policy := retry.NewPolicy(0, time.Millisecond, nil)

	_, err := retry.Do(context.Background(), policy, fn)
	require.NotNil(t, err)

	var retryErr *retry.Error
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, retry.ErrZeroAttempts, retryErr.Cause)
}

func TestDo_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		cancel()
		return "", &mockError{msg: "transient error", retryable: true}
	}

	policy := retry.NewPolicy(5, time.Second, nil)

	start := time.Now()
	_, err := retry.Do(ctx, policy, fn)

	require.NotNil(t, err)
	assert.Equal(t, 1, callCount)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	var mock *mockError
	assert.True(t, errors.As(err, &mock))
}
