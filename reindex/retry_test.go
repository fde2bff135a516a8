package reindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(3), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(5), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := RetryWithBackoff(context.Background(), fastPolicy(3), func() error {
		attempts++
		return expectedErr
	})
	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_NotRetryable(t *testing.T) {
	conflict := errors.New("conflict")
	fatal := errors.New("fatal")

	policy := fastPolicy(5)
	policy.Retryable = func(err error) bool { return errors.Is(err, conflict) }

	attempts := 0
	err := RetryWithBackoff(context.Background(), policy, func() error {
		attempts++
		if attempts == 1 {
			return conflict
		}
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, attempts, "stops at the first non-retryable error")
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, fastPolicy(10), func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_InvalidAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastPolicy(n), func() error {
			attempts++
			return nil
		})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Zero(t, attempts)
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, p.delay(1))
	assert.Equal(t, 20*time.Millisecond, p.delay(2))
	assert.Equal(t, 80*time.Millisecond, p.delay(4))

	p.MaxDelay = 30 * time.Millisecond
	assert.Equal(t, 20*time.Millisecond, p.delay(2))
	assert.Equal(t, 30*time.Millisecond, p.delay(3))
	assert.Equal(t, 30*time.Millisecond, p.delay(10))

	p = RetryPolicy{BaseDelay: 50 * time.Millisecond, MaxDelay: 30 * time.Millisecond}
	assert.Equal(t, 30*time.Millisecond, p.delay(1))
}
