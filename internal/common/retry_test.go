package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtobin/pennywise/internal/service"
)

func fastRetryOptions(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return nil
		}, fastRetryOptions(3))
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return ErrConflict
			}
			return nil
		}, fastRetryOptions(5))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return ErrConflict
		}, fastRetryOptions(3))
		require.ErrorIs(t, err, ErrMaxRetries)
		// The last error's kind survives exhaustion
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable errors fail immediately", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return ErrInvalidInput
		}, fastRetryOptions(3))
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := WithRetry(cancelled, func() error {
			return ErrConflict
		}, fastRetryOptions(3))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConflict))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("transient"), Retryable: true}))

	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(ErrInsufficientFunds))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("fatal"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestUserError(t *testing.T) {
	wrapped := NewUserError("could not save", ErrConflict)
	assert.Equal(t, "could not save: concurrent modification detected", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrConflict)

	bare := &UserError{UserMessage: "unknown sort field"}
	assert.Equal(t, "unknown sort field", bare.Error())
}
