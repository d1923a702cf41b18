package loanledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	meta, err := loanledger.RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return loanledger.ErrConcurrencyConflict
		}
		return nil
	}

	meta, err := loanledger.RetryWithExponentialBackoff(ctx, fn, loanledger.WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_BusinessRuleErrors_FailFast(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return loanledger.ErrAlreadyBorrowed
	}

	meta, err := loanledger.RetryWithExponentialBackoff(ctx, fn)

	assert.ErrorIs(t, err, loanledger.ErrAlreadyBorrowed)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return errors.Join(loanledger.ErrConcurrencyConflict, errors.New("book row changed"))
	}

	meta, err := loanledger.RetryWithExponentialBackoff(ctx, fn,
		loanledger.WithMaxAttempts(3),
		loanledger.WithBaseDelay(time.Millisecond),
		loanledger.WithJitterFactor(0),
	)

	assert.ErrorIs(t, err, loanledger.ErrConcurrencyConflict)
	assert.Equal(t, 3, callCount)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay) // 1ms + 2ms
}

func Test_RetryWithExponentialBackoff_ContextCanceled_DuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(_ context.Context) error {
		cancel()
		return loanledger.ErrConcurrencyConflict
	}

	meta, err := loanledger.RetryWithExponentialBackoff(ctx, fn, loanledger.WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := loanledger.RetryWithExponentialBackoff(ctx, fn, loanledger.WithMaxAttempts(0))
	assert.ErrorIs(t, err, loanledger.ErrInvalidMaxAttempts)

	_, err = loanledger.RetryWithExponentialBackoff(ctx, fn, loanledger.WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, loanledger.ErrNegativeBaseDelay)

	_, err = loanledger.RetryWithExponentialBackoff(ctx, fn, loanledger.WithJitterFactor(1.5))
	assert.ErrorIs(t, err, loanledger.ErrInvalidJitterFactor)
}
