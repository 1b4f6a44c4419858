package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"gfmapdl/pkg/config"
	errs "gfmapdl/pkg/errors"
	"gfmapdl/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serverErr = &errs.Error{Type: errs.ErrorTypeServerError, Message: "bad gateway", Code: 502}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	retries := 0
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		OnRetry:     func(int, error, time.Duration) { retries++ },
		Logger:      logger.NewNopLogger(),
	}

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return serverErr
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, retries)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	attempts := 0
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
	}

	err := Do(context.Background(), func() error {
		attempts++
		return serverErr
	}, cfg)

	assert.Same(t, serverErr, err)
	assert.Equal(t, 3, attempts)
}

func TestDoSingleAttemptByDefault(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return serverErr
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoDoesNotRetryNonRetryable(t *testing.T) {
	notFound := &errs.Error{Type: errs.ErrorTypeNotFound, Code: 404}
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return notFound
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}})

	assert.Same(t, notFound, err)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func() error {
		attempts++
		cancel()
		return serverErr
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Second}})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(errors.New("plain")))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeNetwork}))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429}))
	assert.False(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeClientError, Code: 403}))
}

func TestFromSettings(t *testing.T) {
	rc := config.DefaultConfig().Retry
	cfg := FromSettings(rc, nil)

	assert.Equal(t, 1, cfg.MaxAttempts)
	eb, ok := cfg.Backoff.(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, rc.InitialBackoff, eb.BaseDelay)
	assert.Equal(t, rc.MaxBackoff, eb.MaxDelay)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
