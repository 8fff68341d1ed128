package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: 0},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: 500}
		}
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "connection refused", Code: 0}
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	notFound := &errs.Error{Type: errs.ErrorTypeNotFound, Message: "resource not found", Code: 404}

	err := Do(func() error {
		calls++
		return notFound
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(3)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "flaky", Code: 0}
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", &errs.Error{Type: errs.ErrorTypeServerError, Message: "bad gateway", Code: 502}
		}
		return "payload", nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "payload", result)
	assert.Equal(t, 2, calls)
}

func TestConstantBackoff(t *testing.T) {
	cb := &ConstantBackoff{Delay: 5 * time.Second}

	assert.Equal(t, time.Duration(0), cb.NextDelay(0))
	assert.Equal(t, 5*time.Second, cb.NextDelay(1))
	assert.Equal(t, 5*time.Second, cb.NextDelay(3))
}

func TestLinearBackoff(t *testing.T) {
	lb := &LinearBackoff{BaseDelay: 5 * time.Second, Increment: 5 * time.Second}

	assert.Equal(t, 5*time.Second, lb.NextDelay(1))
	assert.Equal(t, 10*time.Second, lb.NextDelay(2))
	assert.Equal(t, 15*time.Second, lb.NextDelay(3))
}

func TestLinearBackoffCapped(t *testing.T) {
	lb := &LinearBackoff{BaseDelay: 5 * time.Second, Increment: 5 * time.Second, MaxDelay: 8 * time.Second}

	assert.Equal(t, 5*time.Second, lb.NextDelay(1))
	assert.Equal(t, 8*time.Second, lb.NextDelay(2))
}

func TestHTTPRetrierScalesDelayOnRateLimit(t *testing.T) {
	hr := NewHTTPRetrier(3, 0, logger.NewTestLogger())

	// Inspect the selector directly: a 429 switches to the scaled strategy.
	selector := &errorTypeBackoff{
		fixed:       &ConstantBackoff{Delay: 5 * time.Second},
		rateLimited: &LinearBackoff{BaseDelay: 5 * time.Second, Increment: 5 * time.Second},
	}

	assert.Equal(t, 5*time.Second, selector.NextDelay(2))
	selector.lastWasRateLimit = true
	assert.Equal(t, 10*time.Second, selector.NextDelay(2))

	// End to end with zero delays: rate limited twice, then success.
	calls := 0
	err := hr.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: 429}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestHTTPRetrierExhaustion(t *testing.T) {
	hr := NewHTTPRetrier(3, 0, logger.NewTestLogger())

	calls := 0
	err := hr.Do(context.Background(), func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: 503}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}
