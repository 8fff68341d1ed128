package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 5 * time.Second},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	// Check if it's an API error
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	// Check for context errors (don't retry)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Default to retrying unknown errors
	return true
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(cfg.Context, delay); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

// HTTPRetrier retries upstream HTTP operations with a fixed delay, switching
// to an attempt-scaled delay when the last failure was a rate-limit signal.
type HTTPRetrier struct {
	maxAttempts int
	fixed       BackoffStrategy
	rateLimited BackoffStrategy
	logger      logger.Logger
}

// NewHTTPRetrier creates a retrier with the given attempt ceiling and base delay.
// On a 429 the wait between attempts grows as delay, 2*delay, 3*delay.
func NewHTTPRetrier(maxAttempts int, delay time.Duration, log logger.Logger) *HTTPRetrier {
	return &HTTPRetrier{
		maxAttempts: maxAttempts,
		fixed:       &ConstantBackoff{Delay: delay},
		rateLimited: &LinearBackoff{BaseDelay: delay, Increment: delay},
		logger:      log,
	}
}

// Do executes an operation, selecting the backoff per failure type.
func (hr *HTTPRetrier) Do(ctx context.Context, op Operation) error {
	selector := &errorTypeBackoff{fixed: hr.fixed, rateLimited: hr.rateLimited}

	return Do(op, &Config{
		MaxAttempts: hr.maxAttempts,
		Backoff:     selector,
		// RetryIf sees each failure before the delay is computed, so the
		// selector is current by the time NextDelay fires.
		RetryIf: func(err error) bool {
			var apiErr *errs.Error
			selector.lastWasRateLimit = errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeRateLimit
			return DefaultRetryIf(err)
		},
		Context: ctx,
		Logger:  hr.logger,
	})
}

// errorTypeBackoff delegates to the rate-limit strategy when the most recent
// failure was a 429.
type errorTypeBackoff struct {
	fixed            BackoffStrategy
	rateLimited      BackoffStrategy
	lastWasRateLimit bool
}

func (b *errorTypeBackoff) NextDelay(attempt int) time.Duration {
	if b.lastWasRateLimit {
		return b.rateLimited.NextDelay(attempt)
	}
	return b.fixed.NextDelay(attempt)
}
