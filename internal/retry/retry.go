// Package retry re-invokes fallible operations with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"

	"warbler/internal/logging"
)

// Policy holds retry configuration.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy mirrors the collector's stock retry settings.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// Do invokes fn until it succeeds or the attempt budget is spent. Attempt i
// (zero-based) that fails with attempts remaining sleeps BaseDelay * 2^i
// before the next try. Every failure is treated as retryable; the final
// failure is returned to the caller unchanged. A context cancellation during
// the backoff sleep aborts with ctx.Err().
func Do(ctx context.Context, logger *slog.Logger, op string, policy Policy, fn func() error) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}

		delay := policy.BaseDelay << uint(attempt)
		logger.Debug("operation failed, retrying",
			logging.String("operation", op),
			logging.Int(logging.FieldAttempt, attempt+1),
			logging.Int("max_attempts", attempts),
			logging.Duration(logging.FieldDelay, delay),
			logging.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	logger.Error("operation failed after all attempts",
		logging.String("operation", op),
		logging.Int("max_attempts", attempts),
		logging.Error(lastErr))
	return lastErr
}
