package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage   = errors.New("invalid message: message cannot be nil")
	ErrInvalidChannelID = errors.New("invalid channel ID: cannot be empty")
	ErrOperationTimeout = errors.New("operation timeout exceeded")
	ErrReactionConflict = errors.New("reaction toggle kept racing with the same user")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	messagesPageSize = 50

	// conditional toggle passes before giving up on a same-user race
	maxToggleAttempts = 3
)

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// withRetry runs op up to maxRetries times while it fails with a transient
// Mongo error.
func withRetry[T any](ctx context.Context, logger *zap.Logger, opName string, op func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return zero, err
			}
			logger.Warn("retrying store operation",
				zap.String("op", opName),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxRetries),
			)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		logger.Error("store operation timed out", zap.String("op", opName))
		return zero, ErrOperationTimeout
	}

	return zero, lastErr
}
