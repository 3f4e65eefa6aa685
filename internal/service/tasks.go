package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const backgroundTaskTimeout = 30 * time.Second

// TaskRunner runs fire-and-forget work detached from the caller's
// cancellation. Panics are logged and dropped.
type TaskRunner struct {
	wg     sync.WaitGroup
	logger *zap.Logger
}

func NewTaskRunner(logger *zap.Logger) *TaskRunner {
	return &TaskRunner{logger: logger}
}

// Go runs fn on its own goroutine with a context that keeps parent's values
// but not its cancellation.
func (t *TaskRunner) Go(parent context.Context, name string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), backgroundTaskTimeout)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("background task panicked",
					zap.String("task", name),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()

		fn(ctx)
	}()
}

// Wait blocks until every started task has returned.
func (t *TaskRunner) Wait() {
	t.wg.Wait()
}
