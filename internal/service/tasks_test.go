package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTaskRunnerSurvivesPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	runner := NewTaskRunner(zap.New(core))

	var ran atomic.Int32
	runner.Go(context.Background(), "boom", func(context.Context) { panic("kaboom") })
	runner.Go(context.Background(), "fine", func(context.Context) { ran.Add(1) })
	runner.Wait()

	assert.Equal(t, int32(1), ran.Load())
	entries := logs.FilterMessage("background task panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["task"])
}

func TestTaskRunnerIgnoresParentCancellation(t *testing.T) {
	runner := NewTaskRunner(zap.NewNop())
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var taskErr error
	runner.Go(parent, "detached", func(ctx context.Context) { taskErr = ctx.Err() })
	runner.Wait()

	assert.NoError(t, taskErr)
}
