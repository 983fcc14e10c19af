package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"delivery-service/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	s := New(logger.Nop())
	var ok, failing int32
	s.Every("ok", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&ok, 1)
		return nil
	})
	s.Every("failing", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&failing, 1)
		return errors.New("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, atomic.LoadInt32(&ok), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&failing), int32(3), "an error must not stop the loop")
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := New(logger.Nop())
	var concurrent, maxConcurrent int32
	s.Every("slow", 5*time.Millisecond, func(context.Context) error {
		n := atomic.AddInt32(&concurrent, 1)
		for {
			m := atomic.LoadInt32(&maxConcurrent)
			if n <= m || atomic.CompareAndSwapInt32(&maxConcurrent, m, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&concurrent, -1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxConcurrent))
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	s := New(logger.Nop())
	var runs int32
	s.Every("panicky", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		panic("unexpected")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestScheduler_IgnoresNonPositiveInterval(t *testing.T) {
	s := New(logger.Nop())
	var runs int32
	s.Every("broken", 0, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	s.Every("negative", -time.Second, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	assert.Empty(t, s.jobs)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NotPanics(t, func() { require.NoError(t, s.Run(ctx)) })
	assert.Zero(t, atomic.LoadInt32(&runs))
}
