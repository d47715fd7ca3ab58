package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := NewTickerScheduler(20 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) { calls.Add(1) }))

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestTickerSchedulerStartTwiceIsNoop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := NewTickerScheduler(time.Hour)
	job := func(time.Time) { calls.Add(1) }

	require.NoError(t, s.Start(context.Background(), job))
	require.NoError(t, s.Start(context.Background(), job))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTickerSchedulerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewTickerScheduler(10 * time.Millisecond)

	var calls atomic.Int32
	require.NoError(t, s.Start(ctx, func(time.Time) { calls.Add(1) }))
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	assert.NoError(t, s.Stop(stopCtx))
}

func TestTickerSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(0)
	assert.NoError(t, s.Start(context.Background(), nil))
	assert.NoError(t, s.Stop(context.Background()))
}
