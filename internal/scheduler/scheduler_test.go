package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_RunsImmediatelyThenOnTicks(t *testing.T) {
	var task Task
	var calls atomic.Int32

	task.Reschedule(context.Background(), 10*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})
	defer task.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, task.Active())
}

func TestTask_StopHaltsFurtherRuns(t *testing.T) {
	var task Task
	var calls atomic.Int32

	task.Reschedule(context.Background(), 5*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)

	task.Stop()
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, after, calls.Load())
	assert.False(t, task.Active())
	task.Stop()
}

func TestTask_RescheduleStopsPreviousFirst(t *testing.T) {
	var task Task
	var running atomic.Int32
	var maxRunning atomic.Int32
	var second atomic.Int32

	job := func(counter *atomic.Int32) Job {
		return func(ctx context.Context) {
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			if counter != nil {
				counter.Add(1)
			}
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Millisecond):
			}
			running.Add(-1)
		}
	}

	task.Reschedule(context.Background(), time.Millisecond, job(nil))
	time.Sleep(10 * time.Millisecond)
	task.Reschedule(context.Background(), time.Millisecond, job(&second))
	defer task.Stop()

	require.Eventually(t, func() bool { return second.Load() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestTask_CancelledParent(t *testing.T) {
	var task Task
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task.Reschedule(ctx, time.Millisecond, func(context.Context) { calls.Add(1) })
	task.Stop()

	assert.Equal(t, int32(0), calls.Load())
}
