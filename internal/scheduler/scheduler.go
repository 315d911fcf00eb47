// Package scheduler runs a recurring job with at most one active instance
// per Task.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Job is invoked once immediately and then on every tick. ctx is cancelled
// when the task is stopped or rescheduled.
type Job func(ctx context.Context)

// Task owns at most one running job loop.
type Task struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Reschedule stops the running loop, waits for it to exit and then starts
// job with the given interval under parent.
func (t *Task) Reschedule(parent context.Context, interval time.Duration, job Job) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go run(ctx, interval, job, done)
}

// Stop cancels the running loop and waits for it to exit. Safe to call
// multiple times.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Active reports whether a loop is currently armed.
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *Task) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}

func run(ctx context.Context, interval time.Duration, job Job, done chan struct{}) {
	defer close(done)

	if ctx.Err() != nil {
		return
	}
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick and a cancel can be ready together
			if ctx.Err() != nil {
				return
			}
			job(ctx)
		}
	}
}
