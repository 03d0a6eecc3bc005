package folio

import (
	"context"
	"sync"
)

// Loop is a single-threaded task queue. Tasks queued with Defer or Post run
// in FIFO order when the owning goroutine calls Drain or Run. All document
// mutation happens on that goroutine; Post is the only entry point that is
// safe to call from elsewhere.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Defer queues fn to run after the current task.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// Post queues fn from any goroutine and wakes a running loop.
func (l *Loop) Post(fn func()) {
	l.Defer(fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain runs queued tasks until the queue is empty, including tasks queued
// while draining. It returns the number of tasks run.
func (l *Loop) Drain() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return ran
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		ran++
	}
}

// Run drains the loop whenever tasks are posted, until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}
