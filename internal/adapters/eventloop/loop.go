package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Sync once the loop has stopped.
var ErrClosed = errors.New("event loop closed")

// Loop runs queued functions one at a time on the goroutine calling Run.
// It implements ports.MainQueue.
type Loop struct {
	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a loop with a queue of the given capacity.
func New(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 256
	}
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Async enqueues fn. It blocks while the queue is full; once the loop is
// closed fn is dropped.
func (l *Loop) Async(fn func()) {
	select {
	case <-l.done:
		slog.Debug("event loop closed, dropping work")
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Sync runs fn on the loop and waits for it to return.
func (l *Loop) Sync(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.queue <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Run processes work until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Close stops the loop. Pending work is discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
