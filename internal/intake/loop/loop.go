// Package loop provides the single cooperative event loop that owns all form
// session state, plus keyed timers whose callbacks run on that loop.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"claim_intake_backend/platform/logger"
)

// ErrStopped is returned when work is posted to a stopped loop.
var ErrStopped = errors.New("event loop stopped")

const defaultQueueSize = 256

// Loop runs posted callbacks one at a time, in order, on a single goroutine.
type Loop struct {
	tasks    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	log      *logger.Logger
}

// New starts a loop.
func New(log *logger.Logger) *Loop {
	l := &Loop{
		tasks: make(chan func(), defaultQueueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   log,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil && l.log != nil {
			l.log.Error("event loop callback panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post queues fn. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do runs fn on the loop and waits for it to return. If ctx ends first, Do
// returns ctx.Err() and fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
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
			return ErrStopped
		}
	}
}

// Stop ends the loop after the callback in progress returns. Queued callbacks
// are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
	<-l.done
}
