// Package debounce implements the field watcher that settles a group of form
// fields after a quiet period.
package debounce

import (
	"time"

	"claim_intake_backend/internal/intake/loop"
)

// Watcher observes snapshots of a field group. A changed snapshot restarts the
// quiet period; when it elapses uninterrupted, onSettle runs once with the
// latest snapshot. A snapshot that is not active (by default, the zero value)
// cancels any pending settle.
//
// Watcher is confined to the loop that owns its Timers.
type Watcher[T comparable] struct {
	timers   *loop.Timers
	key      string
	quiet    time.Duration
	onSettle func(T)
	active   func(T) bool
	last     T
}

// New creates a watcher that schedules under key on timers.
func New[T comparable](timers *loop.Timers, key string, quiet time.Duration, onSettle func(T)) *Watcher[T] {
	return &Watcher[T]{
		timers:   timers,
		key:      key,
		quiet:    quiet,
		onSettle: onSettle,
		active: func(v T) bool {
			var zero T
			return v != zero
		},
	}
}

// WithActive replaces the predicate deciding whether a snapshot may settle.
func (w *Watcher[T]) WithActive(fn func(T) bool) *Watcher[T] {
	w.active = fn
	return w
}

// Observe records snapshot and reports whether it differs from the last one.
// An unchanged snapshot leaves any pending settle alone.
func (w *Watcher[T]) Observe(snapshot T) bool {
	if snapshot == w.last {
		return false
	}
	w.last = snapshot
	if !w.active(snapshot) {
		w.timers.Cancel(w.key)
		return true
	}
	w.timers.Schedule(w.key, w.quiet, func() { w.onSettle(snapshot) })
	return true
}

// Prime records snapshot as already settled, without scheduling anything.
func (w *Watcher[T]) Prime(snapshot T) {
	w.timers.Cancel(w.key)
	w.last = snapshot
}

// Restart begins a fresh quiet period for the current snapshot, as if it had
// just been edited. It reports false if the snapshot is not active.
func (w *Watcher[T]) Restart() bool {
	if !w.active(w.last) {
		w.timers.Cancel(w.key)
		return false
	}
	snapshot := w.last
	w.timers.Schedule(w.key, w.quiet, func() { w.onSettle(snapshot) })
	return true
}

// Snapshot returns the last observed snapshot.
func (w *Watcher[T]) Snapshot() T {
	return w.last
}

// Active reports whether the last observed snapshot may settle.
func (w *Watcher[T]) Active() bool {
	return w.active(w.last)
}

// Pending reports whether a settle or a follow-up stage under the same key is
// waiting to fire.
func (w *Watcher[T]) Pending() bool {
	return w.timers.Pending(w.key)
}

// Key is the timer key the watcher schedules under. Follow-up stages for the
// same trigger reuse it so a new edit cancels them too.
func (w *Watcher[T]) Key() string {
	return w.key
}

// Stop cancels any pending settle.
func (w *Watcher[T]) Stop() {
	w.timers.Cancel(w.key)
}
