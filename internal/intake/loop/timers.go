package loop

import "time"

// Timers is a set of cancellable timers keyed by trigger name. Scheduling a
// key replaces its previous timer, so at most one callback per key is ever
// pending. Callbacks run on the loop.
//
// Timers is confined to its loop: every method must be called from a
// callback running on it.
type Timers struct {
	loop    *Loop
	entries map[string]timerEntry
	next    uint64
	stopped bool
}

type timerEntry struct {
	token uint64
	timer *time.Timer
}

// NewTimers creates an empty timer set bound to l.
func NewTimers(l *Loop) *Timers {
	return &Timers{loop: l, entries: make(map[string]timerEntry)}
}

// Schedule runs fn on the loop after d unless key is scheduled again,
// cancelled, or the set is stopped first. It reports whether a pending timer
// for key was replaced.
func (t *Timers) Schedule(key string, d time.Duration, fn func()) bool {
	if t.stopped {
		return false
	}
	replaced := t.Cancel(key)

	t.next++
	token := t.next
	timer := time.AfterFunc(d, func() {
		t.loop.Post(func() { t.fire(key, token, fn) })
	})
	t.entries[key] = timerEntry{token: token, timer: timer}
	return replaced
}

// fire runs fn only if token is still the live token for key. A timer that
// was superseded while its callback sat in the queue is a no-op.
func (t *Timers) fire(key string, token uint64, fn func()) {
	entry, ok := t.entries[key]
	if !ok || entry.token != token || t.stopped {
		return
	}
	delete(t.entries, key)
	fn()
}

// Cancel drops the pending timer for key, reporting whether one existed.
func (t *Timers) Cancel(key string) bool {
	entry, ok := t.entries[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(t.entries, key)
	return true
}

// Pending reports whether key has a timer that has not fired.
func (t *Timers) Pending(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Stop cancels every timer. Later Schedule calls are ignored.
func (t *Timers) Stop() {
	t.stopped = true
	for key, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, key)
	}
}
