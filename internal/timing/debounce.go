// Package timing provides the keyed single-shot debounce timer used to
// coalesce bursts of outbound mutations into one trailing message per
// quiescent window.
package timing

import (
	"sync"
	"time"
)

// Debouncer coalesces values per key: each Trigger restarts the key's
// window, and when a window elapses with no further triggers the fire
// callback receives the last value seen. Stop discards everything pending;
// queued-but-unsent values are never flushed on teardown.
type Debouncer[V any] struct {
	window time.Duration
	fire   func(key int64, last V)

	mu      sync.Mutex
	stopped bool
	timers  map[int64]*time.Timer
	last    map[int64]V
}

// NewDebouncer creates a debouncer firing at most once per key per
// quiescent window.
func NewDebouncer[V any](window time.Duration, fire func(key int64, last V)) *Debouncer[V] {
	return &Debouncer[V]{
		window: window,
		fire:   fire,
		timers: make(map[int64]*time.Timer),
		last:   make(map[int64]V),
	}
}

// Trigger records v as the key's latest value and restarts its window.
func (d *Debouncer[V]) Trigger(key int64, v V) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.last[key] = v
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.expire(key)
	})
}

func (d *Debouncer[V]) expire(key int64) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	v, ok := d.last[key]
	delete(d.last, key)
	delete(d.timers, key)
	d.mu.Unlock()

	if ok {
		d.fire(key, v)
	}
}

// Cancel discards any pending value for key without firing.
func (d *Debouncer[V]) Cancel(key int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
	delete(d.last, key)
}

// Reset cancels all pending windows and discards their values, leaving the
// debouncer usable. Used on connection teardown, where queued-but-unsent
// mutations are discarded rather than flushed.
func (d *Debouncer[V]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
	d.last = make(map[int64]V)
}

// Stop cancels all pending windows and discards their values. The debouncer
// is unusable afterwards.
func (d *Debouncer[V]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
	d.last = make(map[int64]V)
}

// Pending reports whether key has an unfired value.
func (d *Debouncer[V]) Pending(key int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}
