package watcher

import (
	"sync"
	"time"
)

// Debouncer collapses a burst of triggers into one callback. Each Trigger
// restarts the window; the callback runs once the window passes with no
// further triggers. At most one timer is pending at any time.
type Debouncer struct {
	window   time.Duration
	callback func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // bumped on every Trigger so superseded timers are inert
	bursts  int    // triggers folded into the pending window
	stopped bool
}

// NewDebouncer creates a new debouncer with the given window and callback.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
	}
}

// Trigger starts or restarts the debounce window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.bursts++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(gen)
	})
}

// fire runs the callback if gen is still the latest trigger.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.bursts = 0
	d.mu.Unlock()

	if d.callback != nil {
		d.callback()
	}
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Coalesced returns how many triggers are folded into the pending window.
func (d *Debouncer) Coalesced() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bursts
}

// Stop cancels the pending timer. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.bursts = 0
}
