// Package debounce delays a call until its input has been quiet for a fixed
// interval. Time comes from an injectable Clock so callers can test with
// virtual time.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used for search input.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs the latest scheduled call once no newer call arrived within
// the delay. Superseded and cancelled calls never run.
type Debouncer struct {
	clock Clock
	delay time.Duration

	mu    sync.Mutex
	timer Timer
	gen   uint64
	fn    func()
}

// New builds a Debouncer. A nil clock uses RealClock; a non-positive delay
// uses DefaultDelay.
func New(clock Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Debounce schedules fn, replacing any call still pending.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.fn = fn
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs the call scheduled as generation gen unless it was superseded
// after the timer had already started firing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.fn == nil {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// Cancel drops the pending call, if any, and reports whether one existed.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending := d.fn != nil
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.fn = nil
	d.timer = nil
	return pending
}

// Flush runs the pending call now instead of waiting out the delay.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.fn = nil
	d.timer = nil
	d.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}
