// Package refresh rate-limits callbacks driven by bursty events.
//
// A Coalescer groups every Call made within one interval into a single
// callback at the end of that interval. A Debouncer waits for a quiet period
// instead. Both are safe for concurrent use and never run their callback
// concurrently with itself.
package refresh

import (
	"sync"
	"time"
)

// DefaultInterval yields at most 25 callbacks per second.
const DefaultInterval = 40 * time.Millisecond

// Coalescer runs its callback at most once per interval. The first Call
// after an idle period arms a timer; calls made before it fires are folded
// into that one callback.
type Coalescer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	pending  bool
	stopped  bool
	seq      uint64 // detects stale timer callbacks
	callback func()

	run sync.Mutex // serializes callback runs
}

// NewCoalescer creates a coalescer. A non-positive interval uses
// DefaultInterval.
func NewCoalescer(interval time.Duration, callback func()) *Coalescer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coalescer{
		interval: interval,
		callback: callback,
	}
}

// Call records a change. The callback runs once the current interval ends.
func (c *Coalescer) Call() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.pending = true
	if c.timer != nil {
		return
	}

	c.seq++
	currentSeq := c.seq
	c.timer = time.AfterFunc(c.interval, func() {
		c.mu.Lock()
		if !c.pending || c.seq != currentSeq || c.stopped {
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.timer = nil
		c.mu.Unlock()
		c.invoke()
	})
}

// Flush runs the callback now if a change is pending, cancelling the timer.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++

	if !c.pending || c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.mu.Unlock()
	c.invoke()
}

// Pending reports whether a callback is scheduled.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Stop cancels any pending callback; later calls are ignored. A callback
// already running is not interrupted.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.pending = false
	c.stopped = true
}

func (c *Coalescer) invoke() {
	if c.callback == nil {
		return
	}
	c.run.Lock()
	defer c.run.Unlock()
	c.callback()
}

// Debouncer runs its callback once no Call has been made for the delay.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  bool
	seq      uint64
	callback func()
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
	}
}

// Call restarts the quiet period.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending && d.seq == currentSeq && d.callback != nil {
			d.pending = false
			d.mu.Unlock()
			d.callback()
			return
		}
		d.mu.Unlock()
	})
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}
