package refresh

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescer_Burst(t *testing.T) {
	var callCount atomic.Int32

	c := NewCoalescer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	for i := 0; i < 100; i++ {
		c.Call()
	}

	time.Sleep(120 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1", callCount.Load())
	}
}

func TestCoalescer_SteadyStream(t *testing.T) {
	var callCount atomic.Int32

	c := NewCoalescer(40*time.Millisecond, func() {
		callCount.Add(1)
	})

	// Calls every 5ms for 200ms must not each produce a callback.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		c.Call()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	got := callCount.Load()
	if got < 2 || got > 8 {
		t.Errorf("callCount = %d, want between 2 and 8", got)
	}
}

func TestCoalescer_Flush(t *testing.T) {
	var callCount atomic.Int32

	c := NewCoalescer(time.Second, func() {
		callCount.Add(1)
	})

	c.Flush()
	if callCount.Load() != 0 {
		t.Errorf("callCount = %d, want 0 without pending change", callCount.Load())
	}

	c.Call()
	if !c.Pending() {
		t.Error("expected pending after Call")
	}
	c.Flush()

	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1 after Flush", callCount.Load())
	}
	if c.Pending() {
		t.Error("expected nothing pending after Flush")
	}
}

func TestCoalescer_Stop(t *testing.T) {
	var callCount atomic.Int32

	c := NewCoalescer(30*time.Millisecond, func() {
		callCount.Add(1)
	})

	c.Call()
	c.Stop()
	c.Call()

	time.Sleep(80 * time.Millisecond)

	if callCount.Load() != 0 {
		t.Errorf("callCount = %d, want 0 (stopped)", callCount.Load())
	}
}

func TestCoalescer_DefaultInterval(t *testing.T) {
	c := NewCoalescer(0, nil)
	if c.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", c.interval, DefaultInterval)
	}
}

func TestDebouncer_Basic(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	for i := 0; i < 10; i++ {
		d.Call()
	}

	time.Sleep(100 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1", callCount.Load())
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	d.Call()
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if callCount.Load() != 0 {
		t.Errorf("callCount = %d, want 0 (canceled)", callCount.Load())
	}
}
