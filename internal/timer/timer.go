// Package timer provides the millisecond countdown primitive used by the
// Node loop, the Link manager, and the telemetry scheduler (spec §4.1 step
// 1 "decrements timers by the elapsed wall time ... clamps at zero").
// Adapted from the teacher's internal/network.Timer (itself a tick-counter
// equivalent of the original's CTimer), generalized from a fixed
// ticks-per-second resolution to a plain time.Duration countdown since every
// caller in this module already works in milliseconds.
package timer

import "time"

// Countdown is a single countdown timer: Start arms it for a duration,
// Tick advances it by the elapsed wall time, and Expired reports whether
// it has reached zero. Unlike a time.Timer it never sends on a channel —
// the Node loop polls it once per 20ms iteration instead.
type Countdown struct {
	remaining time.Duration
	running   bool
	started   bool
}

// New returns a Countdown, not yet started.
func New() *Countdown {
	return &Countdown{}
}

// Start arms the timer for d, clamping negative durations to zero.
func (c *Countdown) Start(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.remaining = d
	c.running = true
	c.started = true
}

// Stop disarms the timer without changing Remaining.
func (c *Countdown) Stop() {
	c.running = false
}

// Running reports whether the timer is currently counting down.
func (c *Countdown) Running() bool {
	return c.running
}

// Tick subtracts elapsed from the remaining time, clamping at zero and
// auto-stopping on expiry (spec §4.1 step 1 "clamps at zero").
func (c *Countdown) Tick(elapsed time.Duration) {
	if !c.running {
		return
	}
	c.remaining -= elapsed
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
	}
}

// Expired reports whether the timer has counted down to zero. A timer that
// was never started is not expired.
func (c *Countdown) Expired() bool {
	return c.started && c.running == false && c.remaining == 0
}

// Remaining returns the time left on the timer.
func (c *Countdown) Remaining() time.Duration {
	return c.remaining
}
