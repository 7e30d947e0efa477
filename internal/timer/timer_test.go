package timer

import (
	"testing"
	"time"
)

func TestCountdownExpiresAfterDuration(t *testing.T) {
	c := New()
	c.Start(100 * time.Millisecond)
	if c.Expired() {
		t.Fatalf("should not be expired immediately after start")
	}
	c.Tick(50 * time.Millisecond)
	if c.Expired() {
		t.Fatalf("should not be expired halfway")
	}
	c.Tick(60 * time.Millisecond)
	if !c.Expired() {
		t.Fatalf("should be expired after total > duration")
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining should clamp at zero, got %v", c.Remaining())
	}
}

func TestCountdownStopPreventsTick(t *testing.T) {
	c := New()
	c.Start(time.Second)
	c.Stop()
	c.Tick(time.Second)
	if c.Remaining() != time.Second {
		t.Fatalf("stopped timer should not tick down, got %v", c.Remaining())
	}
}
