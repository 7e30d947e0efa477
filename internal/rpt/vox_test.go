package rpt

import "testing"

func TestVOXEngagesAfterThreeLoudFrames(t *testing.T) {
	v := NewVOXTracker()
	for i := 0; i < 2; i++ {
		v.Feed(5000)
		if v.Engaged() {
			t.Fatalf("engaged too early at frame %d", i)
		}
	}
	v.Feed(5000)
	if !v.Engaged() {
		t.Fatalf("expected engaged after 3 loud frames")
	}
}

func TestVOXReleasesAfterTwentyQuietFrames(t *testing.T) {
	v := NewVOXTracker()
	for i := 0; i < 3; i++ {
		v.Feed(5000)
	}
	if !v.Engaged() {
		t.Fatalf("expected engaged before release test")
	}
	for i := 0; i < 19; i++ {
		v.Feed(0)
		if !v.Engaged() {
			t.Fatalf("released too early at frame %d", i)
		}
	}
	v.Feed(0)
	if v.Engaged() {
		t.Fatalf("expected released after 20 quiet frames")
	}
}

func TestVOXThresholdClampedToMinimum(t *testing.T) {
	v := NewVOXTracker()
	v.Feed(1)
	if th := v.threshold(); th < VOXMinThreshold {
		t.Fatalf("threshold %v below minimum %v", th, VOXMinThreshold)
	}
}
