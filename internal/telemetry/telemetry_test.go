package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingPlayer struct {
	mu     sync.Mutex
	order  []Mode
	delay  time.Duration
}

func (p *recordingPlayer) Play(ctx context.Context, it *Item) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.order = append(p.order, it.Mode)
	p.mu.Unlock()
	return nil
}

func (p *recordingPlayer) Order() []Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Mode, len(p.order))
	copy(out, p.order)
	return out
}

func zeroDelays() Delays {
	return Delays{}
}

func TestFIFOOrdering(t *testing.T) {
	player := &recordingPlayer{delay: 5 * time.Millisecond}
	s := New(player, zeroDelays(), nil, nil)

	s.Enqueue(context.Background(), Playback, "first", nil)
	s.Enqueue(context.Background(), LocalPlay, "second", nil)
	s.Enqueue(context.Background(), TailMsg, "third", nil)
	s.Wait()

	got := player.Order()
	if len(got) != 3 {
		t.Fatalf("expected 3 plays, got %d", len(got))
	}
	want := []Mode{Playback, LocalPlay, TailMsg}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected FIFO order %v, got %v", want, got)
		}
	}
}

func TestImmediateBypassesQueue(t *testing.T) {
	player := &recordingPlayer{delay: 40 * time.Millisecond}
	s := New(player, zeroDelays(), nil, nil)

	// a occupies the player immediately; b is FIFO-serialized behind a and
	// must wait for it to finish. c is an immediate mode enqueued after
	// both and must not wait on either.
	s.Enqueue(context.Background(), Playback, "a", nil)
	itB := s.Enqueue(context.Background(), Playback, "b", nil)
	itC := s.Enqueue(context.Background(), SetRemote, "c", nil)

	select {
	case <-itC.done:
	case <-itB.done:
		t.Fatalf("b (FIFO-serialized) finished before immediate item c")
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for immediate item")
	}
}

func TestHoldoffBlocksUntilClear(t *testing.T) {
	player := &recordingPlayer{}
	var keyed bool
	var mu sync.Mutex
	holdoff := func(mode Mode) bool {
		mu.Lock()
		defer mu.Unlock()
		return keyed
	}

	mu.Lock()
	keyed = true
	mu.Unlock()

	s := New(player, zeroDelays(), holdoff, nil)
	it := s.Enqueue(context.Background(), Status, "x", nil)

	select {
	case <-it.done:
		t.Fatalf("should not have completed while holdoff active")
	case <-time.After(30 * time.Millisecond):
	}

	mu.Lock()
	keyed = false
	mu.Unlock()

	select {
	case <-it.done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for item to complete after holdoff cleared")
	}
}

func TestFlushCancelsPending(t *testing.T) {
	player := &recordingPlayer{delay: 200 * time.Millisecond}
	s := New(player, zeroDelays(), nil, nil)

	s.Enqueue(context.Background(), Status, "a", nil)
	it2 := s.Enqueue(context.Background(), Status, "b", nil)
	s.Flush()

	select {
	case <-it2.done:
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("flushed item never completed")
	}
	if !it2.Killed() {
		t.Fatalf("expected item to be marked killed")
	}
}

func TestToneSequenceParsing(t *testing.T) {
	specs := ParseToneSequence("650,440,100:0,0,50")
	if len(specs) != 2 {
		t.Fatalf("expected 2 tone specs, got %d", len(specs))
	}
	if specs[0].Freq1 != 650 || specs[0].Freq2 != 440 || specs[0].DurationMS != 100 {
		t.Fatalf("unexpected first spec: %+v", specs[0])
	}
	if specs[1].Amplitude != 50 {
		t.Fatalf("expected default amplitude 50, got %d", specs[1].Amplitude)
	}
}

func TestGenerateMorseNonEmpty(t *testing.T) {
	samples := GenerateMorse("CQ", 20, 800, 50, 8000)
	if len(samples) == 0 {
		t.Fatalf("expected non-empty samples")
	}
}

func TestCourtesyToneFallback(t *testing.T) {
	tone := CourtesyTone(1, nil)
	if tone.Freq1 == 0 {
		t.Fatalf("expected non-zero default tone")
	}
	overrides := map[int]TonePair{1: {Freq1: 100, Freq2: 200, DurationMS: 10, Amplitude: 50}}
	tone2 := CourtesyTone(1, overrides)
	if tone2.Freq1 != 100 {
		t.Fatalf("expected override to take effect")
	}
}
