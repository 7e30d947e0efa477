package remote

import "time"

// BumpRate selects the per-second frequency step rate for
// multimode_bump_freq (spec §4.6 "Bump/scan ... with 100/500/2000 Hz
// per-second rates for SLOW/QUICK/FAST up or down").
type BumpRate int

const (
	BumpSlow BumpRate = iota
	BumpQuick
	BumpFast
)

func (r BumpRate) hzPerSecond() uint64 {
	switch r {
	case BumpQuick:
		return 500
	case BumpFast:
		return 2000
	default:
		return 100
	}
}

// StepHz is the frequency resolution of a bump step (spec §4.6
// "multimode_bump_freq(interval_Hz) changes the frequency by a 10 Hz-
// resolution step").
const StepHz = 10

// Bumper drives a Rig through a continuous-bump gesture: repeated 10Hz
// steps at a rate-determined cadence until Stop is called.
type Bumper struct {
	rig     Rig
	current uint64
	stop    chan struct{}
	done    chan struct{}
}

// NewBumper starts tracking from startFreqHz; call Start to begin
// stepping in a direction.
func NewBumper(rig Rig, startFreqHz uint64) *Bumper {
	return &Bumper{rig: rig, current: startFreqHz}
}

// Current returns the last-programmed frequency.
func (b *Bumper) Current() uint64 { return b.current }

// Start begins stepping up (up=true) or down at rate, applying a new
// SetFreq roughly rate.hzPerSecond()/StepHz times per second, until Stop
// is called or the rig rejects a frequency (CheckFreq fails).
func (b *Bumper) Start(up bool, rate BumpRate) {
	stepsPerSecond := rate.hzPerSecond() / StepHz
	if stepsPerSecond == 0 {
		stepsPerSecond = 1
	}
	interval := time.Second / time.Duration(stepsPerSecond)

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				next := b.current
				if up {
					next += StepHz
				} else if next >= StepHz {
					next -= StepHz
				} else {
					return
				}
				if !b.rig.CheckFreq(next) {
					return
				}
				if err := b.rig.SetFreq(next); err != nil {
					return
				}
				b.current = next
			}
		}
	}()
}

// Stop halts an in-progress bump and waits for the worker to exit.
func (b *Bumper) Stop() {
	if b.stop == nil {
		return
	}
	close(b.stop)
	<-b.done
	b.stop = nil
}
