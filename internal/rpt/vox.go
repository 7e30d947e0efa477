package rpt

// VOX threshold bounds (spec §4.1.3 "clamped to [VOX_MIN_THRESHOLD,
// VOX_MAX_THRESHOLD]").
const (
	VOXMinThreshold = 50.0
	VOXMaxThreshold = 10000.0

	voxOnFrames  = 3  // consecutive above-threshold frames to engage
	voxOffFrames = 20 // consecutive below-threshold frames to release
)

// VOXTracker implements the speech/noise energy VOX of spec §4.1.3: low-
// pass energy averages for speech and noise, a threshold derived from
// whichever is relevant depending on current engagement, and frame-count
// debounce in both directions.
type VOXTracker struct {
	speechEnergy float64
	noiseEnergy  float64
	engaged      bool
	aboveCount   int
	belowCount   int
}

// NewVOXTracker returns a tracker with zeroed energy averages.
func NewVOXTracker() *VOXTracker {
	return &VOXTracker{}
}

// Feed processes one frame's energy measurement, updating the low-pass
// averages and the engaged/disengaged debounce state (spec §4.1.3
// "3-frame ON / 20-frame OFF debounce").
func (t *VOXTracker) Feed(energy float64) {
	threshold := t.threshold()
	above := energy > threshold

	if above {
		t.speechEnergy = lowpass(t.speechEnergy, energy, 0.2)
	} else {
		t.noiseEnergy = lowpass(t.noiseEnergy, energy, 0.05)
	}

	if above {
		t.aboveCount++
		t.belowCount = 0
		if !t.engaged && t.aboveCount >= voxOnFrames {
			t.engaged = true
		}
	} else {
		t.belowCount++
		t.aboveCount = 0
		if t.engaged && t.belowCount >= voxOffFrames {
			t.engaged = false
		}
	}
}

// threshold implements spec §4.1.3's formula: speech_energy/8 once
// engaged, else max(speech_energy/16, noise_energy*2), clamped to
// [VOXMinThreshold, VOXMaxThreshold].
func (t *VOXTracker) threshold() float64 {
	var th float64
	if t.engaged {
		th = t.speechEnergy / 8
	} else {
		th = t.speechEnergy / 16
		if noiseBased := t.noiseEnergy * 2; noiseBased > th {
			th = noiseBased
		}
	}
	if th < VOXMinThreshold {
		th = VOXMinThreshold
	}
	if th > VOXMaxThreshold {
		th = VOXMaxThreshold
	}
	return th
}

// Engaged reports whether VOX currently considers the channel keyed.
func (t *VOXTracker) Engaged() bool {
	return t.engaged
}

func lowpass(avg, sample, alpha float64) float64 {
	return avg + alpha*(sample-avg)
}
