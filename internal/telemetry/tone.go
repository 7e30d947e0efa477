package telemetry

// TonePair is a two-tone courtesy beep, configured via ct1..ct8 in the
// [telemetry] section (spec §4.4 step 4 "UNKEY / LINKUNKEY / LOCUNKEY").
type TonePair struct {
	Freq1, Freq2   int
	DurationMS     int
	Amplitude      int
}

// defaultCourtesyTones is the built-in two-tone fallback used when a
// node's [telemetry] section doesn't override ct1..ct8.
var defaultCourtesyTones = []TonePair{
	{Freq1: 941, Freq2: 1209, DurationMS: 60, Amplitude: 50}, // CT1
	{Freq1: 941, Freq2: 1336, DurationMS: 60, Amplitude: 50}, // CT2
	{Freq1: 941, Freq2: 1477, DurationMS: 60, Amplitude: 50}, // CT3
	{Freq1: 852, Freq2: 1209, DurationMS: 60, Amplitude: 50}, // CT4
	{Freq1: 852, Freq2: 1336, DurationMS: 60, Amplitude: 50}, // CT5
	{Freq1: 852, Freq2: 1477, DurationMS: 60, Amplitude: 50}, // CT6
	{Freq1: 770, Freq2: 1209, DurationMS: 60, Amplitude: 50}, // CT7
	{Freq1: 770, Freq2: 1336, DurationMS: 60, Amplitude: 50}, // CT8
}

// CourtesyTone returns ct[n] (1-indexed per config convention), falling
// back to the built-in table when overrides is nil or missing the slot.
func CourtesyTone(n int, overrides map[int]TonePair) TonePair {
	if overrides != nil {
		if t, ok := overrides[n]; ok {
			return t
		}
	}
	idx := n - 1
	if idx < 0 || idx >= len(defaultCourtesyTones) {
		idx = 0
	}
	return defaultCourtesyTones[idx]
}

// GenerateTonePair renders a two-tone courtesy beep as 16-bit PCM: both
// frequencies summed and scaled, for t.DurationMS.
func GenerateTonePair(t TonePair, sampleRate int) []int16 {
	a := toneSamples(t.Freq1, t.Amplitude/2, float64(t.DurationMS), sampleRate)
	b := toneSamples(t.Freq2, t.Amplitude/2, float64(t.DurationMS), sampleRate)
	out := make([]int16, len(a))
	for i := range out {
		sum := int32(a[i]) + int32(b[i])
		if sum > 32767 {
			sum = 32767
		} else if sum < -32768 {
			sum = -32768
		}
		out[i] = int16(sum)
	}
	return out
}
