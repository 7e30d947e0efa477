package telemetry

import "math"

// morseEntry is one character's dot/dash pattern, grounded on the
// International Morse table used by direwolf's morse encoder.
type morseEntry struct {
	ch  byte
	enc string
}

var morseTable = []morseEntry{
	{'A', ".-"}, {'B', "-..."}, {'C', "-.-."}, {'D', "-.."}, {'E', "."},
	{'F', "..-."}, {'G', "--."}, {'H', "...."}, {'I', ".."}, {'J', ".---"},
	{'K', "-.-"}, {'L', ".-.."}, {'M', "--"}, {'N', "-."}, {'O', "---"},
	{'P', ".--."}, {'Q', "--.-"}, {'R', ".-."}, {'S', "..."}, {'T', "-"},
	{'U', "..-"}, {'V', "...-"}, {'W', ".--"}, {'X', "-..-"}, {'Y', "-.--"},
	{'Z', "--.."},
	{'0', "-----"}, {'1', ".----"}, {'2', "..---"}, {'3', "...--"},
	{'4', "....-"}, {'5', "....."}, {'6', "-...."}, {'7', "--..."},
	{'8', "---.."}, {'9', "----."},
	{'.', ".-.-.-"}, {',', "--..--"}, {'?', "..--.."}, {'/', "-..-."},
	{'-', "-....-"},
}

func morseLookup(ch byte) string {
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}
	for _, e := range morseTable {
		if e.ch == ch {
			return e.enc
		}
	}
	return ""
}

// GenerateMorse renders text as 16-bit signed PCM samples at sampleRate,
// one time unit = dot; dash = 3 units; intra-character gap = 1 unit;
// inter-character gap = 3 units (timing grounded on direwolf's
// morse_send/morse_units_ch; tone synthesis via a plain sine generator
// rather than direwolf's precomputed table, since rptd has no cgo audio
// device to match sample rates against). freqHz/amplitude come from the
// [morse] config section (frequency/idfrequency, amplitude/idamplitude).
func GenerateMorse(text string, wpm, freqHz, amplitude, sampleRate int) []int16 {
	if wpm <= 0 {
		wpm = 20
	}
	unitMS := 1200.0 / float64(wpm)

	var out []int16
	appendTone := func(units float64) {
		out = append(out, toneSamples(freqHz, amplitude, unitMS*units, sampleRate)...)
	}
	appendQuiet := func(units float64) {
		out = append(out, silenceSamples(unitMS*units, sampleRate)...)
	}

	for i := 0; i < len(text); i++ {
		enc := morseLookup(text[i])
		if enc == "" {
			appendQuiet(1)
		} else {
			for j := 0; j < len(enc); j++ {
				if enc[j] == '.' {
					appendTone(1)
				} else {
					appendTone(3)
				}
				if j != len(enc)-1 {
					appendQuiet(1)
				}
			}
		}
		if i != len(text)-1 {
			appendQuiet(3)
		}
	}
	return out
}

// toneSamples synthesizes a single sine tone at freqHz, amplitude 0..100,
// for durationMS milliseconds at sampleRate.
func toneSamples(freqHz, amplitude int, durationMS float64, sampleRate int) []int16 {
	n := int(durationMS * float64(sampleRate) / 1000.0)
	samples := make([]int16, n)
	amp := 32767.0 * float64(amplitude) / 100.0
	step := 2 * math.Pi * float64(freqHz) / float64(sampleRate)
	for i := 0; i < n; i++ {
		samples[i] = int16(amp * math.Sin(step*float64(i)))
	}
	return samples
}

func silenceSamples(durationMS float64, sampleRate int) []int16 {
	n := int(durationMS * float64(sampleRate) / 1000.0)
	return make([]int16, n)
}
