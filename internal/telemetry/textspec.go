package telemetry

import (
	"strings"

	"github.com/dbehnke/rptd/internal/config"
)

// ToneSpec is one entry of a "|T" tone-pair sequence body:
// "freq1,freq2,durationms[,amplitude]", entries separated by ':'.
type ToneSpec struct {
	Freq1, Freq2, DurationMS, Amplitude int
}

// ParseToneSequence splits a "|T" directive body ("650,440,100:0,0,50")
// into its colon-separated tone-pair entries (spec §4.4 step 4 "tone
// sequence from the `|…` prefix syntax").
func ParseToneSequence(body string) []ToneSpec {
	parts := strings.Split(body, ":")
	out := make([]ToneSpec, 0, len(parts))
	for _, p := range parts {
		fields := strings.Split(p, ",")
		ints := make([]int, 4)
		for i, f := range fields {
			if i >= 4 {
				break
			}
			ints[i] = atoiSafe(f)
		}
		ts := ToneSpec{Freq1: ints[0], Freq2: ints[1], DurationMS: ints[2], Amplitude: ints[3]}
		if ts.Amplitude == 0 {
			ts.Amplitude = 50
		}
		out = append(out, ts)
	}
	return out
}

func atoiSafe(s string) int {
	s = strings.TrimSpace(s)
	n, neg := 0, false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		return -n
	}
	return n
}

// VarCmdLookup resolves a VARCMD's dest verb against the [telemetry]
// table (spec §4.4 step 4 "VARCMD: look up dest verb in the [telemetry]
// section").
func VarCmdLookup(table map[string]config.TelemetryValue, verb string) (config.TelemetryValue, bool) {
	v, ok := table[verb]
	return v, ok
}
