package roster

import (
	"fmt"
	"strconv"
	"strings"
)

// dtmfBodyPrefix is the fixed textual prefix of the audio-port DTMF frame
// (spec §4.5.2 "A DTMF frame is RTP payload-type 96 with body
// 'DTMF<c> <seq> <time>'").
const dtmfBodyPrefix = "DTMF"

// DTMFFrame is one decoded audio-port DTMF control body.
type DTMFFrame struct {
	Digit byte
	Seq   int
	Time  int64
}

// EncodeDTMFBody renders a DTMFFrame to its RTP payload body.
func EncodeDTMFBody(f DTMFFrame) []byte {
	return []byte(fmt.Sprintf("%s%c %d %d", dtmfBodyPrefix, f.Digit, f.Seq, f.Time))
}

// ParseDTMFBody decodes an RTP payload-type-96 body.
func ParseDTMFBody(body []byte) (DTMFFrame, error) {
	s := string(body)
	if !strings.HasPrefix(s, dtmfBodyPrefix) || len(s) < len(dtmfBodyPrefix)+1 {
		return DTMFFrame{}, fmt.Errorf("roster: malformed DTMF body %q", s)
	}
	rest := s[len(dtmfBodyPrefix):]
	digit := rest[0]
	fields := strings.Fields(rest[1:])
	if len(fields) != 2 {
		return DTMFFrame{}, fmt.Errorf("roster: malformed DTMF body %q", s)
	}
	seq, err1 := strconv.Atoi(fields[0])
	tm, err2 := strconv.ParseInt(fields[1], 10, 64)
	if err1 != nil || err2 != nil {
		return DTMFFrame{}, fmt.Errorf("roster: bad DTMF seq/time in %q", s)
	}
	return DTMFFrame{Digit: digit, Seq: seq, Time: tm}, nil
}

// DupGuard suppresses repeated DTMF frames by (seq, time) monotonicity
// (spec §4.5.2 "duplicates are suppressed by (seq, time) monotonicity
// guards").
type DupGuard struct {
	lastSeq  int
	lastTime int64
	seen     bool
}

// Admit reports whether f is new (strictly advances seq or time) and
// updates internal state accordingly.
func (g *DupGuard) Admit(f DTMFFrame) bool {
	if g.seen && f.Seq <= g.lastSeq && f.Time <= g.lastTime {
		return false
	}
	g.lastSeq, g.lastTime, g.seen = f.Seq, f.Time, true
	return true
}
