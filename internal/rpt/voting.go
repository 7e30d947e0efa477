package rpt

import "time"

// voteWindow is how long an observed RSSI sample counts toward the
// current vote before it is considered stale (spec §4.1.2 "vote_counter
// window").
const voteWindow = 200 * time.Millisecond

// voteSample is one link's most recent RSSI observation.
type voteSample struct {
	rssi int
	at   time.Time
}

// Voter arbitrates among voter-flagged links' RSSI to select a winner
// (spec §4.1.2 "RSSI voting"). Disabled (zero value) unless VoterType is
// non-empty.
type Voter struct {
	mode     string
	margin   float64
	oneShot  bool
	samples  map[string]voteSample
	winner   string
	won      map[string]bool
}

// NewVoter builds a Voter from a Node's voting configuration. An empty
// voterType disables voting entirely, matching the stock default of no
// [voter] stanza.
func NewVoter(voterType string, margin float64, oneShot bool) *Voter {
	return &Voter{
		mode:    voterType,
		margin:  margin,
		oneShot: oneShot,
		samples: make(map[string]voteSample),
		won:     make(map[string]bool),
	}
}

// Enabled reports whether RSSI voting is configured for this Node.
func (v *Voter) Enabled() bool {
	return v != nil && v.mode != ""
}

// Observe records a link's most recent RSSI reading (spec §4.1.2
// "samples each voter-flagged link's RSSI once per voice frame").
func (v *Voter) Observe(linkName string, rssi int) {
	if v == nil {
		return
	}
	v.samples[linkName] = voteSample{rssi: rssi, at: time.Now()}
}

// Winner picks the strongest fresh sample, requiring it to beat the
// current winner by margin dB before switching (spec §4.1.2
// "votermargin: minimum advantage in dB before the vote switches away
// from the current winner, to avoid chatter between near-equal
// signals"). One-shot mode (spec's voter_oneshot) locks the winner for
// the duration of a transmission once chosen, via MarkWon.
func (v *Voter) Winner() string {
	if v == nil || len(v.samples) == 0 {
		return ""
	}
	if v.oneShot && v.winner != "" && v.won[v.winner] {
		if s, ok := v.samples[v.winner]; ok && time.Since(s.at) <= voteWindow {
			return v.winner
		}
	}

	best := ""
	bestRSSI := 0
	now := time.Now()
	for name, s := range v.samples {
		if now.Sub(s.at) > voteWindow {
			continue
		}
		if best == "" || s.rssi > bestRSSI {
			best = name
			bestRSSI = s.rssi
		}
	}
	if best == "" {
		return ""
	}

	if v.winner != "" && v.winner != best {
		if cur, ok := v.samples[v.winner]; ok && now.Sub(cur.at) <= voteWindow {
			if float64(bestRSSI-cur.rssi) < v.margin {
				return v.winner
			}
		}
	}

	v.winner = best
	return best
}

// MarkWon latches name as the winner for one-shot mode, cleared at the
// next unkey via Reset.
func (v *Voter) MarkWon(name string) {
	if v == nil {
		return
	}
	v.won[name] = true
}

// Reset clears the latched one-shot winner, called when keying drops
// (spec §4.1.2 "the winner is re-chosen from scratch on the next
// transmission").
func (v *Voter) Reset() {
	if v == nil {
		return
	}
	v.winner = ""
	v.won = make(map[string]bool)
	v.samples = make(map[string]voteSample)
}
