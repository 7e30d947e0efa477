package rpt

import (
	"time"

	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/link"
)

// handleEvent is spec §4.1 step 2's per-frame dispatch, run inline as
// events arrive rather than batched at the top of an iteration (Go's
// select already interleaves channel reads with the 20ms ticker, so there
// is no need to drain a queue in a single pass the way a poll()-based
// implementation would).
func (n *Node) handleEvent(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch ev.Kind {
	case EventVoice:
		n.handleVoice(ev)
	case EventDTMFBegin:
		n.handleDTMFBegin(ev)
	case EventDTMFEnd:
		// DTMF_END is a no-op for the accumulator (spec §4.2 works off
		// DTMF_BEGIN characters); retained as a distinct event so a
		// future MDC/duration-sensitive handler has somewhere to hook.
	case EventControlKey:
		n.handleControlKey(ev)
	case EventControlUnkey:
		n.handleControlUnkey(ev)
	case EventControlAnswer:
		n.handleControlAnswer(ev)
	case EventText:
		n.handleText(ev)
	case EventHangup:
		n.handleHangup(ev)
	}
}

func (n *Node) handleVoice(ev Event) {
	switch ev.Source {
	case SourceRX:
		if !n.confMemberAllowed() {
			return
		}
		n.VOXRX.Feed(energyOf(ev.Voice))
		n.parrot.Feed(decodeSamples(ev.Voice))
	case SourceLink:
		l := n.Links.Find(ev.LinkName)
		if l == nil || l.Mode == link.ModeLocalMonitor {
			return
		}
		l.LastRX = true
		l.LastRealRX = true
		l.NoteRX()
		if n.Voter.Enabled() {
			n.Voter.Observe(ev.LinkName, ev.RSSI)
		}
	}
}

func (n *Node) handleDTMFBegin(ev Event) {
	src := sourceForDTMF(ev.Source)
	n.DTMF.Process(src, ev.DTMFChar, time.Now())
}

// sourceForDTMF maps the channel-level Source of an arriving DTMF_BEGIN
// event onto the dtmf package's per-verb-table Source (spec §4.2 "State
// per source"); link traffic maps to dtmf.SourceLink and every
// other channel source (RX included) to dtmf.SourceRPT; no channel source
// maps to the phone or dphone tables.
func sourceForDTMF(s Source) dtmf.Source {
	if s == SourceLink {
		return dtmf.SourceLink
	}
	return dtmf.SourceRPT
}

func (n *Node) handleControlKey(ev Event) {
	switch ev.Source {
	case SourceRX:
		n.Keying.RXChanKeyed = true
		n.Keying.ReallyKeyed = true
	case SourceLink:
		if l := n.Links.Find(ev.LinkName); l != nil {
			l.LastRX = true
			l.LastRealRX = true
			l.NoteRX()
		}
	}
}

func (n *Node) handleControlUnkey(ev Event) {
	switch ev.Source {
	case SourceRX:
		n.Keying.RXChanKeyed = false
	case SourceLink:
		if l := n.Links.Find(ev.LinkName); l != nil {
			l.LastRX = false
			l.NoteUnkey()
		}
	}
}

func (n *Node) handleControlAnswer(ev Event) {
	l := n.Links.Find(ev.LinkName)
	if l == nil {
		return
	}
	if err := n.Links.OnAnswer(l); err != nil {
		n.log.Warnw("rpt: link answer", "node", n.Name, "link", ev.LinkName, "error", err)
		return
	}
	if n.deps.Hooks != nil {
		n.deps.Hooks.FireConnect(n.Name, ev.LinkName)
	}
	if n.deps.History != nil {
		_ = n.deps.History.Record(n.Name, ev.LinkName, l.Outbound, database.LinkEventConnect)
	}
}

func (n *Node) handleText(ev Event) {
	n.dispatchLinkText(ev.LinkName, ev.Text)
}

func (n *Node) handleHangup(ev Event) {
	if ev.Source != SourceLink {
		return
	}
	l := n.Links.Find(ev.LinkName)
	if l == nil {
		return
	}
	n.Links.Kill(l, link.DiscByPeer)
	if n.deps.Hooks != nil {
		n.deps.Hooks.FireDisconnect(n.Name, ev.LinkName)
	}
	if n.deps.History != nil {
		_ = n.deps.History.Record(n.Name, ev.LinkName, l.Outbound, database.LinkEventDisconnect)
	}
}

// evaluateKeying is spec §4.1 step 3: "keyed = rxchankeyed ∨ ∃ link with
// mode=transceive ∧ lastrx ∧ not local-monitor", with voter arbitration
// substituting for a plain OR across link RX when voting is enabled (spec
// §4.1.2).
func (n *Node) evaluateKeying() {
	keyed := n.Keying.RXChanKeyed

	if n.Voter.Enabled() {
		if winner := n.Voter.Winner(); winner != "" {
			keyed = true
			n.Voter.MarkWon(winner)
		}
	} else {
		for _, l := range n.Links.All() {
			if l.Mode == link.ModeTransceive && l.LastRX {
				keyed = true
				break
			}
		}
	}

	wasKeyed := n.Keying.Keyed
	n.Keying.Keyed = keyed

	if keyed && !wasKeyed {
		n.onKeyUp()
	} else if !keyed && wasKeyed {
		n.onUnkey()
	}
}

// KerchunkThreshold is the minimum keyed duration below which a keyup
// counts as a kerchunk rather than real traffic (spec §3.1 "daily/total
// kerchunks").
const KerchunkThreshold = time.Second

func (n *Node) onKeyUp() {
	n.stats.incrementKeyup()
	n.Keying.KeyedAt = time.Now()
	n.Timers.KeyedTime.Start(0)
	if n.P.Parrot != 0 {
		n.parrot.StartRecording()
	}
	if n.P.Duplex >= DuplexHalf {
		n.Keying.TXKeyed = true
		n.Timers.Timeout.Start(n.P.TOTime)
	}
}

func (n *Node) onUnkey() {
	held := time.Since(n.Keying.KeyedAt)
	if held < KerchunkThreshold {
		n.stats.incrementKerchunk()
	} else {
		n.stats.addTXSeconds(held.Seconds())
	}
	n.parrot.StopRecording(n.P.ParrotTime)
	n.Timers.Tail.Start(n.hangTime())
	n.Voter.Reset()
}

func (n *Node) hangTime() time.Duration {
	if n.SysStates.Current().AltTail {
		return n.P.AltHangTime
	}
	return n.P.HangTime
}

// confMemberAllowed implements the per-duplex conference membership rule
// of spec §4.1.1: whether RX audio is accepted onto the conference right
// now.
func (n *Node) confMemberAllowed() bool {
	if n.P.Duplex == DuplexSimplex && n.Keying.TXKeyed {
		return false
	}
	return true
}

// Duplex values per spec §4.1.1.
const (
	DuplexSimplex         = 0
	DuplexSimplexPassthru = 1
	DuplexHalf            = 2
	DuplexFullMuted       = 3
	DuplexFullMixed       = 4
)

// AnnounceMuted reports whether local telemetry must stay off the
// conference while RX is active, per spec §4.1.1 "3: full-duplex with
// announcements muted during local RX."
func (n *Node) AnnounceMuted() bool {
	return n.P.Duplex == DuplexFullMuted && n.Keying.RXChanKeyed
}

// energyOf computes a crude RMS-like energy measure over a signed-16-bit
// PCM buffer for VOX (spec §4.1.3), operating on the raw byte payload a
// transport hands up (little-endian signed samples).
func energyOf(samples []byte) float64 {
	var sum float64
	n := len(samples) / 2
	for i := 0; i+1 < len(samples); i += 2 {
		v := int16(uint16(samples[i]) | uint16(samples[i+1])<<8)
		f := float64(v)
		sum += f * f
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// decodeSamples unpacks a little-endian signed-16-bit PCM byte buffer, the
// form every transport hands voice frames up in.
func decodeSamples(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return out
}
