package link

import (
	"container/list"
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/rptd/internal/timer"
)

// Manager owns the set of active links for one Node (spec §3.2 "Ownership:
// the Node exclusively owns each Link"). All mutation goes through the
// caller's Node mutex (spec §5); Manager itself does no internal locking,
// matching "cross-link traversal takes the Node mutex" — it is deliberately
// not safe for concurrent use from two goroutines without that external
// lock.
type Manager struct {
	SelfName string

	links *list.List // *Link elements, insertion order

	// LinkListTime/ShortTime drive gossip cadence (spec §4.3.4).
	LinkListTime      time.Duration
	LinkListShortTime time.Duration

	gossipTimer *timer.Countdown
}

// NewManager creates an empty link set for the named node.
func NewManager(selfName string, linkListTime, linkListShortTime time.Duration) *Manager {
	m := &Manager{
		SelfName:          selfName,
		links:             list.New(),
		LinkListTime:      linkListTime,
		LinkListShortTime: linkListShortTime,
		gossipTimer:       timer.New(),
	}
	m.gossipTimer.Start(linkListTime)
	return m
}

// Add inserts l into the managed set.
func (m *Manager) Add(l *Link) {
	m.links.PushBack(l)
}

// Remove deletes l from the managed set (spec §8 "for every link creation
// there is exactly one link destruction").
func (m *Manager) Remove(l *Link) {
	for e := m.links.Front(); e != nil; e = e.Next() {
		if e.Value.(*Link) == l {
			m.links.Remove(e)
			return
		}
	}
}

// Find returns the link with the given name, or nil.
func (m *Manager) Find(name string) *Link {
	for e := m.links.Front(); e != nil; e = e.Next() {
		l := e.Value.(*Link)
		if l.Name == name {
			return l
		}
	}
	return nil
}

// All returns every managed link in insertion order.
func (m *Manager) All() []*Link {
	out := make([]*Link, 0, m.links.Len())
	for e := m.links.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Link))
	}
	return out
}

// Len reports the number of managed links.
func (m *Manager) Len() int {
	return m.links.Len()
}

// TransceiveNames returns the names of every connected transceive-mode link,
// used to build the "L" gossip CSV (spec §4.3.4).
func (m *Manager) TransceiveNames() []string {
	var out []string
	for _, l := range m.All() {
		if l.Mode == ModeTransceive && l.Connected {
			out = append(out, l.Name)
		}
	}
	return out
}

// GossipLine builds the "L <self> <csv>" message to broadcast every
// LinkListTime (spec §4.3.4).
func (m *Manager) GossipLine() string {
	csv := strings.Join(m.TransceiveNames(), ",")
	return Msg{Kind: MsgLinkList, Src: m.SelfName, List: csv}.Format()
}

// Broadcast sends line to every connected link except excludeName (the
// flooding rule of spec §4.3.3), using each link's TextWriter.
func (m *Manager) Broadcast(line string, excludeName string) {
	for _, l := range m.All() {
		if l.Name == excludeName || !l.Connected || l.Writer == nil {
			continue
		}
		_ = l.Writer.WriteText(line)
	}
}

// Connect starts an outbound connect attempt, transitioning the new link
// into CONNECT_PENDING per spec §4.3.1. The caller is responsible for
// actually requesting the underlying network channel; Connect only builds
// and registers the bookkeeping object.
func (m *Manager) Connect(name string, mode Mode, perma bool) (*Link, error) {
	if m.Find(name) != nil {
		return nil, fmt.Errorf("link: %s already connected or connecting", name)
	}
	l := New(name, mode, true, perma)
	l.State = StateConnectPending
	l.ConnectInProg = true
	l.RetryTimer.Start(time.Millisecond) // armed immediately; caller reschedules
	l.RetransmitTimer.Start(linkListShortTimeOr(m))
	m.Add(l)
	return l, nil
}

// linkListShortTimeOr falls back to a sane default when a Manager is
// constructed with a zero LinkListShortTime (as in tests that don't care
// about gossip cadence), so RetransmitTimer is never armed for a no-op
// zero duration.
func linkListShortTimeOr(m *Manager) time.Duration {
	if m.LinkListShortTime <= 0 {
		return RetryInterval
	}
	return m.LinkListShortTime
}

// OnAnswer transitions an outbound link from CONNECT_PENDING to CONNECTED
// on receipt of AST_CONTROL_ANSWER (spec §4.3.1), writes the newkey text,
// and arms the newkey grace timer.
func (m *Manager) OnAnswer(l *Link) error {
	if l.State != StateConnectPending {
		return fmt.Errorf("link: %s: ANSWER received outside CONNECT_PENDING (state=%s)", l.Name, l.State)
	}
	l.State = StateConnected
	l.Connected = true
	l.HasConnected = true
	l.ThisConnected = true
	l.ConnectInProg = false
	l.RetryTimer.Stop()
	l.RetransmitTimer.Stop()

	token := TokenNewKey
	if l.NewKey == NewKeyNotAllowed {
		token = TokenNewKey1
	}
	if l.Writer != nil {
		if err := l.Writer.WriteText(token); err != nil {
			return fmt.Errorf("link: %s: send newkey: %w", l.Name, err)
		}
	}
	l.NewKeyTimer.Start(NewKeyTimeoutMS * time.Millisecond)
	l.RXLingerTimer.Start(RXLingerTimeout)
	return nil
}

// Kill marks l for removal, recording who initiated the disconnect (spec
// §4.3.5 "Hang and disconnect").
func (m *Manager) Kill(l *Link, by DiscBy) {
	l.KillMe = true
	l.Disced = by
	l.State = StateDead
	l.Connected = false
	l.RetryTimer.Stop()
	l.RetransmitTimer.Stop()
	l.RXLingerTimer.Stop()
	l.UnkeyTailTimer.Stop()
}

// OnDialFailure records one failed outbound dial attempt against l's retry
// budget (spec §4.3.1 "connection establishment with retries") and reports
// whether the link should be given up on. A permanent link's
// MaxRetriesPermanent sentinel keeps RetriesExhausted false no matter how
// many attempts pass, so it is simply rearmed for another try; a
// non-permanent link that exhausts MaxRetries is killed outright so
// ShouldDestroy reaps it on the next pass instead of dialing forever.
func (m *Manager) OnDialFailure(l *Link) (giveUp bool) {
	l.Retries++
	if !l.Perma && l.RetriesExhausted() {
		m.Kill(l, DiscByUs)
		return true
	}
	l.RetryTimer.Start(RetryInterval)
	return false
}

// ShouldDestroy reports whether l is ready to be removed from the managed
// set: either explicitly killed, or dead with retries exhausted for a
// non-permanent link.
func (m *Manager) ShouldDestroy(l *Link) bool {
	if l.KillMe {
		return true
	}
	if l.State == StateDead && !l.Perma && l.RetriesExhausted() {
		return true
	}
	return false
}

// Tick advances every link's timers by elapsed and runs the newkey-timeout
// downgrade and link-list gossip cadence (spec §4.3.1, §4.3.2, §4.3.4).
// Callers invoke this once per Node loop iteration under the Node mutex.
func (m *Manager) Tick(elapsed time.Duration) (expiredNewKey []*Link, dueGossip bool) {
	for _, l := range m.All() {
		if l.NewKeyTimer.Running() {
			l.NewKeyTimer.Tick(elapsed)
			if l.NewKeyTimer.Expired() {
				NewKeyTimerExpired(l)
				expiredNewKey = append(expiredNewKey, l)
			}
		}

		l.DiscTimer.Tick(elapsed)
		if l.DiscTimer.Expired() && l.Disced != DiscNone {
			m.Kill(l, l.Disced)
			continue
		}

		// RetryTimer's Expired() gates the next outbound dial attempt;
		// cmd/rptd's dial watcher is the only place with network access to
		// act on it, so Tick only advances the countdown here.
		l.RetryTimer.Tick(elapsed)

		// RetransmitTimer drives the CONNECT_PENDING "resend the connect
		// request at LINKLISTSHORTTIME intervals" cadence of spec §4.3.1;
		// it only matters while still awaiting ANSWER.
		if l.State == StateConnectPending {
			l.RetransmitTimer.Tick(elapsed)
		}

		// UnkeyTailTimer is the quiet grace after the peer's last unkey;
		// once it runs out without fresh RX (NoteRX would have stopped
		// it), RXLingerTimer starts the real dead-air countdown.
		if l.UnkeyTailTimer.Running() {
			l.UnkeyTailTimer.Tick(elapsed)
			if l.UnkeyTailTimer.Expired() && !l.RXLingerTimer.Running() {
				l.RXLingerTimer.Start(RXLingerTimeout)
			}
		}
		if l.RXLingerTimer.Running() {
			l.RXLingerTimer.Tick(elapsed)
			if l.RXLingerTimer.Expired() && l.State == StateConnected {
				m.Kill(l, DiscByUs)
			}
		}
	}

	m.gossipTimer.Tick(elapsed)
	if m.gossipTimer.Expired() {
		m.gossipTimer.Start(m.LinkListTime)
		dueGossip = true
	}
	return
}
