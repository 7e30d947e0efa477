package rpt

import (
	"context"
	"time"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/telemetry"
	"github.com/dbehnke/rptd/internal/timer"
)

// TimerBank bundles every countdown named in spec §3.1 "Timers", so
// Node.iterate can decrement them all in one call (spec §4.1 step 1).
type TimerBank struct {
	Tail          *timer.Countdown
	Timeout       *timer.Countdown
	Ident         *timer.Countdown
	CourtesyScan  *timer.Countdown
	TailMessage   *timer.Countdown
	Scheduler     *timer.Countdown
	LinkActivity  *timer.Countdown
	RptInactivity *timer.Countdown
	Retransmit    *timer.Countdown
	ReReceive     *timer.Countdown
	RXLinger      *timer.Countdown
	Parrot        *timer.Countdown
	KeyedTime     *timer.Countdown
	DTMFLocal     *timer.Countdown
	AntiKerchunk  *timer.Countdown
	Sleep         *timer.Countdown
	Macro         *timer.Countdown
}

// NewTimerBank creates every timer unstarted, arms Ident and Macro, which
// run continuously from Node startup, and also arms RptInactivity,
// LinkActivity and Sleep when p configures a nonzero time for them.
func NewTimerBank(p *config.NodeParams) *TimerBank {
	tb := &TimerBank{
		Tail:          timer.New(),
		Timeout:       timer.New(),
		Ident:         timer.New(),
		CourtesyScan:  timer.New(),
		TailMessage:   timer.New(),
		Scheduler:     timer.New(),
		LinkActivity:  timer.New(),
		RptInactivity: timer.New(),
		Retransmit:    timer.New(),
		ReReceive:     timer.New(),
		RXLinger:      timer.New(),
		Parrot:        timer.New(),
		KeyedTime:     timer.New(),
		DTMFLocal:     timer.New(),
		AntiKerchunk:  timer.New(),
		Sleep:         timer.New(),
		Macro:         timer.New(),
	}
	tb.Ident.Start(p.IDTime)
	if p.RptInactTime > 0 {
		tb.RptInactivity.Start(p.RptInactTime)
	}
	if p.LinkActTime > 0 {
		tb.LinkActivity.Start(p.LinkActTime)
	}
	if p.SleepTime > 0 {
		tb.Sleep.Start(p.SleepTime)
	}
	tb.Macro.Start(MacroTickInterval)
	return tb
}

// MacroTickInterval is the macrotimer cadence of spec §4.1 step 3.
const MacroTickInterval = 100 * time.Millisecond

// Tick advances every timer by elapsed (spec §4.1 step 1).
func (tb *TimerBank) Tick(elapsed time.Duration) {
	for _, c := range []*timer.Countdown{
		tb.Tail, tb.Timeout, tb.Ident, tb.CourtesyScan, tb.TailMessage,
		tb.Scheduler, tb.LinkActivity, tb.RptInactivity, tb.Retransmit,
		tb.ReReceive, tb.RXLinger, tb.Parrot, tb.KeyedTime, tb.DTMFLocal,
		tb.AntiKerchunk, tb.Sleep, tb.Macro,
	} {
		c.Tick(elapsed)
	}
}

// serviceTimers drives spec §4.1 step 4: transmit timeout, hang/tail,
// ident, repeater-inactivity macro, link-activity macro, and sleep.
// Called once per iteration under the Node mutex.
func (n *Node) serviceTimers(elapsed time.Duration) {
	n.serviceTimeout(elapsed)
	n.serviceTail()
	n.serviceIdent()
	n.serviceRptInactivity()
	n.serviceLinkActivity()
	n.serviceSleep()
	n.serviceParrot()
}

// serviceParrot implements spec §4.1 step 4 "Parrot": once StopRecording's
// delay has elapsed, enqueue PARROT telemetry naming the recorded file.
func (n *Node) serviceParrot() {
	path, ok := n.parrot.TakeReady()
	if !ok {
		return
	}
	n.Telemetry.Enqueue(context.Background(), telemetry.Parrot, path, nil)
}

// serviceTimeout implements spec §4.1 step 4's "Transmit timeout": while
// TX has been continuously keyed for totime, assert timeout. The timer
// itself is armed once, at key-up (onKeyUp), so a stale expiry here can
// only mean totime genuinely elapsed, not a timer that was never started.
func (n *Node) serviceTimeout(elapsed time.Duration) {
	if !n.Keying.TXKeyed {
		n.Timers.Timeout.Stop()
		return
	}
	if n.Timers.Timeout.Expired() {
		n.assertTimeout()
	}
}

func (n *Node) assertTimeout() {
	if n.Keying.RXChanKeyed {
		return // hold until RX unkeys, per spec §4.1 step 4
	}
	n.Keying.TXKeyed = false
	n.stats.incrementTimeout()
	n.Telemetry.Enqueue(context.Background(), telemetry.Timeout, "", nil)
}

// serviceTail implements hang time and the scheduled tail message (spec
// §4.1 step 4 "Hang time").
func (n *Node) serviceTail() {
	if n.Keying.RXChanKeyed {
		n.Timers.Tail.Stop()
		return
	}
	if n.Timers.Tail.Expired() && n.Keying.TXKeyed {
		n.Keying.TXKeyed = false
		if n.P.TailMessageTime > 0 {
			n.Timers.TailMessage.Start(n.P.TailMessageTime)
			n.Telemetry.Enqueue(context.Background(), telemetry.TailMsg, "", nil)
		}
	}
}

// serviceIdent implements spec §4.1 step 4 "Ident": when idtimer reaches
// zero and TX or RX is active, enqueue ID telemetry and reload idtime.
func (n *Node) serviceIdent() {
	if !n.Timers.Ident.Expired() {
		return
	}
	if n.Keying.TXKeyed || n.Keying.RXChanKeyed {
		mode := telemetry.ID
		if n.Keying.RXChanKeyed {
			mode = telemetry.IDTalkover
		}
		n.Telemetry.Enqueue(context.Background(), mode, n.P.Callsign, nil)
	}
	n.Timers.Ident.Start(n.P.IDTime)
}

// serviceRptInactivity implements spec §4.1 step 4 "Repeater-inactivity":
// if no RX for rptinacttime, run rptinactmacro into the macro buffer.
func (n *Node) serviceRptInactivity() {
	if n.P.RptInactTime == 0 {
		return
	}
	if n.Keying.RXChanKeyed {
		n.Timers.RptInactivity.Start(n.P.RptInactTime)
		return
	}
	if n.Timers.RptInactivity.Expired() {
		n.macro.Push(n.P.Raw.String("rptinactmacro", ""))
		n.Timers.RptInactivity.Start(n.P.RptInactTime)
	}
}

// serviceLinkActivity implements spec §4.1 step 4 "Link-activity": if a
// link has been active since last mark, run lnkactmacro.
func (n *Node) serviceLinkActivity() {
	if n.P.LinkActTime == 0 {
		return
	}
	active := false
	for _, l := range n.Links.All() {
		if l.LastRX {
			active = true
			break
		}
	}
	if active {
		n.macro.Push(n.P.Raw.String("lnkactmacro", ""))
		n.Timers.LinkActivity.Start(n.P.LinkActTime)
	} else if n.Timers.LinkActivity.Expired() {
		n.Timers.LinkActivity.Start(n.P.LinkActTime)
	}
}

// serviceSleep implements spec §4.1 step 4 "Sleep": when sleepena is set
// and no traffic for sleeptime, transition to sleep; any RX activity
// wakes.
func (n *Node) serviceSleep() {
	if n.P.SleepTime == 0 {
		return
	}
	if n.Keying.RXChanKeyed || n.Keying.TXKeyed {
		n.Timers.Sleep.Start(n.P.SleepTime)
		n.SysStates.asleep = false
		return
	}
	if n.Timers.Sleep.Expired() {
		n.SysStates.asleep = true
	}
}

// Asleep reports whether the Node has gone to sleep (spec §4.1 step 4
// "Sleep ... muting outbound telemetry").
func (n *Node) Asleep() bool {
	return n.SysStates.asleep
}
