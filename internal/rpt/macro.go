package rpt

import (
	"time"

	"github.com/dbehnke/rptd/internal/dtmf"
)

// MacroBuffer is the pending-character queue a "macro" verb or a service
// timer appends to, and drainMacro consumes from one character at a time
// (spec §4.2 "macro" + §4.1 step 3 draining).
type MacroBuffer struct {
	pending []byte
}

// NewMacroBuffer returns an empty buffer.
func NewMacroBuffer() *MacroBuffer {
	return &MacroBuffer{}
}

// Push appends a macro string's characters to the tail of the queue. A
// trailing timer-controlled delay between commands is already handled by
// drainMacro's per-tick draining, so callers need not space them out
// themselves.
func (m *MacroBuffer) Push(s string) {
	if s == "" {
		return
	}
	m.pending = append(m.pending, s...)
}

// Len reports how many characters remain queued, used by the MACRO_BUSY
// telemetry check in spec §4.2's macro verb.
func (m *MacroBuffer) Len() int {
	return len(m.pending)
}

func (m *MacroBuffer) pop() (byte, bool) {
	if len(m.pending) == 0 {
		return 0, false
	}
	c := m.pending[0]
	m.pending = m.pending[1:]
	return c, true
}

// drainMacro consumes one queued character per macrotimer interval and
// feeds it to the DTMF dispatcher as though it arrived from RPT (spec
// §4.1 step 3 "macro buffer draining"). Characters here are raw DTMF/func
// characters, fed to the dispatcher unchanged (a semicolon included;
// nothing strips it).
func (n *Node) drainMacro(elapsed time.Duration) {
	if !n.Timers.Macro.Expired() {
		return
	}
	n.Timers.Macro.Start(MacroTickInterval)

	c, ok := n.macro.pop()
	if !ok {
		return
	}
	n.DTMF.Process(dtmf.SourceRPT, c, time.Now())
}
