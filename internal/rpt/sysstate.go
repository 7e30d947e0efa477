package rpt

import (
	"strings"

	"github.com/dbehnke/rptd/internal/config"
)

// SysState is one s0..s9 toggle set (spec §3.1 "Sys-state bank"): the
// comma-separated disable bits named in that section, parsed once at
// load time.
type SysState struct {
	TXDisabled             bool
	TimeoutDisabled        bool
	LinkDisabled           bool
	AutopatchDisabled      bool
	SchedulerDisabled      bool
	UserFuncsDisabled      bool
	AltTail                bool
	NoIncomingConnections  bool
	SleepEnabled           bool
}

func parseSysState(raw string) SysState {
	var s SysState
	for _, tok := range config.Explode(raw, ',') {
		switch strings.ToLower(tok) {
		case "txdisable":
			s.TXDisabled = true
		case "timeoutdisable":
			s.TimeoutDisabled = true
		case "linkdisable":
			s.LinkDisabled = true
		case "autopatchdisable":
			s.AutopatchDisabled = true
		case "schedulerdisable":
			s.SchedulerDisabled = true
		case "userfuncsdisable":
			s.UserFuncsDisabled = true
		case "alternatetail", "alttail":
			s.AltTail = true
		case "noincomingconns":
			s.NoIncomingConnections = true
		case "sleepenable":
			s.SleepEnabled = true
		}
	}
	return s
}

// SysStateBank holds the ten sys-states (spec §3.1) and which one is
// selected, plus the derived sleep/awake flag that serviceSleep toggles.
type SysStateBank struct {
	states  [10]SysState
	current int
	asleep  bool
}

// NewSysStateBank parses every s0..s9 entry of p and selects s0.
func NewSysStateBank(p *config.NodeParams) *SysStateBank {
	b := &SysStateBank{}
	for i, raw := range p.SysStates {
		b.states[i] = parseSysState(raw)
	}
	return b
}

// Current returns the selected sys-state.
func (b *SysStateBank) Current() SysState {
	return b.states[b.current]
}

// Select switches the active sys-state (the "cop,6"/sysstate verb of
// spec §4.2/§6.4). An index outside s0..s9 is rejected: Select returns
// false and the selection is unchanged.
func (b *SysStateBank) Select(n int) bool {
	if n < 0 || n > 9 {
		return false
	}
	b.current = n
	return true
}

// CurrentIndex reports which sys-state is selected, for status/telemetry.
func (b *SysStateBank) CurrentIndex() int {
	return b.current
}
