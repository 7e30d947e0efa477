package rpt

import (
	"context"
	"strings"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/link"
	"github.com/dbehnke/rptd/internal/remote"
	"github.com/dbehnke/rptd/internal/telemetry"
)

// CommandFunc is one entry of the shared "cmd" registry (a supplemented
// feature beyond the original verb table): a named operation any Node can
// invoke via DTMF, the control socket, or a macro. It reports success.
type CommandFunc func(n *Node, args string) bool

// commandRegistry is shared across every Node in a process so operators
// can add named commands once (e.g. at startup) and have them available
// to every configured repeater.
var commandRegistry = map[string]CommandFunc{}

// RegisterCommand installs a named command into the shared "cmd" verb
// registry, callable by DTMF as "*cmd name,args" (whatever the owning
// function table maps to the "cmd" verb).
func RegisterCommand(name string, fn CommandFunc) {
	commandRegistry[name] = fn
}

// buildFunctionTables parses the functions/link_functions/phone_functions/
// dphone_functions/alt_functions sections named in p into the per-source
// lookup tables the DTMF dispatcher consults (spec §4.2 "Function
// lookup"). cfg may be nil in tests that exercise a Node without a full
// configuration file, in which case every source gets an empty table.
func buildFunctionTables(p *config.NodeParams, cfg *config.Config) map[dtmf.Source]*dtmf.FunctionTable {
	section := func(name string) config.Section {
		if cfg == nil || name == "" {
			return config.Section{}
		}
		return cfg.Section(name)
	}
	return map[dtmf.Source]*dtmf.FunctionTable{
		dtmf.SourceRPT:    dtmf.ParseFunctionSection(section(p.Functions)),
		dtmf.SourceLink:   dtmf.ParseFunctionSection(section(p.LinkFunctions)),
		dtmf.SourcePhone:  dtmf.ParseFunctionSection(section(p.PhoneFunctions)),
		dtmf.SourceDPhone: dtmf.ParseFunctionSection(section(p.DPhoneFunctions)),
		dtmf.SourceAlt:    dtmf.ParseFunctionSection(section(p.AltFunctions)),
	}
}

// registerVerbs installs the handler for every verb of spec §4.2's table:
// cop, autopatchup, autopatchdn, ilink, status, remote, macro, playback,
// localplay, meter, userout, cmd.
func (n *Node) registerVerbs() {
	n.DTMF.Register("cop", n.verbCop)
	n.DTMF.Register("autopatchup", n.verbAutopatchUp)
	n.DTMF.Register("autopatchdn", n.verbAutopatchDn)
	n.DTMF.Register("ilink", n.verbIlink)
	n.DTMF.Register("status", n.verbStatus)
	n.DTMF.Register("remote", n.verbRemote)
	n.DTMF.Register("macro", n.verbMacro)
	n.DTMF.Register("playback", n.verbPlayback)
	n.DTMF.Register("localplay", n.verbLocalplay)
	n.DTMF.Register("meter", n.verbMeter)
	n.DTMF.Register("userout", n.verbUserout)
	n.DTMF.Register("cmd", n.verbCmd)
}

func (n *Node) complete(mode telemetry.Mode) dtmf.Result {
	n.stats.incrementExecutedCommand()
	n.Telemetry.Enqueue(context.Background(), mode, "", nil)
	return dtmf.Complete
}

// verbCop implements spec §4.2's privileged control-operator verb: each
// leading digit of args selects a sub-function, matching the stock
// app_rpt cop numbering (1=disable TX, 2=enable TX, 4=alternate tail,
// 5=normal tail, 6=select sys-state).
func (n *Node) verbCop(src dtmf.Source, args string) dtmf.Result {
	fields := config.Explode(args, ',')
	if len(fields) == 0 {
		return dtmf.Error
	}
	switch fields[0] {
	case "1":
		n.SysStates.states[n.SysStates.current].TXDisabled = true
	case "2":
		n.SysStates.states[n.SysStates.current].TXDisabled = false
	case "4":
		n.SysStates.states[n.SysStates.current].AltTail = true
	case "5":
		n.SysStates.states[n.SysStates.current].AltTail = false
	case "6":
		if len(fields) < 2 {
			return dtmf.Error
		}
		idx := 0
		for _, c := range fields[1] {
			if c < '0' || c > '9' {
				return dtmf.Error
			}
			idx = idx*10 + int(c-'0')
		}
		if !n.SysStates.Select(idx) {
			return dtmf.Error
		}
	default:
		return dtmf.Error
	}
	return n.complete(telemetry.Complete)
}

// verbIlink implements spec §4.2's link-control verb: connect (mode 1
// transceive, 2 monitor), disconnect (3 named, 4 all) and 5 status. Every
// connect it makes is non-permanent; no sub-code requests a permanent link.
func (n *Node) verbIlink(src dtmf.Source, args string) dtmf.Result {
	if len(args) == 0 {
		return dtmf.Error
	}
	sub := args[0]
	rest := args[1:]

	switch sub {
	case '1', '2':
		if rest == "" {
			return dtmf.Error
		}
		mode := link.ModeMonitor
		if sub == '1' {
			mode = link.ModeTransceive
		}
		if n.Links.Find(rest) != nil {
			return n.complete(telemetry.RemAlready)
		}
		if _, err := n.Links.Connect(rest, mode, false); err != nil {
			return dtmf.Error
		}
		return n.complete(telemetry.Connected)
	case '3':
		if rest == "" {
			return dtmf.Error
		}
		l := n.Links.Find(rest)
		if l == nil {
			return n.complete(telemetry.RemNotFound)
		}
		n.Links.Kill(l, link.DiscByUs)
		return n.complete(telemetry.Complete)
	case '4':
		for _, l := range n.Links.All() {
			n.Links.Kill(l, link.DiscByUs)
		}
		return n.complete(telemetry.Complete)
	case '5':
		return n.complete(telemetry.Status)
	default:
		return dtmf.Error
	}
}

// verbStatus implements spec §4.2's status/full-status telemetry verb.
func (n *Node) verbStatus(src dtmf.Source, args string) dtmf.Result {
	mode := telemetry.Status
	if args == "1" {
		mode = telemetry.FullStatus
	}
	n.Telemetry.Enqueue(context.Background(), mode, "", nil)
	return dtmf.CompleteQuiet
}

// verbRemote dispatches to the configured remote-base rig, when one is
// wired (spec §4.6 "frequency entry, memory recall, mode set, offset,
// power level, PL on/off, tune, scan, login"). Without a rig this always
// errors, matching a Node with no [remote] configuration. Sub-verb digits
// follow this Node's own numbering (1 recall, 2 frequency, 3 mode, 4
// offset, 5 power, 6 PL, 7 tune, 8 scan, 9 login); comma-separated fields
// after the digit are sub-verb arguments, per config.Explode.
func (n *Node) verbRemote(src dtmf.Source, args string) dtmf.Result {
	if n.deps.Rig == nil {
		return n.complete(telemetry.RemNotFound)
	}
	fields := config.Explode(args, ',')
	if len(fields) == 0 {
		return dtmf.Error
	}
	rig := n.deps.Rig

	switch fields[0] {
	case "1": // recall memory
		if n.deps.Memory == nil || len(fields) < 2 {
			return dtmf.Error
		}
		idx, ok := parseIntField(fields[1])
		if !ok {
			return dtmf.Error
		}
		ch, err := n.deps.Memory.Get(n.Name, idx)
		if err != nil {
			return n.complete(telemetry.MemNotFound)
		}
		slot := memorySlotFromChannel(ch)
		if !n.checkTxFreq(slot.FreqHz) {
			return n.complete(telemetry.InvFreq)
		}
		if err := remote.RecallMemory(rig, slot); err != nil {
			n.log.Warnw("rpt: recall memory failed", "node", n.Name, "slot", idx, "error", err)
			return n.complete(telemetry.InvFreq)
		}
		n.remote.freqHz = slot.FreqHz
		return n.complete(telemetry.RemGo)

	case "2": // frequency entry
		if len(fields) < 2 {
			return dtmf.Error
		}
		freqHz, ok := parseUintField(fields[1])
		if !ok || !rig.CheckFreq(freqHz) || !n.checkTxFreq(freqHz) {
			return n.complete(telemetry.InvFreq)
		}
		if err := rig.SetFreq(freqHz); err != nil {
			return n.complete(telemetry.InvFreq)
		}
		n.remote.freqHz = freqHz
		return n.complete(telemetry.RemGo)

	case "3": // mode set
		if len(fields) < 2 {
			return dtmf.Error
		}
		if err := rig.SetMode(fields[1]); err != nil {
			return dtmf.Error
		}
		return n.complete(telemetry.RemMode)

	case "4": // offset: 1 simplex, 2 plus, 3 minus
		if len(fields) < 2 {
			return dtmf.Error
		}
		var dir remote.Offset
		switch fields[1] {
		case "1":
			dir = remote.OffsetSimplex
		case "2":
			dir = remote.OffsetPlus
		case "3":
			dir = remote.OffsetMinus
		default:
			return dtmf.Error
		}
		if err := rig.SetOffset(dir, offsetMagnitudeHz(n.P, n.remote.freqHz)); err != nil {
			return dtmf.Error
		}
		return n.complete(telemetry.SetRemote)

	case "5": // power level
		if len(fields) < 2 {
			return dtmf.Error
		}
		level, ok := parseIntField(fields[1])
		if !ok {
			return dtmf.Error
		}
		if err := rig.SetPower(level); err != nil {
			return dtmf.Error
		}
		return n.complete(telemetry.SetRemote)

	case "6": // PL on/off: txOn, rxOn (optional, defaults to txOn), tone tenths Hz (optional)
		if len(fields) < 2 {
			return dtmf.Error
		}
		txOn := fields[1] == "1"
		rxOn := txOn
		if len(fields) >= 3 {
			rxOn = fields[2] == "1"
		}
		toneTenths := 0
		if len(fields) >= 4 {
			t, ok := parseIntField(fields[3])
			if !ok {
				return dtmf.Error
			}
			toneTenths = t
		}
		if err := rig.SetCTCSS(txOn, rxOn, toneTenths); err != nil {
			return dtmf.Error
		}
		return n.complete(telemetry.SetRemote)

	case "7": // tune: re-push the last-commanded frequency to resync a rig
		if n.remote.freqHz == 0 {
			return dtmf.Error
		}
		if err := rig.SetFreq(n.remote.freqHz); err != nil {
			return dtmf.Error
		}
		return n.complete(telemetry.Tune)

	case "8": // scan: up/down at a rate, or stop with no args
		if len(fields) < 2 {
			if n.remote.bumper != nil {
				n.remote.bumper.Stop()
				n.remote.bumper = nil
			}
			return n.complete(telemetry.ScanStat)
		}
		up := fields[1] == "1"
		rate := remote.BumpSlow
		if len(fields) >= 3 {
			switch fields[2] {
			case "1":
				rate = remote.BumpQuick
			case "2":
				rate = remote.BumpFast
			}
		}
		if n.remote.bumper != nil {
			n.remote.bumper.Stop()
		}
		n.remote.bumper = remote.NewBumper(rig, n.remote.freqHz)
		n.remote.bumper.Start(up, rate)
		return n.complete(telemetry.Scan)

	case "9": // login
		if len(fields) < 2 {
			return dtmf.Error
		}
		level := fields[1]
		if len(n.remote.txLimits) > 0 {
			if _, ok := n.remote.txLimits[level]; !ok {
				return n.complete(telemetry.RemXXX)
			}
		}
		n.remote.loginLevel = level
		return n.complete(telemetry.RemLogin)

	default:
		return dtmf.Error
	}
}

// verbMacro appends a macro body to the drain queue, or reports
// MACRO_BUSY if one is already in flight and MACRO_NOTFOUND if the named
// macro isn't configured (spec §4.2 "macro").
func (n *Node) verbMacro(src dtmf.Source, args string) dtmf.Result {
	if n.macro.Len() > 0 {
		n.Telemetry.Enqueue(context.Background(), telemetry.MacroBusy, "", nil)
		return dtmf.CompleteQuiet
	}
	body := n.macroDefs.String(args, "")
	if body == "" {
		n.Telemetry.Enqueue(context.Background(), telemetry.MacroNotFound, "", nil)
		return dtmf.CompleteQuiet
	}
	n.macro.Push(body)
	return dtmf.CompleteQuiet
}

// verbPlayback and verbLocalplay implement spec §4.2's named sound-file
// triggers, differing only in the telemetry mode they announce.
func (n *Node) verbPlayback(src dtmf.Source, args string) dtmf.Result {
	n.Telemetry.Enqueue(context.Background(), telemetry.Playback, args, nil)
	return n.complete(telemetry.Playback)
}

func (n *Node) verbLocalplay(src dtmf.Source, args string) dtmf.Result {
	n.Telemetry.Enqueue(context.Background(), telemetry.LocalPlay, args, nil)
	return n.complete(telemetry.LocalPlay)
}

// verbMeter and verbUserout implement spec §4.2's DAQ metering and
// digital-out verbs. Neither has a DAQ backend wired yet, so both just
// announce the query/command ran.
func (n *Node) verbMeter(src dtmf.Source, args string) dtmf.Result {
	n.Telemetry.Enqueue(context.Background(), telemetry.Meter, args, nil)
	return dtmf.CompleteQuiet
}

func (n *Node) verbUserout(src dtmf.Source, args string) dtmf.Result {
	n.Telemetry.Enqueue(context.Background(), telemetry.UserOut, args, nil)
	return n.complete(telemetry.UserOut)
}

// verbCmd implements the supplemented "cmd" verb: look up args in the
// shared command registry and run it against this Node.
func (n *Node) verbCmd(src dtmf.Source, args string) dtmf.Result {
	name, rest, _ := strings.Cut(args, ",")
	fn, ok := commandRegistry[name]
	if !ok {
		return dtmf.Error
	}
	if !fn(n, rest) {
		return dtmf.Error
	}
	return n.complete(telemetry.Complete)
}

// verbAutopatchUp and verbAutopatchDn are stubs of spec §4.2's phone-patch
// call-mode state machine: a Node with no telephony transport configured
// can still accept the verbs (so function tables referencing them don't
// ERROR) but has nothing to dial out on.
func (n *Node) verbAutopatchUp(src dtmf.Source, args string) dtmf.Result {
	return n.complete(telemetry.RemNotFound)
}

func (n *Node) verbAutopatchDn(src dtmf.Source, args string) dtmf.Result {
	return dtmf.CompleteQuiet
}
