package rpt

import (
	"testing"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/remote"
	"github.com/dbehnke/rptd/internal/telemetry"
)

// fakeRig is a minimal remote.Rig double for exercising verbRemote without
// a real serial transport.
type fakeRig struct {
	freqHz     uint64
	mode       string
	offsetDir  remote.Offset
	offsetMag  uint64
	power      int
	txOn, rxOn bool
	toneTenths int
	rejectFreq uint64
}

func (r *fakeRig) Tag() string { return "fake" }
func (r *fakeRig) SetFreq(freqHz uint64) error {
	r.freqHz = freqHz
	return nil
}
func (r *fakeRig) SetMode(mode string) error {
	r.mode = mode
	return nil
}
func (r *fakeRig) SetOffset(dir remote.Offset, magnitudeHz uint64) error {
	r.offsetDir = dir
	r.offsetMag = magnitudeHz
	return nil
}
func (r *fakeRig) SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error {
	r.txOn, r.rxOn, r.toneTenths = txOn, rxOn, toneTenthsHz
	return nil
}
func (r *fakeRig) SetPower(level int) error {
	r.power = level
	return nil
}
func (r *fakeRig) CheckFreq(freqHz uint64) bool { return freqHz != r.rejectFreq }
func (r *fakeRig) Close() error                 { return nil }

func TestVerbCopDisablesAndEnablesTX(t *testing.T) {
	n := testNode(t, nil)

	if res := n.verbCop(dtmf.SourceRPT, "1"); res != dtmf.Complete {
		t.Fatalf("expected cop 1 to complete, got %v", res)
	}
	if !n.SysStates.Current().TXDisabled {
		t.Fatalf("expected cop 1 to disable TX")
	}

	if res := n.verbCop(dtmf.SourceRPT, "2"); res != dtmf.Complete {
		t.Fatalf("expected cop 2 to complete, got %v", res)
	}
	if n.SysStates.Current().TXDisabled {
		t.Fatalf("expected cop 2 to re-enable TX")
	}
}

func TestVerbCopSelectsSysState(t *testing.T) {
	n := testNode(t, nil)
	n.SysStates.states[3].AltTail = true

	if res := n.verbCop(dtmf.SourceRPT, "6,3"); res != dtmf.Complete {
		t.Fatalf("expected cop 6,3 to complete, got %v", res)
	}
	if n.SysStates.CurrentIndex() != 3 {
		t.Fatalf("expected sys-state switched to 3, got %d", n.SysStates.CurrentIndex())
	}
}

func TestVerbCopRejectsUnknownSubcode(t *testing.T) {
	n := testNode(t, nil)
	if res := n.verbCop(dtmf.SourceRPT, "9"); res != dtmf.Error {
		t.Fatalf("expected unknown cop subcode to error, got %v", res)
	}
}

func TestVerbIlinkConnectsAndRejectsDuplicate(t *testing.T) {
	n := testNode(t, nil)

	if res := n.verbIlink(dtmf.SourceRPT, "1link-a"); res != dtmf.Complete {
		t.Fatalf("expected ilink 1 connect to complete, got %v", res)
	}
	if n.Links.Find("link-a") == nil {
		t.Fatalf("expected link-a registered after ilink 1")
	}

	if res := n.verbIlink(dtmf.SourceRPT, "1link-a"); res != dtmf.Complete {
		t.Fatalf("expected duplicate ilink 1 to announce REM_ALREADY, got %v", res)
	}
}

func TestVerbIlinkDisconnectsNamed(t *testing.T) {
	n := testNode(t, nil)
	n.verbIlink(dtmf.SourceRPT, "1link-a")

	if res := n.verbIlink(dtmf.SourceRPT, "3link-a"); res != dtmf.Complete {
		t.Fatalf("expected ilink 3 disconnect to complete, got %v", res)
	}
	if n.Links.Find("link-a") == nil {
		t.Fatalf("expected link-a to remain registered until the reaper removes it")
	}
	if l := n.Links.Find("link-a"); !n.Links.ShouldDestroy(l) {
		t.Fatalf("expected link-a marked for destruction after ilink 3")
	}
}

func TestVerbIlinkDisconnectUnknownReportsNotFound(t *testing.T) {
	n := testNode(t, nil)
	if res := n.verbIlink(dtmf.SourceRPT, "3missing"); res != dtmf.Complete {
		t.Fatalf("expected disconnecting an unknown link to announce REM_NOTFOUND, got %v", res)
	}
}

func TestVerbMacroBusyThenQueued(t *testing.T) {
	n := testNode(t, nil)
	n.macroDefs = config.Section{"1": "12#"}

	if res := n.verbMacro(dtmf.SourceRPT, "1"); res != dtmf.CompleteQuiet {
		t.Fatalf("expected macro verb to complete quietly, got %v", res)
	}
	if n.macro.Len() == 0 {
		t.Fatalf("expected macro body queued")
	}

	if res := n.verbMacro(dtmf.SourceRPT, "1"); res != dtmf.CompleteQuiet {
		t.Fatalf("expected a second macro call while busy to still complete quietly, got %v", res)
	}
}

func TestVerbMacroNotFound(t *testing.T) {
	n := testNode(t, nil)
	n.macroDefs = config.Section{}

	if res := n.verbMacro(dtmf.SourceRPT, "99"); res != dtmf.CompleteQuiet {
		t.Fatalf("expected unknown macro number to complete quietly, got %v", res)
	}
	if n.macro.Len() != 0 {
		t.Fatalf("expected nothing queued for an unknown macro")
	}
}

func TestVerbCmdDispatchesRegisteredCommand(t *testing.T) {
	n := testNode(t, nil)
	called := false
	RegisterCommand("test-verb-cmd-ping", func(n *Node, args string) bool {
		called = true
		return args == "pong"
	})

	if res := n.verbCmd(dtmf.SourceRPT, "test-verb-cmd-ping,pong"); res != dtmf.Complete {
		t.Fatalf("expected registered command to complete, got %v", res)
	}
	if !called {
		t.Fatalf("expected registered command function invoked")
	}
}

func TestVerbCmdUnknownNameErrors(t *testing.T) {
	n := testNode(t, nil)
	if res := n.verbCmd(dtmf.SourceRPT, "no-such-command"); res != dtmf.Error {
		t.Fatalf("expected unknown command name to error, got %v", res)
	}
}

func TestVerbStatusFullStatusCompletesQuietly(t *testing.T) {
	n := testNode(t, nil)
	if res := n.verbStatus(dtmf.SourceRPT, "1"); res != dtmf.CompleteQuiet {
		t.Fatalf("expected status verb to complete quietly, got %v", res)
	}
	_ = telemetry.FullStatus // referenced for documentation of the mode this exercises
}

func TestVerbRemoteWithoutRigReportsNotFound(t *testing.T) {
	n := testNode(t, nil)
	if res := n.verbRemote(dtmf.SourceRPT, "2,146520000"); res != dtmf.Complete {
		t.Fatalf("expected remote verb without a rig to complete with REMNOTFOUND, got %v", res)
	}
}

func TestVerbRemoteFrequencyEntryProgramsRig(t *testing.T) {
	n := testNode(t, nil)
	rig := &fakeRig{}
	n.deps.Rig = rig

	if res := n.verbRemote(dtmf.SourceRPT, "2,146520000"); res != dtmf.Complete {
		t.Fatalf("expected frequency entry to complete, got %v", res)
	}
	if rig.freqHz != 146520000 {
		t.Fatalf("expected rig tuned to 146520000, got %d", rig.freqHz)
	}
	if n.remote.freqHz != 146520000 {
		t.Fatalf("expected Node to track the last-commanded frequency")
	}
}

func TestVerbRemoteFrequencyEntryRejectedByCheckFreq(t *testing.T) {
	n := testNode(t, nil)
	rig := &fakeRig{rejectFreq: 146520000}
	n.deps.Rig = rig

	if res := n.verbRemote(dtmf.SourceRPT, "2,146520000"); res != dtmf.Complete {
		t.Fatalf("expected rejected frequency to still complete with INVFREQ, got %v", res)
	}
	if rig.freqHz != 0 {
		t.Fatalf("expected rig never programmed for a rejected frequency")
	}
}

func TestVerbRemoteModeOffsetPowerAndPL(t *testing.T) {
	n := testNode(t, nil)
	rig := &fakeRig{}
	n.deps.Rig = rig
	n.remote.freqHz = 146520000

	if res := n.verbRemote(dtmf.SourceRPT, "3,FM"); res != dtmf.Complete || rig.mode != "FM" {
		t.Fatalf("expected mode set to FM, got result=%v mode=%q", res, rig.mode)
	}
	if res := n.verbRemote(dtmf.SourceRPT, "4,2"); res != dtmf.Complete || rig.offsetDir != remote.OffsetPlus || rig.offsetMag != 600_000 {
		t.Fatalf("expected plus offset at 600kHz, got result=%v dir=%v mag=%d", res, rig.offsetDir, rig.offsetMag)
	}
	if res := n.verbRemote(dtmf.SourceRPT, "5,5"); res != dtmf.Complete || rig.power != 5 {
		t.Fatalf("expected power level 5, got result=%v power=%d", res, rig.power)
	}
	if res := n.verbRemote(dtmf.SourceRPT, "6,1,1,670"); res != dtmf.Complete || !rig.txOn || !rig.rxOn || rig.toneTenths != 670 {
		t.Fatalf("expected PL on both ways at 67.0Hz, got result=%v tx=%v rx=%v tone=%d", res, rig.txOn, rig.rxOn, rig.toneTenths)
	}
}

func TestVerbRemoteScanStartsAndStopsBumper(t *testing.T) {
	n := testNode(t, nil)
	rig := &fakeRig{}
	n.deps.Rig = rig
	n.remote.freqHz = 146520000

	if res := n.verbRemote(dtmf.SourceRPT, "8,1,0"); res != dtmf.Complete {
		t.Fatalf("expected scan start to complete, got %v", res)
	}
	if n.remote.bumper == nil {
		t.Fatalf("expected an active bumper after scan start")
	}

	if res := n.verbRemote(dtmf.SourceRPT, "8"); res != dtmf.Complete {
		t.Fatalf("expected scan stop to complete, got %v", res)
	}
	if n.remote.bumper != nil {
		t.Fatalf("expected bumper cleared after scan stop")
	}
}

func TestVerbRemoteLoginGatesUnknownLevel(t *testing.T) {
	n := testNode(t, nil)
	rig := &fakeRig{}
	n.deps.Rig = rig
	n.remote.txLimits = map[string][]config.TxRange{
		"base": {{LoHz: 144_000_000, HiHz: 148_000_000}},
	}

	if res := n.verbRemote(dtmf.SourceRPT, "9,nosuch"); res != dtmf.Complete {
		t.Fatalf("expected unknown login level to still complete (REMXXX), got %v", res)
	}
	if n.remote.loginLevel != "" {
		t.Fatalf("expected login level unchanged after an unknown level")
	}

	if res := n.verbRemote(dtmf.SourceRPT, "9,base"); res != dtmf.Complete {
		t.Fatalf("expected known login level to complete, got %v", res)
	}
	if n.remote.loginLevel != "base" {
		t.Fatalf("expected login level set to base, got %q", n.remote.loginLevel)
	}

	if res := n.verbRemote(dtmf.SourceRPT, "2,146520000"); res != dtmf.Complete {
		t.Fatalf("expected in-range frequency entry to complete, got %v", res)
	}
	if rig.freqHz != 146520000 {
		t.Fatalf("expected rig tuned once logged into a level permitting 2m, got %d", rig.freqHz)
	}

	if res := n.verbRemote(dtmf.SourceRPT, "2,222000000"); res != dtmf.Complete {
		t.Fatalf("expected out-of-band frequency entry to complete with INVFREQ, got %v", res)
	}
	if rig.freqHz != 146520000 {
		t.Fatalf("expected rig left untouched for an out-of-band frequency, got %d", rig.freqHz)
	}
}
