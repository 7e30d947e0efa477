package remote

import (
	"bytes"
	"io"
	"testing"

	"github.com/dbehnke/rptd/internal/config"
)

// fakePort is an in-memory Transport recording every write.
type fakePort struct {
	writes [][]byte
}

func (f *fakePort) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	f.writes = append(f.writes, cp)
	return len(p), nil
}
func (f *fakePort) Read(p []byte) (int, error) { return 0, io.EOF }
func (f *fakePort) Close() error                { return nil }

func (f *fakePort) last() []byte {
	if len(f.writes) == 0 {
		return nil
	}
	return f.writes[len(f.writes)-1]
}

func TestPackUnpackBCDRoundTrip(t *testing.T) {
	got := packBCD(146520000/10, 8)
	want := []byte{0x01, 0x46, 0x52, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("packBCD = % x, want % x", got, want)
	}
	if unpackBCD(got) != 146520000/10 {
		t.Fatalf("unpackBCD round trip mismatch")
	}
}

func TestFT897SetFreq(t *testing.T) {
	port := &fakePort{}
	rig := NewFT897(port)
	if !rig.CheckFreq(146_520_000) {
		t.Fatalf("expected 146.52MHz to be in range")
	}
	if err := rig.SetFreq(146_520_000); err != nil {
		t.Fatalf("SetFreq: %v", err)
	}
	frame := port.last()
	if len(frame) != 5 || frame[4] != catCmdSetFreq {
		t.Fatalf("unexpected frame: % x", frame)
	}
}

func TestFT897RejectsOffResolutionFreq(t *testing.T) {
	rig := NewFT897(&fakePort{})
	if err := rig.SetFreq(146_520_005); err == nil {
		t.Fatalf("expected rejection of non-10Hz-aligned frequency")
	}
}

func TestFT950CommandStrings(t *testing.T) {
	port := &fakePort{}
	rig := NewFT950(port)
	if err := rig.SetFreq(146520000); err != nil {
		t.Fatalf("SetFreq: %v", err)
	}
	if string(port.last()) != "FA146520000;" {
		t.Fatalf("got %q", port.last())
	}
	if err := rig.SetMode("FM"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if string(port.last()) != "MD04;" {
		t.Fatalf("got %q", port.last())
	}
}

func TestIC706CIVFraming(t *testing.T) {
	port := &fakePort{}
	rig := NewIC706(port, 0x58)
	if err := rig.SetMode("FM"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	frame := port.last()
	if frame[0] != civPreamble || frame[1] != civPreamble {
		t.Fatalf("missing CI-V preamble: % x", frame)
	}
	if frame[2] != 0x58 || frame[3] != civControllerAddr {
		t.Fatalf("unexpected address bytes: % x", frame)
	}
	if frame[len(frame)-1] != civTerminator {
		t.Fatalf("missing CI-V terminator: % x", frame)
	}
	cmd, data, err := parseCIV(frame)
	if err != nil {
		t.Fatalf("parseCIV: %v", err)
	}
	if cmd != civCmdSetMode || data[0] != 0x05 {
		t.Fatalf("unexpected parsed CI-V: cmd=%x data=% x", cmd, data)
	}
}

func TestXcatUsesOffsetFreqSubcommand(t *testing.T) {
	port := &fakePort{}
	rig := NewXcat(port, 0x58)
	if err := rig.SetOffset(OffsetPlus, 600_000); err != nil {
		t.Fatalf("SetOffset: %v", err)
	}
	frame := port.last()
	cmd, _, err := parseCIV(frame)
	if err != nil {
		t.Fatalf("parseCIV: %v", err)
	}
	if cmd != civCmdOffsetFrq {
		t.Fatalf("expected xcat-specific offset-frequency subcommand, got %x", cmd)
	}
}

func TestKenwoodPLTableLookup(t *testing.T) {
	port := &fakePort{}
	rig := NewKenwood(port)
	if err := rig.SetCTCSS(true, true, 670); err != nil {
		t.Fatalf("SetCTCSS: %v", err)
	}
	if string(port.last()) != "TO 1,1,1 " {
		t.Fatalf("got %q", port.last())
	}
}

func TestKenwoodRejectsUnknownTone(t *testing.T) {
	rig := NewKenwood(&fakePort{})
	if err := rig.SetCTCSS(true, false, 1); err == nil {
		t.Fatalf("expected rejection of tone not in the 1..40 table")
	}
}

func TestRBIFrameLayout(t *testing.T) {
	port := &fakePort{}
	rig := NewRBI(port)
	if err := rig.SetOffset(OffsetPlus, 600_000); err != nil {
		t.Fatalf("SetOffset: %v", err)
	}
	if err := rig.SetPower(10); err != nil {
		t.Fatalf("SetPower: %v", err)
	}
	if err := rig.SetFreq(146_520_000); err != nil {
		t.Fatalf("SetFreq: %v", err)
	}
	frame := port.last()
	if len(frame) != 5 {
		t.Fatalf("expected 5-byte RBI frame, got %d bytes", len(frame))
	}
	if frame[0] != 1 {
		t.Fatalf("expected VHF band code 1, got %d", frame[0])
	}
	if frame[3]>>4 != 0x01 {
		t.Fatalf("expected plus-offset bits, got % x", frame[3])
	}
}

func TestRBIRejectsUnsupportedBand(t *testing.T) {
	rig := NewRBI(&fakePort{})
	if err := rig.SetFreq(28_400_000); err == nil {
		t.Fatalf("expected rejection of a frequency outside VHF/UHF bands")
	}
}

func TestInBandTextCommands(t *testing.T) {
	port := &fakePort{}
	rig := NewRTX150(port)
	if err := rig.SetFreq(146_520_000); err != nil {
		t.Fatalf("SetFreq: %v", err)
	}
	if string(port.last()) != "SETFREQ 146520000\n" {
		t.Fatalf("got %q", port.last())
	}
}

func TestNewRigDispatchesAllTags(t *testing.T) {
	tags := []string{"ft897", "ft100", "ft950", "ic706", "xcat", "kenwood", "tmd700", "tm271", "rbi", "rtx150", "rtx450", "ppp16"}
	for _, tag := range tags {
		rig, err := NewRig(tag, &fakePort{}, 0x58)
		if err != nil {
			t.Fatalf("NewRig(%q): %v", tag, err)
		}
		if rig.Tag() != tag {
			t.Fatalf("NewRig(%q) produced rig tagged %q", tag, rig.Tag())
		}
	}
}

func TestNewRigUnknownTag(t *testing.T) {
	if _, err := NewRig("bogus", &fakePort{}, 0); err != ErrUnsupportedTag {
		t.Fatalf("expected ErrUnsupportedTag, got %v", err)
	}
}

func TestRecallMemory(t *testing.T) {
	port := &fakePort{}
	rig := NewFT897(port)
	slot := config.MemorySlot{
		Index: 1, FreqHz: 146_520_000, OffsetChar: 'S', Mode: "FM",
		Power: 5, PLOn: true, RXPLOn: false, TXPL: "67.0", RXPL: "67.0",
	}
	if err := RecallMemory(rig, slot); err != nil {
		t.Fatalf("RecallMemory: %v", err)
	}
	if len(port.writes) != 5 {
		t.Fatalf("expected 5 CAT commands (freq/mode/offset/power/ctcss), got %d", len(port.writes))
	}
}

func TestCheckTxFreq(t *testing.T) {
	limits := map[string][]config.TxRange{
		"user": {{LoHz: 144_000_000, HiHz: 148_000_000}},
	}
	if !CheckTxFreq(limits, "user", 146_520_000) {
		t.Fatalf("expected 146.52MHz to be within user TX limits")
	}
	if CheckTxFreq(limits, "user", 50_000_000) {
		t.Fatalf("expected 50MHz to be rejected for user level")
	}
	if CheckTxFreq(limits, "admin", 146_520_000) {
		t.Fatalf("expected unknown login level to be rejected")
	}
}

func TestBumperSteps(t *testing.T) {
	rig := NewFT897(&fakePort{})
	b := NewBumper(rig, 146_500_000)
	b.Start(true, BumpFast)
	b.Stop()
	if b.Current() < 146_500_000 {
		t.Fatalf("expected frequency to have advanced or stayed, got %d", b.Current())
	}
}
