package link

import (
	"testing"
	"time"
)

func TestKeyingMessageRoundTrip(t *testing.T) {
	line := "K a b 7 1"
	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := msg.Format(); got != line {
		t.Fatalf("round-trip mismatch: got %q want %q", got, line)
	}
}

func TestKeyingQueryRoundTrip(t *testing.T) {
	line := "K ? src1"
	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !msg.KeyQuery {
		t.Fatalf("expected KeyQuery true")
	}
	if got := msg.Format(); got != line {
		t.Fatalf("round-trip mismatch: got %q want %q", got, line)
	}
}

func TestDTMFMessageParse(t *testing.T) {
	msg, err := Parse("D 0 node1 12 5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Kind != MsgDTMF || msg.DTMFChar != '5' || msg.Dest != "0" {
		t.Fatalf("unexpected parse: %+v", msg)
	}
	if !IsForUs(msg.Dest, "anything") {
		t.Fatalf("dest '0' should address us")
	}
}

func TestLinkListMessage(t *testing.T) {
	msg, err := Parse("L node1 a,b,c")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.List != "a,b,c" {
		t.Fatalf("unexpected list: %q", msg.List)
	}
}

func TestNewKeyHandshakeDowngrade(t *testing.T) {
	l := New("remote1", ModeTransceive, true, false)
	l.NewKeyTimer.Start(NewKeyTimeoutMS * time.Millisecond)
	l.NewKeyTimer.Tick(NewKeyTimeoutMS * time.Millisecond)
	if !l.NewKeyTimer.Expired() {
		t.Fatalf("expected timer expiry")
	}
	NewKeyTimerExpired(l)
	if l.NewKey != NewKeyAllowedRedundant {
		t.Fatalf("expected downgrade to ALLOWED_REDUNDANT, got %v", l.NewKey)
	}
}

func TestApplyNewKeyToken(t *testing.T) {
	l := New("remote1", ModeTransceive, true, false)
	if !ApplyNewKeyToken(l, TokenNewKey1) {
		t.Fatalf("expected token to apply")
	}
	if l.NewKey != NewKeyNotAllowed {
		t.Fatalf("expected NOT_ALLOWED, got %v", l.NewKey)
	}
}

type fakeWriter struct{ lines []string }

func (f *fakeWriter) WriteText(line string) error {
	f.lines = append(f.lines, line)
	return nil
}

func TestManagerConnectAndAnswer(t *testing.T) {
	m := NewManager("self", time.Minute, 5*time.Second)
	l, err := m.Connect("remote1", ModeTransceive, false)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	w := &fakeWriter{}
	l.Writer = w
	if err := m.OnAnswer(l); err != nil {
		t.Fatalf("OnAnswer: %v", err)
	}
	if l.State != StateConnected || !l.Connected {
		t.Fatalf("expected CONNECTED, got %s", l.State)
	}
	if len(w.lines) != 1 || w.lines[0] != TokenNewKey {
		t.Fatalf("expected newkey token sent, got %v", w.lines)
	}
}

func TestManagerRemoveAndFind(t *testing.T) {
	m := NewManager("self", time.Minute, 5*time.Second)
	l, _ := m.Connect("remote1", ModeMonitor, false)
	if m.Find("remote1") != l {
		t.Fatalf("expected to find link")
	}
	m.Remove(l)
	if m.Find("remote1") != nil {
		t.Fatalf("expected link removed")
	}
}

func TestBroadcastExcludesArrivalLink(t *testing.T) {
	m := NewManager("self", time.Minute, 5*time.Second)
	a, _ := m.Connect("a", ModeTransceive, false)
	b, _ := m.Connect("b", ModeTransceive, false)
	wa, wb := &fakeWriter{}, &fakeWriter{}
	a.Writer, b.Writer = wa, wb
	a.Connected, b.Connected = true, true

	m.Broadcast("T self hello", "a")
	if len(wa.lines) != 0 {
		t.Fatalf("arrival link should not receive broadcast, got %v", wa.lines)
	}
	if len(wb.lines) != 1 {
		t.Fatalf("expected broadcast to reach b, got %v", wb.lines)
	}
}
