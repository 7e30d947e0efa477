package rpt

import (
	"testing"
	"time"

	"github.com/dbehnke/rptd/internal/link"
)

func TestEvaluateKeyingFromRXChan(t *testing.T) {
	n := testNode(t, nil)
	n.Keying.RXChanKeyed = true

	n.evaluateKeying()

	if !n.Keying.Keyed {
		t.Fatalf("expected Keyed true once RXChanKeyed is set")
	}
	if !n.Keying.TXKeyed {
		t.Fatalf("expected half-duplex TX to key up alongside RX")
	}
}

func TestEvaluateKeyingFromTransceiveLink(t *testing.T) {
	n := testNode(t, nil)
	l := link.New("link-a", link.ModeTransceive, false, false)
	l.LastRX = true
	n.Links.Add(l)

	n.evaluateKeying()

	if !n.Keying.Keyed {
		t.Fatalf("expected Keyed true from a transceive link with LastRX set")
	}
}

func TestEvaluateKeyingIgnoresMonitorLink(t *testing.T) {
	n := testNode(t, nil)
	l := link.New("link-a", link.ModeMonitor, false, false)
	l.LastRX = true
	n.Links.Add(l)

	n.evaluateKeying()

	if n.Keying.Keyed {
		t.Fatalf("expected a monitor-mode link's RX not to key the repeater")
	}
}

func TestOnKeyUpUnkeyArmsTailTimer(t *testing.T) {
	n := testNode(t, nil)

	n.Keying.RXChanKeyed = true
	n.evaluateKeying() // onKeyUp
	n.Keying.KeyedAt = time.Now().Add(-500 * time.Millisecond)
	n.Keying.RXChanKeyed = false
	n.evaluateKeying() // onUnkey, held ~500ms < KerchunkThreshold

	if !n.Timers.Tail.Running() {
		t.Fatalf("expected tail timer armed on unkey")
	}
}

func TestConfMemberAllowedBlocksSimplexDuringTX(t *testing.T) {
	n := testNode(t, map[string]string{"duplex": "0"})
	n.Keying.TXKeyed = true

	if n.confMemberAllowed() {
		t.Fatalf("expected simplex duplex to reject RX while TX is keyed")
	}
}

func TestConfMemberAllowedPermitsHalfDuplexDuringTX(t *testing.T) {
	n := testNode(t, map[string]string{"duplex": "2"})
	n.Keying.TXKeyed = true

	if !n.confMemberAllowed() {
		t.Fatalf("expected half duplex to keep accepting RX while TX is keyed")
	}
}

func TestAnnounceMutedOnlyForFullMutedDuplex(t *testing.T) {
	n := testNode(t, map[string]string{"duplex": "3"})
	n.Keying.RXChanKeyed = true

	if !n.AnnounceMuted() {
		t.Fatalf("expected duplex 3 to mute announcements while RX is active")
	}

	n2 := testNode(t, map[string]string{"duplex": "4"})
	n2.Keying.RXChanKeyed = true
	if n2.AnnounceMuted() {
		t.Fatalf("expected duplex 4 (full mixed) not to mute announcements")
	}
}
