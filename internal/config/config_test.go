package config

import "testing"

const sampleConfig = `
[nodes]
31234 = CALL,10.0.0.1,44966,GSM

[telemetry]
remcomplete = |T 500,0,100,50
status = status.gsm

[morse]
speed = 20
frequency = 800

[memory]
1 = 146520000,S,FM,50,0,0,067.0,067.0

[txlimits]
class_a = 144.00000-148.00000,440.00000-450.00000

[30834]
rxchannel = Radio/usb
txchannel = Radio/usb
hangtime = 1000
totime = 180000
duplex = 2
funcchar = *
endchar = #
`

func TestParseNodesTable(t *testing.T) {
	c, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString: %v", err)
	}

	nodes, err := c.Nodes()
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	n, ok := nodes["31234"]
	if !ok {
		t.Fatalf("expected node 31234")
	}
	if n.Callsign != "CALL" || n.Host != "10.0.0.1" || n.Port != 44966 || n.Codec != "GSM" {
		t.Fatalf("unexpected node entry: %+v", n)
	}
}

func TestTelemetryDirectives(t *testing.T) {
	c, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString: %v", err)
	}
	tab := c.Telemetry()
	if !tab["remcomplete"].IsDirective() || tab["remcomplete"].Kind() != 'T' {
		t.Fatalf("expected a |T directive, got %q", tab["remcomplete"])
	}
	if tab["status"].IsDirective() {
		t.Fatalf("status should be a plain filename")
	}
}

func TestMemorySlot(t *testing.T) {
	c, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString: %v", err)
	}
	mem, err := c.Memory()
	if err != nil {
		t.Fatalf("Memory: %v", err)
	}
	slot, ok := mem[1]
	if !ok {
		t.Fatalf("expected memory slot 1")
	}
	if slot.FreqHz != 146520000 || slot.OffsetChar != 'S' || slot.Mode != "FM" {
		t.Fatalf("unexpected slot: %+v", slot)
	}
}

func TestTxLimitsAndRange(t *testing.T) {
	c, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString: %v", err)
	}
	limits, err := c.TxLimits()
	if err != nil {
		t.Fatalf("TxLimits: %v", err)
	}
	ranges, ok := limits["class_a"]
	if !ok || len(ranges) != 2 {
		t.Fatalf("expected two ranges, got %+v", ranges)
	}
	if !InTxRange(146_000_000, ranges) {
		t.Fatalf("146MHz should be in range")
	}
	if InTxRange(220_000_000, ranges) {
		t.Fatalf("220MHz should not be in range")
	}
}

func TestNodeParamsFromSection(t *testing.T) {
	c, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString: %v", err)
	}
	p := NodeParamsFromSection("30834", c.Section("30834"))
	if p.Duplex != 2 {
		t.Fatalf("expected duplex 2, got %d", p.Duplex)
	}
	if p.FuncChar != '*' || p.EndChar != '#' {
		t.Fatalf("unexpected func/end chars: %q %q", p.FuncChar, p.EndChar)
	}
	if p.TOTime.Seconds() != 180 {
		t.Fatalf("expected 180s totime, got %v", p.TOTime)
	}
}

func TestNodeSectionsExcludesReserved(t *testing.T) {
	c, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString: %v", err)
	}
	names := c.NodeSections()
	for _, n := range names {
		if IsReservedSection(n) {
			t.Fatalf("reserved section %q leaked into NodeSections", n)
		}
	}
	if len(names) != 1 || names[0] != "30834" {
		t.Fatalf("expected only [30834], got %v", names)
	}
}
