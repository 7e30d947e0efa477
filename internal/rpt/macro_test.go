package rpt

import "testing"

func TestMacroBufferPushAndPop(t *testing.T) {
	m := NewMacroBuffer()
	if m.Len() != 0 {
		t.Fatalf("expected empty buffer, got len %d", m.Len())
	}
	m.Push("12#")
	if m.Len() != 3 {
		t.Fatalf("expected len 3 after push, got %d", m.Len())
	}
	c, ok := m.pop()
	if !ok || c != '1' {
		t.Fatalf("expected first popped byte '1', got %q ok=%v", c, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("expected len 2 after one pop, got %d", m.Len())
	}
}

func TestMacroBufferPushEmptyIsNoop(t *testing.T) {
	m := NewMacroBuffer()
	m.Push("")
	if m.Len() != 0 {
		t.Fatalf("expected pushing an empty string to be a no-op, got len %d", m.Len())
	}
}

func TestMacroBufferPopOnEmpty(t *testing.T) {
	m := NewMacroBuffer()
	if _, ok := m.pop(); ok {
		t.Fatalf("expected pop on empty buffer to report ok=false")
	}
}

func TestDrainMacroConsumesOneCharPerTick(t *testing.T) {
	n := testNode(t, nil)
	n.macro.Push("12")

	n.Timers.Macro.Tick(MacroTickInterval)
	n.drainMacro(MacroTickInterval)
	if n.macro.Len() != 1 {
		t.Fatalf("expected one character drained, got len %d", n.macro.Len())
	}

	// The timer was just reloaded; draining again before it expires
	// should not consume a second character.
	n.drainMacro(0)
	if n.macro.Len() != 1 {
		t.Fatalf("expected no drain before the macro timer re-expires, got len %d", n.macro.Len())
	}

	n.Timers.Macro.Tick(MacroTickInterval)
	n.drainMacro(MacroTickInterval)
	if n.macro.Len() != 0 {
		t.Fatalf("expected second character drained, got len %d", n.macro.Len())
	}
}
