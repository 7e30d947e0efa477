package dtmf

import (
	"strings"
	"testing"
	"time"
)

func newTestDispatcher() (*Dispatcher, *[]string) {
	table := NewFunctionTable()
	table.Add("1", "ilink", "3")   // connect
	table.Add("11", "ilink", "11") // different verb args, longer code
	table.Add("81", "status", "1")

	var calls []string
	d := New('*', '#', map[Source]*FunctionTable{
		SourceRPT:  table,
		SourceLink: table,
	})
	d.Register("ilink", func(src Source, args string) Result {
		calls = append(calls, "ilink:"+args)
		return Complete
	})
	d.Register("status", func(src Source, args string) Result {
		calls = append(calls, "status:"+args)
		return CompleteQuiet
	})
	return d, &calls
}

func feed(d *Dispatcher, src Source, s string) Result {
	var r Result
	now := time.Now()
	for i := 0; i < len(s); i++ {
		r = d.Process(src, s[i], now)
	}
	return r
}

func TestFuncCharArmsAndDispatches(t *testing.T) {
	d, calls := newTestDispatcher()
	r := feed(d, SourceRPT, "*1")
	if r != Complete {
		t.Fatalf("expected Complete, got %v", r)
	}
	if len(*calls) != 1 || (*calls)[0] != "ilink:3" {
		t.Fatalf("unexpected calls: %v", *calls)
	}
}

func TestTwoFuncCharsEscape(t *testing.T) {
	d, calls := newTestDispatcher()
	r := feed(d, SourceRPT, "**1")
	if r != Complete {
		t.Fatalf("expected Complete after escape+retry, got %v", r)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected a single dispatched call, got %v", *calls)
	}
}

func TestIndeterminateWhileShortOfLongestKey(t *testing.T) {
	d, _ := newTestDispatcher()
	now := time.Now()
	d.Process(SourceRPT, '*', now)
	r := d.Process(SourceRPT, '8', now)
	if r != Indeterminate {
		t.Fatalf("expected Indeterminate collecting '8' (no key is a prefix of it and the longest key has two digits), got %v", r)
	}
}

func TestNonFuncCharWhileIdlePropagates(t *testing.T) {
	d, _ := newTestDispatcher()
	var got []byte
	d.PropagateLocal = func(src Source, ch byte) { got = append(got, ch) }
	r := d.Process(SourceRPT, '5', time.Now())
	if r != Indeterminate {
		t.Fatalf("expected Indeterminate, got %v", r)
	}
	if len(got) != 1 || got[0] != '5' {
		t.Fatalf("expected propagated '5', got %v", got)
	}
}

func TestBufferFullResets(t *testing.T) {
	d, _ := newTestDispatcher()
	// A key longer than the buffer keeps unmatched digits Indeterminate
	// until the buffer itself fills.
	d.tables[SourceRPT].Add(strings.Repeat("0", MaxDTMF+1), "status", "")
	now := time.Now()
	d.Process(SourceRPT, '*', now)
	for i := 0; i < MaxDTMF; i++ {
		d.Process(SourceRPT, '9', now)
	}
	r := d.Process(SourceRPT, '9', now)
	if r != Error {
		t.Fatalf("expected Error at MaxDTMF overflow, got %v", r)
	}
}

func TestInterDigitTimeoutResets(t *testing.T) {
	d, _ := newTestDispatcher()
	t0 := time.Now()
	d.Process(SourceRPT, '*', t0)
	d.Process(SourceRPT, '8', t0)
	// Jump far enough that the next char sees a stale lastDigit and resets.
	t1 := t0.Add(DigitTimeout + time.Second)
	r := d.Process(SourceRPT, '1', t1)
	if r != Indeterminate {
		t.Fatalf("expected reset+rearm to be Indeterminate ('1' not a funcchar), got %v", r)
	}
}

func TestAPRSTTChecksumRoundTrip(t *testing.T) {
	dec := &APRSTTDecoder{}
	// digits '22' -> group "ABC2", pos 2 -> 'C'; checksum = (2+2)%10=4
	_, _, err := dec.Decode("224")
	if err != nil {
		t.Fatalf("unexpected checksum failure: %v", err)
	}
	if _, _, err := dec.Decode("225"); err == nil {
		t.Fatalf("expected checksum mismatch to error")
	}
}
