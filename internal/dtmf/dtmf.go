// Package dtmf implements the per-source DTMF accumulator and longest-prefix
// function dispatcher of spec §4.2. It has no dependency on internal/rpt:
// verb handlers are registered by the owning Node as plain functions, so the
// accumulation/lookup machinery here is independently testable.
package dtmf

import (
	"time"
)

// Source identifies where a DTMF character came from (spec §4.2 "State per
// source").
type Source int

const (
	SourceRPT Source = iota
	SourceLink
	SourcePhone
	SourceDPhone
	SourceAlt
)

func (s Source) String() string {
	switch s {
	case SourceRPT:
		return "RPT"
	case SourceLink:
		return "LNK"
	case SourcePhone:
		return "PHONE"
	case SourceDPhone:
		return "DPHONE"
	case SourceAlt:
		return "ALT"
	default:
		return "UNKNOWN"
	}
}

// Result is the DC_* handler/dispatch result enum of spec §4.2/§7.
type Result int

const (
	Indeterminate Result = iota
	ReqFlush
	Error
	Complete
	CompleteQuiet
	DoKey
)

func (r Result) String() string {
	switch r {
	case Indeterminate:
		return "INDETERMINATE"
	case ReqFlush:
		return "REQ_FLUSH"
	case Error:
		return "ERROR"
	case Complete:
		return "COMPLETE"
	case CompleteQuiet:
		return "COMPLETEQUIET"
	case DoKey:
		return "DOKEY"
	default:
		return "UNKNOWN"
	}
}

// MaxDTMF is the accumulator capacity (spec §8 "DTMF buffer at MAXDTMF-1").
const MaxDTMF = 32

// DigitTimeout is the inter-digit timeout before the buffer resets (spec
// §4.2 "dtmf_time + DTMF_TIMEOUT").
const DigitTimeout = 3 * time.Second

// state holds one source's accumulator.
type state struct {
	buf        []byte
	lastDigit  time.Time
	armed      bool // index != -1 in the C original
}

func newState() *state {
	return &state{buf: make([]byte, 0, MaxDTMF)}
}

func (st *state) reset() {
	st.buf = st.buf[:0]
	st.armed = false
}

// Handler is a verb implementation. args is everything after the matched
// function-table prefix.
type Handler func(src Source, args string) Result

// Dispatcher accumulates DTMF per source and dispatches completed codes to
// registered verb handlers via the configured function tables.
type Dispatcher struct {
	funcChar byte
	endChar  byte

	tables map[Source]*FunctionTable
	states map[Source]*state

	handlers map[string]Handler

	// Propagate* mirror the config keys of the same name (§4.2 step 2).
	PropagateLocal func(src Source, ch byte)
	PropagatePhone func(src Source, ch byte)

	// OnPFXTone fires when a lead-in funcchar arms the buffer and
	// dopfxtone is configured (§4.2 step 2).
	OnPFXTone func(src Source)
}

// New builds a Dispatcher. tables maps each source to the FunctionTable that
// should be consulted for it (built from the functions/link_functions/
// phone_functions/dphone_functions/alt_functions config keys).
func New(funcChar, endChar byte, tables map[Source]*FunctionTable) *Dispatcher {
	d := &Dispatcher{
		funcChar: funcChar,
		endChar:  endChar,
		tables:   tables,
		states:   make(map[Source]*state),
		handlers: make(map[string]Handler),
	}
	for _, s := range []Source{SourceRPT, SourceLink, SourcePhone, SourceDPhone, SourceAlt} {
		d.states[s] = newState()
	}
	return d
}

// Register installs the handler for a verb name (cop, ilink, status, ...).
func (d *Dispatcher) Register(verb string, h Handler) {
	d.handlers[verb] = h
}

// Reset clears the accumulator for a source, e.g. on ERROR or external abort.
func (d *Dispatcher) Reset(src Source) {
	d.states[src].reset()
}

// Process feeds one character from src into the accumulator, running the
// full intake/lookup/dispatch pipeline of spec §4.2. now is injected for
// testability.
func (d *Dispatcher) Process(src Source, ch byte, now time.Time) Result {
	st := d.states[src]

	// Step 1: inter-digit timeout.
	if st.armed && now.Sub(st.lastDigit) > DigitTimeout {
		st.reset()
	}

	if !st.armed {
		if ch != d.funcChar {
			// Non-funcchar while idle: pass through as local/phone DTMF.
			switch src {
			case SourcePhone, SourceDPhone:
				if d.PropagatePhone != nil {
					d.PropagatePhone(src, ch)
				}
			default:
				if d.PropagateLocal != nil {
					d.PropagateLocal(src, ch)
				}
			}
			return Indeterminate
		}
		// funcchar arms the buffer.
		st.armed = true
		st.buf = st.buf[:0]
		st.lastDigit = now
		if d.OnPFXTone != nil {
			d.OnPFXTone(src)
		}
		return Indeterminate
	}

	// Step 3: buffer full resets.
	if len(st.buf) >= MaxDTMF {
		st.reset()
		return Error
	}

	// Step 4: two consecutive funcchars erase the buffer (escape), but the
	// accumulator stays armed so the next real digit starts a fresh code
	// without needing another lead-in funcchar.
	if ch == d.funcChar && len(st.buf) == 0 {
		st.buf = st.buf[:0]
		st.lastDigit = now
		return ReqFlush
	}

	st.buf = append(st.buf, ch)
	st.lastDigit = now

	if ch == d.endChar {
		return d.dispatch(src, st)
	}

	// Longest-prefix lookup against the current accumulator (sans trailing
	// endchar, which hasn't arrived yet).
	table := d.tables[src]
	if table == nil {
		st.reset()
		return Error
	}
	code := string(st.buf)
	verb, args, matchLen := table.LookupPrefix(code)
	switch matchLen {
	case matchNone:
		if len(code) < table.MaxKeyLen() {
			return Indeterminate
		}
		st.reset()
		return Error
	case matchPartial:
		return Indeterminate
	default:
		_ = verb
		_ = args
		return d.dispatch(src, st)
	}
}

func (d *Dispatcher) dispatch(src Source, st *state) Result {
	code := string(st.buf)
	table := d.tables[src]
	if table == nil {
		st.reset()
		return Error
	}
	verb, args, matchLen := table.LookupPrefix(code)
	if matchLen != matchExact {
		st.reset()
		return Error
	}
	h := d.handlers[verb]
	if h == nil {
		st.reset()
		return Error
	}
	res := h(src, args)
	switch res {
	case Complete, CompleteQuiet:
		st.reset()
	case ReqFlush:
		st.reset()
	case Error:
		st.reset()
	case DoKey, Indeterminate:
		// keep collecting / keyed regardless of duplex
	}
	return res
}
