// Package remote implements the remote-base serial-control layer (spec
// §4.6): frequency/mode/PL/offset/power programming of a closed set of
// transceiver models over request-response byte protocols.
//
// REDESIGN FLAGS §9 calls for "tagged variants (sum types) with per-variant
// methods set_freq/set_mode/set_offset/set_ctcss/check_freq/bump" in place
// of the original's string-tag switch; that's the Rig interface below, with
// one concrete type per tag and NewRig doing the single dispatch.
package remote

import (
	"errors"
	"io"
)

// Offset is the repeater-style shift direction of a channel.
type Offset byte

const (
	OffsetSimplex Offset = 'S'
	OffsetPlus    Offset = '+'
	OffsetMinus   Offset = '-'
)

// Rig is the common surface every supported transceiver tag implements
// (spec §4.6 "the dispatcher in setrem/closerem/check_freq/
// multimode_bump_freq/set_mode switches on the string tag").
type Rig interface {
	// Tag returns the configured rig-type string (e.g. "ft897", "ic706").
	Tag() string

	// SetFreq programs the receive frequency in Hz.
	SetFreq(freqHz uint64) error

	// SetMode programs the operating mode ("FM", "USB", ...).
	SetMode(mode string) error

	// SetOffset programs the repeater shift and offset magnitude in Hz.
	SetOffset(dir Offset, magnitudeHz uint64) error

	// SetCTCSS programs transmit/receive PL tone enable and the tone
	// frequency in tenths of a Hz (e.g. 670 for 67.0 Hz); a zero
	// frequency with txOn/rxOn false disables PL.
	SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error

	// SetPower programs the transmit power level, a rig-specific integer
	// index (spec §4.6 "rbi ... power").
	SetPower(level int) error

	// CheckFreq reports whether freqHz is within the rig's tunable range
	// and resolution (spec §4.6 "Frequency/mode validation").
	CheckFreq(freqHz uint64) bool

	// Close releases the underlying transport.
	Close() error
}

// ErrUnsupportedTag is returned by NewRig for an unrecognized rig tag.
var ErrUnsupportedTag = errors.New("remote: unsupported rig tag")

// Transport is the byte-level connection to a rig: a serial port, a
// parallel/ioctl radio-parameter device, or an in-band text socket. Rig
// implementations read/write through it without caring which.
type Transport interface {
	io.ReadWriteCloser
}
