// Package usrp implements the compact USRP UDP transport of spec §4.5.1:
// an 8-byte magic+sequence header, a fixed-size signed-linear voice
// payload, and a text-typed control payload carrying DTMF. Framing is
// modeled after the teacher's internal/protocol frame-constant style
// (fixed magic bytes, fixed field widths), the transport loop after
// internal/network's reader-goroutine pattern.
package usrp

import (
	"encoding/binary"
	"errors"
)

// Magic is the 4-byte frame marker (spec §4.5.1 "magic USRP").
var Magic = [4]byte{'U', 'S', 'R', 'P'}

// HeaderSize is the 8-byte magic+sequence header (spec §4.5.1). Type and
// keyup are carried in two additional bytes immediately following the
// header — the spec names both as properties of "the header" without
// pinning an exact byte layout beyond magic+sequence; DESIGN.md records
// this as a resolved Open Question.
const HeaderSize = 10

// VoiceFrameSize is USRP_VOICE_FRAME_SIZE: 160 signed-linear samples at
// 2 bytes each (spec §4.5.1).
const VoiceFrameSize = 320

// FrameType distinguishes voice from control payloads (spec §4.5.1 "type
// byte 2" for DTMF control).
type FrameType byte

const (
	TypeVoice   FrameType = 0
	TypeControl FrameType = 2
)

// Frame is one decoded USRP packet.
type Frame struct {
	Seq     uint32
	Type    FrameType
	Keyup   bool
	Payload []byte // 320-byte voice samples, or control text (e.g. DTMF digit string)
}

var (
	errTooShort   = errors.New("usrp: frame shorter than header")
	errBadMagic   = errors.New("usrp: bad magic")
	errBadVoiceSz = errors.New("usrp: voice payload wrong size")
)

// Encode serializes f to wire form.
func Encode(f Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	copy(buf[0:4], Magic[:])
	binary.BigEndian.PutUint32(buf[4:8], f.Seq)
	buf[8] = byte(f.Type)
	if f.Keyup {
		buf[9] = 1
	}
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// Decode parses a wire packet into a Frame.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < HeaderSize {
		return Frame{}, errTooShort
	}
	if [4]byte(raw[0:4]) != Magic {
		return Frame{}, errBadMagic
	}
	f := Frame{
		Seq:   binary.BigEndian.Uint32(raw[4:8]),
		Type:  FrameType(raw[8]),
		Keyup: raw[9] != 0,
	}
	if len(raw) > HeaderSize {
		f.Payload = append([]byte(nil), raw[HeaderSize:]...)
	}
	if f.Type == TypeVoice && len(f.Payload) != 0 && len(f.Payload) != VoiceFrameSize {
		return Frame{}, errBadVoiceSz
	}
	return f, nil
}

// IsUnkeyMarker reports whether f is the empty-body keyup=0 frame that
// signals TX release (spec §4.5.1 "an empty-body frame with keyup=0 is
// the unkey marker").
func IsUnkeyMarker(f Frame) bool {
	return !f.Keyup && len(f.Payload) == 0
}

// NewVoiceFrame builds a keyed voice frame.
func NewVoiceFrame(seq uint32, samples []byte) Frame {
	return Frame{Seq: seq, Type: TypeVoice, Keyup: true, Payload: samples}
}

// NewUnkeyFrame builds the bare unkey marker.
func NewUnkeyFrame(seq uint32) Frame {
	return Frame{Seq: seq, Type: TypeVoice, Keyup: false}
}

// NewDTMFFrame builds a text-typed control frame carrying a DTMF string
// (spec §4.5.1 "DTMF ... A DTMF digit produced upstream is formatted as
// a text-typed packet").
func NewDTMFFrame(seq uint32, digits string) Frame {
	return Frame{Seq: seq, Type: TypeControl, Keyup: false, Payload: []byte(digits)}
}
