package link

import (
	"fmt"
	"strconv"
	"strings"
)

// MsgKind is the leading character of a link-text message (spec §4.3.3).
type MsgKind byte

const (
	MsgDTMF      MsgKind = 'D'
	MsgKeying    MsgKind = 'K'
	MsgTelemetry MsgKind = 'T'
	MsgLinkList  MsgKind = 'L'
	MsgMDC       MsgKind = 'I'
	MsgPrivate   MsgKind = 'M'
	MsgCTCSS     MsgKind = 'C'
)

// MaxLineLength is the wire limit of spec §6.2.
const MaxLineLength = 512

// Msg is a parsed link-text control message. Only the fields relevant to
// Kind are populated.
type Msg struct {
	Kind MsgKind

	Dest string
	Src  string
	Seq  string

	DTMFChar byte // D
	Keyed    bool // K
	KeyQuery bool // "K ? src ..."

	SecondsSinceKey int // K query reply

	List string // L: CSV of downstream links

	MDCData string // I

	Body string // M: free text; T: dest verb name

	CTGroup string // C
}

// Parse decodes one line (without the trailing '\n') per spec §4.3.3.
func Parse(line string) (Msg, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return Msg{}, fmt.Errorf("link: empty text message")
	}
	if len(line) > MaxLineLength {
		return Msg{}, fmt.Errorf("link: text message exceeds %d bytes", MaxLineLength)
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Msg{}, fmt.Errorf("link: blank text message")
	}
	kind := MsgKind(fields[0][0])
	rest := fields[1:]

	switch kind {
	case MsgDTMF:
		if len(rest) < 4 {
			return Msg{}, fmt.Errorf("link: D message needs 4 fields, got %d", len(rest))
		}
		if len(rest[3]) != 1 {
			return Msg{}, fmt.Errorf("link: D message char must be one byte")
		}
		return Msg{Kind: MsgDTMF, Dest: rest[0], Src: rest[1], Seq: rest[2], DTMFChar: rest[3][0]}, nil

	case MsgKeying:
		if len(rest) >= 2 && rest[0] == "?" {
			// "K ? src ..." is a query.
			return Msg{Kind: MsgKeying, Dest: "?", Src: rest[1], KeyQuery: true}, nil
		}
		if len(rest) < 4 {
			return Msg{}, fmt.Errorf("link: K message needs 4 fields")
		}
		keyed := rest[3] == "1"
		secs, _ := strconv.Atoi(rest[2])
		return Msg{Kind: MsgKeying, Dest: rest[0], Src: rest[1], Seq: rest[2], Keyed: keyed, SecondsSinceKey: secs}, nil

	case MsgTelemetry:
		if len(rest) < 2 {
			return Msg{}, fmt.Errorf("link: T message needs src and dest")
		}
		return Msg{Kind: MsgTelemetry, Src: rest[0], Body: rest[1]}, nil

	case MsgLinkList:
		if len(rest) < 1 {
			return Msg{}, fmt.Errorf("link: L message needs src")
		}
		list := ""
		if len(rest) > 1 {
			list = strings.Join(rest[1:], " ")
		}
		return Msg{Kind: MsgLinkList, Src: rest[0], List: list}, nil

	case MsgMDC:
		if len(rest) < 1 {
			return Msg{}, fmt.Errorf("link: I message needs src")
		}
		data := ""
		if len(rest) > 1 {
			data = strings.Join(rest[1:], " ")
		}
		return Msg{Kind: MsgMDC, Src: rest[0], MDCData: data}, nil

	case MsgPrivate:
		if len(rest) < 2 {
			return Msg{}, fmt.Errorf("link: M message needs src and dest")
		}
		body := ""
		if len(rest) > 2 {
			body = strings.Join(rest[2:], " ")
		}
		return Msg{Kind: MsgPrivate, Src: rest[0], Dest: rest[1], Body: body}, nil

	case MsgCTCSS:
		if len(rest) < 2 {
			return Msg{}, fmt.Errorf("link: C message needs ctgroup and dest")
		}
		return Msg{Kind: MsgCTCSS, Src: "", CTGroup: rest[0], Dest: rest[1]}, nil

	default:
		return Msg{}, fmt.Errorf("link: unknown message kind %q", kind)
	}
}

// Format re-encodes a Msg back into wire form, the right-inverse of Parse
// for the fields each kind carries (spec §8 "Encoding and decoding of a K
// text message is a right-inverse").
func (m Msg) Format() string {
	switch m.Kind {
	case MsgDTMF:
		return fmt.Sprintf("D %s %s %s %c", m.Dest, m.Src, m.Seq, m.DTMFChar)
	case MsgKeying:
		if m.KeyQuery {
			return fmt.Sprintf("K ? %s", m.Src)
		}
		keyed := "0"
		if m.Keyed {
			keyed = "1"
		}
		return fmt.Sprintf("K %s %s %s %s", m.Dest, m.Src, m.Seq, keyed)
	case MsgTelemetry:
		return fmt.Sprintf("T %s %s", m.Src, m.Body)
	case MsgLinkList:
		if m.List == "" {
			return fmt.Sprintf("L %s", m.Src)
		}
		return fmt.Sprintf("L %s %s", m.Src, m.List)
	case MsgMDC:
		if m.MDCData == "" {
			return fmt.Sprintf("I %s", m.Src)
		}
		return fmt.Sprintf("I %s %s", m.Src, m.MDCData)
	case MsgPrivate:
		if m.Body == "" {
			return fmt.Sprintf("M %s %s", m.Src, m.Dest)
		}
		return fmt.Sprintf("M %s %s %s", m.Src, m.Dest, m.Body)
	case MsgCTCSS:
		return fmt.Sprintf("C %s %s", m.CTGroup, m.Dest)
	default:
		return ""
	}
}

// ShouldForward implements the flooding rule of spec §4.3.3: forward to
// every link except the one it arrived on, unless a more specific route to
// dest is known and matches exactly (route lookup is the caller's
// responsibility; this just encodes the "not the arrival link" half).
func ShouldForward(arrivalLink, candidateLink string) bool {
	return candidateLink != arrivalLink
}

// IsForUs reports whether dest addresses the local node directly (dest is
// "0"/"*" for broadcast-like addressing, or equals selfName).
func IsForUs(dest, selfName string) bool {
	return dest == "0" || dest == "*" || dest == selfName
}
