package roster

import (
	"fmt"
	"strings"

	"github.com/pion/rtcp"
)

// textPrivPrefix tags the SDES PRIV item that carries a link-text control
// line (spec §4.3.3), so the same control socket that already carries
// SDES/BYE can carry link text too instead of needing a third wire format.
const textPrivPrefix = "rptd-text:"

// BuildSDES constructs a SourceDescription control packet carrying CNAME,
// NAME, and TOOL items (spec §4.5.2 "Control packets are RTCP SDES (item
// types 1=CNAME, 2=NAME, 6=TOOL)").
func BuildSDES(ssrc uint32, callsign, name, tool string) *rtcp.SourceDescription {
	items := []rtcp.SourceDescriptionItem{
		{Type: rtcp.SDESCNAME, Text: callsign},
	}
	if name != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESName, Text: name})
	}
	if tool != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESTool, Text: tool})
	}
	return &rtcp.SourceDescription{
		Chunks: []rtcp.SourceDescriptionChunk{
			{Source: ssrc, Items: items},
		},
	}
}

// BuildBye constructs a Goodbye control packet for ssrc (spec §4.5.2
// "Heartbeat ... a BYE is sent 20× and the peer is removed").
func BuildBye(ssrc uint32) *rtcp.Goodbye {
	return &rtcp.Goodbye{Sources: []uint32{ssrc}}
}

// SDESFields extracts callsign/name/tool from a decoded SourceDescription,
// taking the first chunk (one node per control packet in this transport).
func SDESFields(sd *rtcp.SourceDescription) (callsign, name, tool string, err error) {
	if len(sd.Chunks) == 0 {
		return "", "", "", fmt.Errorf("roster: empty SDES")
	}
	for _, item := range sd.Chunks[0].Items {
		switch item.Type {
		case rtcp.SDESCNAME:
			callsign = item.Text
		case rtcp.SDESName:
			name = item.Text
		case rtcp.SDESTool:
			tool = item.Text
		}
	}
	return callsign, name, tool, nil
}

// BuildText wraps one link-text control line (spec §4.3.3's `D`/`K`/`T`/
// `L`/`I`/`M`/`C` grammar) in an SDES PRIV item alongside the usual CNAME.
func BuildText(ssrc uint32, callsign, line string) *rtcp.SourceDescription {
	return &rtcp.SourceDescription{
		Chunks: []rtcp.SourceDescriptionChunk{{
			Source: ssrc,
			Items: []rtcp.SourceDescriptionItem{
				{Type: rtcp.SDESCNAME, Text: callsign},
				{Type: rtcp.SDESPrivate, Text: textPrivPrefix + line},
			},
		}},
	}
}

// TextFromSDES extracts a link-text line from a decoded SourceDescription,
// if its PRIV item carries the rptd-text tag rather than an ordinary
// keepalive SDES.
func TextFromSDES(sd *rtcp.SourceDescription) (line string, ok bool) {
	if len(sd.Chunks) == 0 {
		return "", false
	}
	for _, item := range sd.Chunks[0].Items {
		if item.Type == rtcp.SDESPrivate && strings.HasPrefix(item.Text, textPrivPrefix) {
			return strings.TrimPrefix(item.Text, textPrivPrefix), true
		}
	}
	return "", false
}

// ParseControlPacket decodes one or more RTCP packets from raw, returning
// the first SourceDescription and/or Goodbye found.
func ParseControlPacket(raw []byte) (sd *rtcp.SourceDescription, bye *rtcp.Goodbye, err error) {
	pkts, err := rtcp.Unmarshal(raw)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range pkts {
		switch v := p.(type) {
		case *rtcp.SourceDescription:
			sd = v
		case *rtcp.Goodbye:
			bye = v
		}
	}
	return sd, bye, nil
}
