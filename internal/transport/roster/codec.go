// Package roster implements the "TLB" RTP/RTCP link transport of spec
// §4.5.2: a dual-port (audio + control) UDP transport with SDES/BYE call
// establishment, CRC32-derived SSRCs, and per-peer dynamic codec
// negotiation. RTP/RTCP framing uses github.com/pion/rtp and
// github.com/pion/rtcp, grounded on the RTP session pattern in the
// retrieved emiago/diago media package; the peer bookkeeping reuses
// internal/transport.Roster.
package roster

// Codec identifies the audio codec of an RTP payload type (spec §4.5.2
// "Audio packets are standard RTP with payload type one of {3 = GSM ...,
// 97 = G.726 ..., 0 = μ-law ...}").
type Codec int

const (
	CodecGSM Codec = iota
	CodecG726
	CodecULaw
	CodecUnknown
)

const (
	PayloadTypeGSM    uint8 = 3
	PayloadTypeG726   uint8 = 97
	PayloadTypeULaw   uint8 = 0
	PayloadTypeDTMF   uint8 = 96
)

// FrameSize is the per-packet payload size for a codec (spec §4.5.2:
// "GSM (33 bytes × 4 frames), G.726 (80 bytes × 2 frames), μ-law (160
// bytes × 2 frames)").
func FrameSize(c Codec) int {
	switch c {
	case CodecGSM:
		return 33 * 4
	case CodecG726:
		return 80 * 2
	case CodecULaw:
		return 160 * 2
	default:
		return 0
	}
}

// CodecForPayloadType maps an RTP payload type byte to a Codec, the basis
// for dynamic rxcodec switching (spec §4.5.2 "Codec negotiation").
func CodecForPayloadType(pt uint8) Codec {
	switch pt {
	case PayloadTypeGSM:
		return CodecGSM
	case PayloadTypeG726:
		return CodecG726
	case PayloadTypeULaw:
		return CodecULaw
	default:
		return CodecUnknown
	}
}

// PayloadTypeForCodec is the inverse of CodecForPayloadType.
func PayloadTypeForCodec(c Codec) uint8 {
	switch c {
	case CodecGSM:
		return PayloadTypeGSM
	case CodecG726:
		return PayloadTypeG726
	case CodecULaw:
		return PayloadTypeULaw
	default:
		return PayloadTypeULaw
	}
}
