package roster

import "hash/crc32"

// SSRCForCallsign derives a node's RTP/RTCP SSRC from its callsign (spec
// §4.5.2 "CRC-based SSRC: Each node's SSRC is CRC32(callsign)").
func SSRCForCallsign(callsign string) uint32 {
	return crc32.ChecksumIEEE([]byte(callsign))
}
