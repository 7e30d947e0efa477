package remote

import "fmt"

// CI-V framing (spec §4.6 "ic706 | Serial | CI-V framed (FE FE addr e0 …
// FD)"): every command/reply is bracketed by two preamble bytes and a
// terminator, with no byte-stuffing since FE/FD never occur as payload.
const (
	civPreamble    = 0xFE
	civTerminator  = 0xFD
	civControllerAddr = 0xE0
)

// Icom command bytes used by the ic706/xcat drivers.
const (
	civCmdSetFreq   = 0x05
	civCmdSetMode   = 0x06
	civCmdSetOffset = 0x0D // repeater duplex direction
	civCmdOffsetFrq = 0x0E // xcat-specific offset-frequency subcommand (spec §4.6 "xcat | ... rig-specific offset command")
)

// Icom mode bytes (spec §4.6 "mode is 05 for FM etc.").
var civModeBytes = map[string]byte{
	"FM":  0x05,
	"USB": 0x01,
	"LSB": 0x00,
	"AM":  0x02,
	"CW":  0x03,
}

func buildCIV(rigAddr byte, cmd byte, data []byte) []byte {
	frame := make([]byte, 0, 6+len(data))
	frame = append(frame, civPreamble, civPreamble, rigAddr, civControllerAddr, cmd)
	frame = append(frame, data...)
	frame = append(frame, civTerminator)
	return frame
}

// parseCIV validates framing and returns the command byte and payload.
func parseCIV(raw []byte) (cmd byte, data []byte, err error) {
	if len(raw) < 6 {
		return 0, nil, fmt.Errorf("remote: CI-V frame too short (%d bytes)", len(raw))
	}
	if raw[0] != civPreamble || raw[1] != civPreamble {
		return 0, nil, fmt.Errorf("remote: CI-V missing preamble")
	}
	if raw[len(raw)-1] != civTerminator {
		return 0, nil, fmt.Errorf("remote: CI-V missing terminator")
	}
	return raw[4], raw[5 : len(raw)-1], nil
}
