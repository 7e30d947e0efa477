package remote

import "fmt"

// IcomCIV drives the ic706/xcat CI-V command set (spec §4.6 "ic706 |
// Serial | CI-V framed (FE FE addr e0 … FD) | Packed-BCD frequency; offset
// is a four-byte packed-BCD split; mode is 05 for FM etc." and "xcat |
// Serial | CI-V with rig-specific offset command").
type IcomCIV struct {
	tag     string
	rigAddr byte
	port    Transport
	xcat    bool // selects the rig-specific offset-frequency subcommand
}

func NewIC706(port Transport, civAddr byte) *IcomCIV {
	return &IcomCIV{tag: "ic706", rigAddr: civAddr, port: port}
}

func NewXcat(port Transport, civAddr byte) *IcomCIV {
	return &IcomCIV{tag: "xcat", rigAddr: civAddr, port: port, xcat: true}
}

func (r *IcomCIV) Tag() string { return r.tag }

func (r *IcomCIV) CheckFreq(freqHz uint64) bool {
	return freqHz >= 30_000 && freqHz <= 1_300_000_000
}

func (r *IcomCIV) SetFreq(freqHz uint64) error {
	if !r.CheckFreq(freqHz) {
		return fmt.Errorf("remote: %s frequency %d Hz out of range", r.tag, freqHz)
	}
	bcd, err := civFreqBCD(freqHz)
	if err != nil {
		return err
	}
	return r.send(buildCIV(r.rigAddr, civCmdSetFreq, bcd))
}

func (r *IcomCIV) SetMode(mode string) error {
	code, ok := civModeBytes[mode]
	if !ok {
		return fmt.Errorf("remote: %s unknown mode %q", r.tag, mode)
	}
	return r.send(buildCIV(r.rigAddr, civCmdSetMode, []byte{code}))
}

func (r *IcomCIV) SetOffset(dir Offset, magnitudeHz uint64) error {
	var dirCode byte
	switch dir {
	case OffsetSimplex:
		dirCode = 0x10
	case OffsetPlus:
		dirCode = 0x11
	case OffsetMinus:
		dirCode = 0x12
	default:
		return fmt.Errorf("remote: %s unknown offset direction %q", r.tag, dir)
	}
	if err := r.send(buildCIV(r.rigAddr, civCmdSetOffset, []byte{dirCode})); err != nil {
		return err
	}
	if dir == OffsetSimplex {
		return nil
	}
	// Offset frequency is a 4-byte packed-BCD split (spec §4.6
	// "offset is a four-byte packed-BCD split"); xcat sends it on a
	// rig-specific subcommand rather than the ic706's generic one.
	bcd := packBCD(magnitudeHz/10, 8)
	cmd := civCmdSetOffset
	if r.xcat {
		cmd = civCmdOffsetFrq
	}
	return r.send(buildCIV(r.rigAddr, cmd, bcd))
}

func (r *IcomCIV) SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error {
	var flags byte
	if txOn {
		flags |= 0x01
	}
	if rxOn {
		flags |= 0x02
	}
	code := civPLCode(toneTenthsHz)
	bcd := packBCD(uint64(code), 4)
	return r.send(buildCIV(r.rigAddr, 0x16, append([]byte{flags}, bcd...)))
}

func (r *IcomCIV) SetPower(level int) error {
	return r.send(buildCIV(r.rigAddr, 0x14, []byte{byte(level)}))
}

func (r *IcomCIV) Close() error { return r.port.Close() }

func (r *IcomCIV) send(frame []byte) error {
	_, err := r.port.Write(frame)
	return err
}

// readReply reads and validates a CI-V reply frame, for callers that need
// to confirm the rig accepted a command (spec's "request-response byte
// protocols").
func (r *IcomCIV) readReply(raw []byte) (data []byte, err error) {
	_, data, err = parseCIV(raw)
	return data, err
}
