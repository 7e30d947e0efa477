package remote

import "fmt"

// Yaesu CAT command bytes (5th byte of every 5-byte frame), shared by
// ft897 and ft100 (spec §4.6 "ft897, ft100 | Serial | Packed-BCD 5-byte
// commands").
const (
	catCmdSetFreq   = 0x01
	catCmdSetMode   = 0x07
	catCmdSetOffDir = 0x09
	catCmdSetOffFrq = 0x0F
	catCmdSetCTCSS  = 0x0B
	catCmdSetPower  = 0x0A
)

var catModeCodes = map[string]byte{
	"LSB": 0x00, "USB": 0x01, "CW": 0x02, "CWR": 0x03,
	"AM": 0x04, "FM": 0x08, "DIG": 0x0A, "PKT": 0x0C,
}

// bandDefaultMode implements the "Band-dependent default mode" note of
// spec §4.6: 28MHz and above defaults to FM, 10MHz up to 28MHz to USB,
// and below 10MHz to LSB.
func bandDefaultMode(freqHz uint64) string {
	switch {
	case freqHz >= 28_000_000:
		return "FM"
	case freqHz >= 10_000_000:
		return "USB"
	default:
		return "LSB"
	}
}

// YaesuCAT drives the ft897/ft100 packed-BCD 5-byte command set.
type YaesuCAT struct {
	tag       string
	port      Transport
	freqLoHz  uint64
	freqHiHz  uint64
}

// NewFT897 constructs the ft897 driver (HF/VHF/UHF all-mode, 100kHz-56MHz
// plus 76-999MHz per the radio's actual coverage; a representative 2m/70cm
// range is used here since rptd only remote-bases VHF/UHF repeater gear).
func NewFT897(port Transport) *YaesuCAT {
	return &YaesuCAT{tag: "ft897", port: port, freqLoHz: 136_000_000, freqHiHz: 470_000_000}
}

// NewFT100 constructs the ft100 driver (same command set as ft897).
func NewFT100(port Transport) *YaesuCAT {
	return &YaesuCAT{tag: "ft100", port: port, freqLoHz: 136_000_000, freqHiHz: 470_000_000}
}

func (r *YaesuCAT) Tag() string { return r.tag }

func (r *YaesuCAT) CheckFreq(freqHz uint64) bool {
	return freqHz >= r.freqLoHz && freqHz <= r.freqHiHz && freqHz%10 == 0
}

func (r *YaesuCAT) SetFreq(freqHz uint64) error {
	if !r.CheckFreq(freqHz) {
		return fmt.Errorf("remote: %s frequency %d Hz out of range/resolution", r.tag, freqHz)
	}
	bcd, err := ft897FreqBCD(freqHz)
	if err != nil {
		return err
	}
	return r.send(append(bcd, catCmdSetFreq))
}

func (r *YaesuCAT) SetMode(mode string) error {
	code, ok := catModeCodes[mode]
	if !ok {
		return fmt.Errorf("remote: %s unknown mode %q", r.tag, mode)
	}
	return r.send([]byte{code, 0, 0, 0, catCmdSetMode})
}

func (r *YaesuCAT) SetOffset(dir Offset, magnitudeHz uint64) error {
	var dirCode byte
	switch dir {
	case OffsetSimplex:
		dirCode = 0x00
	case OffsetPlus:
		dirCode = 0x01
	case OffsetMinus:
		dirCode = 0x02
	default:
		return fmt.Errorf("remote: %s unknown offset direction %q", r.tag, dir)
	}
	if err := r.send([]byte{dirCode, 0, 0, 0, catCmdSetOffDir}); err != nil {
		return err
	}
	if dir == OffsetSimplex {
		return nil
	}
	// Offset magnitude is sent as a split in kHz, packed into a 2-byte
	// BCD field (spec §4.6 "simplex offset as split in kHz").
	khz := magnitudeHz / 1000
	bcd := packBCD(khz, 4)
	return r.send([]byte{bcd[0], bcd[1], 0, 0, catCmdSetOffFrq})
}

func (r *YaesuCAT) SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error {
	var flags byte
	if txOn {
		flags |= 0x01
	}
	if rxOn {
		flags |= 0x02
	}
	code := yaesuPLCode(toneTenthsHz)
	bcd := packBCD(uint64(code), 4)
	return r.send([]byte{flags, bcd[0], bcd[1], 0, catCmdSetCTCSS})
}

func (r *YaesuCAT) SetPower(level int) error {
	return r.send([]byte{byte(level), 0, 0, 0, catCmdSetPower})
}

func (r *YaesuCAT) Close() error { return r.port.Close() }

func (r *YaesuCAT) send(frame []byte) error {
	if len(frame) != 5 {
		return fmt.Errorf("remote: %s CAT frame must be 5 bytes, got %d", r.tag, len(frame))
	}
	_, err := r.port.Write(frame)
	return err
}
