package remote

import "fmt"

// Kenwood drives the kenwood/tmd700/tm271 ASCII space-terminated command
// set (spec §4.6 "ASCII space-terminated (VW …, RBN …, PC …, VMC 0,0) |
// BCD text frequency; PL coded via 1..40 table").
type Kenwood struct {
	tag  string
	port Transport
}

func NewKenwood(port Transport) *Kenwood { return &Kenwood{tag: "kenwood", port: port} }
func NewTMD700(port Transport) *Kenwood  { return &Kenwood{tag: "tmd700", port: port} }
func NewTM271(port Transport) *Kenwood   { return &Kenwood{tag: "tm271", port: port} }

func (r *Kenwood) Tag() string { return r.tag }

func (r *Kenwood) CheckFreq(freqHz uint64) bool {
	return freqHz >= 118_000_000 && freqHz <= 524_000_000 && freqHz%100 == 0
}

// SetFreq sends "VW <9-digit Hz>" (BCD text, i.e. decimal digit string).
func (r *Kenwood) SetFreq(freqHz uint64) error {
	if !r.CheckFreq(freqHz) {
		return fmt.Errorf("remote: %s frequency %d Hz out of range/resolution", r.tag, freqHz)
	}
	return r.cmd(fmt.Sprintf("VW %09d", freqHz))
}

// SetMode sends "VMC <band>,<mode>" (spec example "VMC 0,0").
func (r *Kenwood) SetMode(mode string) error {
	codes := map[string]int{"FM": 0, "AM": 1, "NFM": 2}
	code, ok := codes[mode]
	if !ok {
		return fmt.Errorf("remote: %s unknown mode %q", r.tag, mode)
	}
	return r.cmd(fmt.Sprintf("VMC 0,%d", code))
}

// SetOffset sends "RBN <n>": the repeater-shift/band-number command.
func (r *Kenwood) SetOffset(dir Offset, magnitudeHz uint64) error {
	var n int
	switch dir {
	case OffsetSimplex:
		n = 0
	case OffsetPlus:
		n = 1
	case OffsetMinus:
		n = 2
	default:
		return fmt.Errorf("remote: %s unknown offset direction %q", r.tag, dir)
	}
	return r.cmd(fmt.Sprintf("RBN %d", n))
}

// SetCTCSS looks the tone up in the rig's 1..40 table and sends the table
// index.
func (r *Kenwood) SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error {
	if !txOn && !rxOn {
		return r.cmd("TO 0,0")
	}
	idx := kenwoodPLIndex(toneTenthsHz)
	if idx == 0 {
		return fmt.Errorf("remote: %s no PL table entry for tone %d", r.tag, toneTenthsHz)
	}
	on := 0
	if txOn {
		on = 1
	}
	rxOnInt := 0
	if rxOn {
		rxOnInt = 1
	}
	return r.cmd(fmt.Sprintf("TO %d,%d,%d", on, rxOnInt, idx))
}

func (r *Kenwood) SetPower(level int) error {
	return r.cmd(fmt.Sprintf("PC %d", level))
}

func (r *Kenwood) Close() error { return r.port.Close() }

func (r *Kenwood) cmd(s string) error {
	_, err := r.port.Write(append([]byte(s), ' '))
	return err
}
