package remote

import "fmt"

// ft950 mode digits for the MDnn; command.
var ft950ModeDigits = map[string]string{
	"LSB": "1", "USB": "2", "CW": "3", "FM": "4", "AM": "5",
}

// FT950 drives the ASCII ';'-terminated command set (spec §4.6 "ft950 |
// Serial | ASCII ';'-terminated (FAnnnnnnnn;, OS02;, MD04;, CN0nn;)").
type FT950 struct {
	port Transport
}

func NewFT950(port Transport) *FT950 { return &FT950{port: port} }

func (r *FT950) Tag() string { return "ft950" }

func (r *FT950) CheckFreq(freqHz uint64) bool {
	return freqHz >= 500_000 && freqHz <= 470_000_000
}

func (r *FT950) SetFreq(freqHz uint64) error {
	if !r.CheckFreq(freqHz) {
		return fmt.Errorf("remote: ft950 frequency %d Hz out of range", freqHz)
	}
	return r.cmd(fmt.Sprintf("FA%09d;", freqHz))
}

func (r *FT950) SetMode(mode string) error {
	digit, ok := ft950ModeDigits[mode]
	if !ok {
		return fmt.Errorf("remote: ft950 unknown mode %q", mode)
	}
	return r.cmd(fmt.Sprintf("MD0%s;", digit))
}

func (r *FT950) SetOffset(dir Offset, magnitudeHz uint64) error {
	var code string
	switch dir {
	case OffsetSimplex:
		code = "00"
	case OffsetPlus:
		code = "01"
	case OffsetMinus:
		code = "02"
	default:
		return fmt.Errorf("remote: ft950 unknown offset direction %q", dir)
	}
	return r.cmd(fmt.Sprintf("OS%s;", code))
}

func (r *FT950) SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error {
	if !txOn && !rxOn {
		return r.cmd("CT0;")
	}
	num := kenwoodPLIndex(toneTenthsHz)
	if num == 0 {
		return fmt.Errorf("remote: ft950 no tone table entry for %d", toneTenthsHz)
	}
	if err := r.cmd(fmt.Sprintf("CN0%02d;", num)); err != nil {
		return err
	}
	return r.cmd("CT1;")
}

func (r *FT950) SetPower(level int) error {
	return r.cmd(fmt.Sprintf("PC%03d;", level))
}

func (r *FT950) Close() error { return r.port.Close() }

func (r *FT950) cmd(s string) error {
	_, err := r.port.Write([]byte(s))
	return err
}
