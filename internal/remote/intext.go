package remote

import "fmt"

// InBandText drives the rtx150/rtx450/ppp16 firmware command set: plain
// text commands sent over the same serial line the audio firmware
// listens on (spec §4.6 "In-band serial text command to the radio
// firmware (SETFREQ …)").
type InBandText struct {
	tag  string
	port Transport
}

func NewRTX150(port Transport) *InBandText { return &InBandText{tag: "rtx150", port: port} }
func NewRTX450(port Transport) *InBandText { return &InBandText{tag: "rtx450", port: port} }
func NewPPP16(port Transport) *InBandText  { return &InBandText{tag: "ppp16", port: port} }

func (r *InBandText) Tag() string { return r.tag }

func (r *InBandText) CheckFreq(freqHz uint64) bool {
	return freqHz >= 30_000_000 && freqHz <= 999_000_000
}

func (r *InBandText) SetFreq(freqHz uint64) error {
	if !r.CheckFreq(freqHz) {
		return fmt.Errorf("remote: %s frequency %d Hz out of range", r.tag, freqHz)
	}
	return r.cmd(fmt.Sprintf("SETFREQ %d\n", freqHz))
}

func (r *InBandText) SetMode(mode string) error {
	return r.cmd(fmt.Sprintf("SETMODE %s\n", mode))
}

func (r *InBandText) SetOffset(dir Offset, magnitudeHz uint64) error {
	return r.cmd(fmt.Sprintf("SETOFFSET %c %d\n", byte(dir), magnitudeHz))
}

func (r *InBandText) SetCTCSS(txOn, rxOn bool, toneTenthsHz int) error {
	if !txOn && !rxOn {
		return r.cmd("SETPL OFF\n")
	}
	return r.cmd(fmt.Sprintf("SETPL %d.%d TX=%v RX=%v\n", toneTenthsHz/10, toneTenthsHz%10, txOn, rxOn))
}

func (r *InBandText) SetPower(level int) error {
	return r.cmd(fmt.Sprintf("SETPOWER %d\n", level))
}

func (r *InBandText) Close() error { return r.port.Close() }

func (r *InBandText) cmd(s string) error {
	_, err := r.port.Write([]byte(s))
	return err
}
