package remote

import (
	"fmt"

	"github.com/dbehnke/rptd/internal/config"
)

// RecallMemory programs rig with a channel memory slot (spec §4.6 "Channel
// memory recall" / set_mem), applying frequency, offset, mode, power, and
// PL in one shot.
func RecallMemory(rig Rig, slot config.MemorySlot) error {
	if !rig.CheckFreq(slot.FreqHz) {
		return fmt.Errorf("remote: memory slot %d frequency %d Hz rejected by %s", slot.Index, slot.FreqHz, rig.Tag())
	}
	if err := rig.SetFreq(slot.FreqHz); err != nil {
		return fmt.Errorf("remote: memory slot %d set freq: %w", slot.Index, err)
	}
	if err := rig.SetMode(slot.Mode); err != nil {
		return fmt.Errorf("remote: memory slot %d set mode: %w", slot.Index, err)
	}
	if err := rig.SetOffset(Offset(slot.OffsetChar), offsetMagnitude(slot.FreqHz)); err != nil {
		return fmt.Errorf("remote: memory slot %d set offset: %w", slot.Index, err)
	}
	if err := rig.SetPower(slot.Power); err != nil {
		return fmt.Errorf("remote: memory slot %d set power: %w", slot.Index, err)
	}
	toneTenthsHz := ParsePLTenths(slot.TXPL)
	if err := rig.SetCTCSS(slot.PLOn, slot.RXPLOn, toneTenthsHz); err != nil {
		return fmt.Errorf("remote: memory slot %d set PL: %w", slot.Index, err)
	}
	return nil
}

// offsetMagnitude returns the standard repeater shift for the band
// freqHz falls in (600kHz on 2m, 5MHz on 70cm), since the memory table
// records only the shift direction, not its magnitude.
func offsetMagnitude(freqHz uint64) uint64 {
	switch {
	case freqHz >= 144_000_000 && freqHz < 148_000_000:
		return 600_000
	case freqHz >= 420_000_000 && freqHz < 450_000_000:
		return 5_000_000
	default:
		return 0
	}
}

// ParsePLTenths parses a "67.0"-style PL string into tenths of a Hz.
func ParsePLTenths(s string) int {
	var whole, frac int
	n, _ := fmt.Sscanf(s, "%d.%d", &whole, &frac)
	if n < 2 {
		return 0
	}
	return whole*10 + frac
}

// CheckTxFreq validates freqHz against the TX-band permission ranges for
// loginLevel (spec §4.6 "Frequency/mode validation" via check_tx_freq
// against config.TxLimits/InTxRange).
func CheckTxFreq(limits map[string][]config.TxRange, loginLevel string, freqHz uint64) bool {
	ranges, ok := limits[loginLevel]
	if !ok {
		return false
	}
	return config.InTxRange(freqHz, ranges)
}
