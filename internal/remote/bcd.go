package remote

import "fmt"

// packBCD encodes value as n decimal digits packed two-per-byte, most
// significant digit first. n must be even.
func packBCD(value uint64, n int) []byte {
	digits := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		digits[i] = byte(value % 10)
		value /= 10
	}
	out := make([]byte, n/2)
	for i := 0; i < n/2; i++ {
		out[i] = digits[2*i]<<4 | digits[2*i+1]
	}
	return out
}

// unpackBCD is the inverse of packBCD.
func unpackBCD(raw []byte) uint64 {
	var v uint64
	for _, b := range raw {
		v = v*100 + uint64(b>>4)*10 + uint64(b&0x0f)
	}
	return v
}

// reverseBytes returns a copy of b with byte order reversed, used for
// Icom CI-V's little-endian-by-byte BCD frequency convention (spec §4.6
// "ic706 | ... | Packed-BCD frequency").
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// ft897FreqBCD packs freqHz into the 4-byte, 10Hz-resolution packed-BCD
// frequency field the Yaesu CAT protocol (FT-897/FT-100) uses, e.g.
// 146520000 Hz -> BCD(14652000) across 4 bytes.
func ft897FreqBCD(freqHz uint64) ([]byte, error) {
	if freqHz%10 != 0 {
		return nil, fmt.Errorf("remote: frequency %d Hz not on a 10Hz boundary", freqHz)
	}
	tens := freqHz / 10
	if tens > 99_999_999 {
		return nil, fmt.Errorf("remote: frequency %d Hz out of range", freqHz)
	}
	return packBCD(tens, 8), nil
}

// civFreqBCD packs freqHz into Icom CI-V's 5-byte, 1Hz-resolution,
// byte-reversed packed-BCD frequency field.
func civFreqBCD(freqHz uint64) ([]byte, error) {
	if freqHz > 9_999_999_999 {
		return nil, fmt.Errorf("remote: frequency %d Hz out of range", freqHz)
	}
	return reverseBytes(packBCD(freqHz, 10)), nil
}
