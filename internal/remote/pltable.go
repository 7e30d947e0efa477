package remote

// PL code tables: each rig has its own integer encoding of the standard
// CTCSS tone set (spec §4.6 "each rig has its own integer encoding of
// standard CTCSS tones (67.0 Hz -> 0 or 1 depending on rig); the spec
// includes these tables as immutable constants").
//
// standardTones is the canonical CTCSS tone list in tenths of a Hz, in
// ascending order; rig-specific tables below map tone -> rig code by
// index into this list (kenwoodPLIndex) or identity-with-offset (the
// Yaesu/Icom families encode the tone value itself, not an index).
var standardTones = []int{
	670, 693, 719, 744, 770, 797, 825, 854, 885, 915,
	948, 974, 1000, 1035, 1072, 1109, 1148, 1188, 1230, 1273,
	1318, 1365, 1413, 1462, 1514, 1567, 1598, 1622, 1655, 1679,
	1713, 1738, 1773, 1799, 1835, 1862, 1899, 1928, 1966, 2035,
}

// kenwoodPLIndex returns the 1..40 table index used by the kenwood/
// tmd700/tm271 family (spec §4.6 "PL coded via 1..40 table").
func kenwoodPLIndex(toneTenthsHz int) int {
	for i, t := range standardTones {
		if t == toneTenthsHz {
			return i + 1
		}
	}
	return 0
}

// yaesuPLCode returns the BCD-packable numeric tone code the ft897/ft100
// CAT command set expects (ft950 uses kenwoodPLIndex instead): the tone frequency itself, tenths of a
// Hz, zero-padded to 4 digits (e.g. 67.0 Hz -> 0670).
func yaesuPLCode(toneTenthsHz int) int {
	return toneTenthsHz
}

// civPLCode returns the packed-BCD-ready tone code for the ic706/xcat CI-V
// command set: tenths of a Hz as a plain integer, same convention as
// Yaesu (both encode the tone value, not a table index).
func civPLCode(toneTenthsHz int) int {
	return toneTenthsHz
}

// rbiPLIndex returns the RBI parallel-interface PL index, a compact table
// covering the commonly used repeater tones (spec §4.6 "PL index").
func rbiPLIndex(toneTenthsHz int) int {
	for i, t := range standardTones {
		if t == toneTenthsHz {
			return i
		}
	}
	return -1
}
