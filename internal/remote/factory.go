package remote

// NewRig dispatches on the configured rig tag to construct the matching
// driver (spec §4.6 "the dispatcher in setrem/closerem/check_freq/
// multimode_bump_freq/set_mode switches on the string tag"; REDESIGN
// FLAGS §9 "the setrem dispatch reduces to match on the tag").
func NewRig(tag string, port Transport, civAddr byte) (Rig, error) {
	switch tag {
	case "ft897":
		return NewFT897(port), nil
	case "ft100":
		return NewFT100(port), nil
	case "ft950":
		return NewFT950(port), nil
	case "ic706":
		return NewIC706(port, civAddr), nil
	case "xcat":
		return NewXcat(port, civAddr), nil
	case "kenwood":
		return NewKenwood(port), nil
	case "tmd700":
		return NewTMD700(port), nil
	case "tm271":
		return NewTM271(port), nil
	case "rbi":
		return NewRBI(port), nil
	case "rtx150":
		return NewRTX150(port), nil
	case "rtx450":
		return NewRTX450(port), nil
	case "ppp16":
		return NewPPP16(port), nil
	default:
		return nil, ErrUnsupportedTag
	}
}
