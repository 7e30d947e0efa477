package rpt

import (
	"strconv"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/remote"
)

// remoteState is the runtime bookkeeping verbRemote needs beyond what the
// Rig interface itself tracks (spec §4.6): the last-commanded frequency
// (offset magnitude and tune/bump depend on knowing the current band), the
// operator's current remote-base login level, the TX-band permission
// table that level is checked against, and any in-progress scan.
type remoteState struct {
	freqHz     uint64
	loginLevel string
	txLimits   map[string][]config.TxRange
	bumper     *remote.Bumper
}

func newRemoteState(cfg *config.Config) remoteState {
	var limits map[string][]config.TxRange
	if cfg != nil {
		if m, err := cfg.TxLimits(); err == nil {
			limits = m
		}
	}
	return remoteState{txLimits: limits}
}

// checkTxFreq reports whether freqHz is permitted for the node's current
// login level. A Node with no [txlimits] section configured allows any
// frequency CheckFreq itself accepts, matching a deployment that hasn't
// opted into login-level band restrictions.
func (n *Node) checkTxFreq(freqHz uint64) bool {
	if len(n.remote.txLimits) == 0 {
		return true
	}
	return remote.CheckTxFreq(n.remote.txLimits, n.remote.loginLevel, freqHz)
}

// memorySlotFromChannel converts a persisted MemoryChannel row back into
// the config.MemorySlot shape remote.RecallMemory expects; the two types
// are kept deliberately parallel (database/models.go) but distinct since
// one is a GORM row and the other a config-file value.
func memorySlotFromChannel(ch *database.MemoryChannel) config.MemorySlot {
	offsetChar := byte('S')
	if len(ch.OffsetChar) > 0 {
		offsetChar = ch.OffsetChar[0]
	}
	return config.MemorySlot{
		Index:      ch.Index,
		FreqHz:     ch.FreqHz,
		OffsetChar: offsetChar,
		Mode:       ch.Mode,
		Power:      ch.Power,
		PLOn:       ch.PLOn,
		RXPLOn:     ch.RXPLOn,
		TXPL:       ch.TXPL,
		RXPL:       ch.RXPL,
	}
}

// offsetMagnitudeHz returns the repeater shift magnitude for freqHz,
// preferring the Node's configured splits (DefaultSplit2M/DefaultSplit70CM)
// over the generic band defaults, since a Node may legitimately run a
// non-standard split.
func offsetMagnitudeHz(p *config.NodeParams, freqHz uint64) uint64 {
	switch {
	case freqHz >= 144_000_000 && freqHz < 148_000_000:
		if p.DefaultSplit2M != 0 {
			return p.DefaultSplit2M
		}
		return 600_000
	case freqHz >= 420_000_000 && freqHz < 450_000_000:
		if p.DefaultSplit70CM != 0 {
			return p.DefaultSplit70CM
		}
		return 5_000_000
	default:
		return 0
	}
}

// parseUintField parses a sub-verb digit field, returning ok=false for an
// empty or malformed field rather than silently defaulting to zero.
func parseUintField(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

func parseIntField(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}
