package rpt

import (
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/metrics"
)

// nodeStats wires the persisted counters of spec §3.1 to the in-process
// Prometheus instruments of the same name, so one call site updates both
// without every caller needing to know about both collaborators.
type nodeStats struct {
	nodeName string
	repo     *database.StatsRepository
	metrics  *metrics.Metrics
}

func newNodeStats(nodeName string, repo *database.StatsRepository, m *metrics.Metrics) *nodeStats {
	return &nodeStats{nodeName: nodeName, repo: repo, metrics: m}
}

func (s *nodeStats) incrementKerchunk() {
	if s.repo != nil {
		_ = s.repo.IncrementKerchunk(s.nodeName)
	}
	if s.metrics != nil {
		s.metrics.IncKerchunk(s.nodeName)
	}
}

func (s *nodeStats) incrementKeyup() {
	if s.repo != nil {
		_ = s.repo.IncrementKeyup(s.nodeName)
	}
	if s.metrics != nil {
		s.metrics.IncKeyup(s.nodeName)
	}
}

func (s *nodeStats) incrementTimeout() {
	if s.repo != nil {
		_ = s.repo.IncrementTimeout(s.nodeName)
	}
	if s.metrics != nil {
		s.metrics.IncTimeout(s.nodeName)
	}
}

func (s *nodeStats) incrementExecutedCommand() {
	if s.repo != nil {
		_ = s.repo.IncrementExecutedCommand(s.nodeName)
	}
	if s.metrics != nil {
		s.metrics.IncExecutedCommand(s.nodeName)
	}
}

func (s *nodeStats) addTXSeconds(seconds float64) {
	if s.repo != nil {
		_ = s.repo.AddTXSeconds(s.nodeName, seconds)
	}
	if s.metrics != nil {
		s.metrics.AddTXSeconds(s.nodeName, seconds)
	}
}
