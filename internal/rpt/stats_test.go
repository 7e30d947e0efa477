package rpt

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dbehnke/rptd/internal/metrics"
)

func TestNodeStatsNilRepoAndMetricsDoesNotPanic(t *testing.T) {
	s := newNodeStats("testnode", nil, nil)
	s.incrementKerchunk()
	s.incrementKeyup()
	s.incrementTimeout()
	s.incrementExecutedCommand()
	s.addTXSeconds(1.5)
}

func TestNodeStatsUpdatesMetricsWhenRepoNil(t *testing.T) {
	m := metrics.New()
	s := newNodeStats("testnode", nil, m)

	s.incrementKeyup()
	s.incrementKeyup()
	s.incrementKerchunk()
	s.addTXSeconds(3)

	if got := testutil.ToFloat64(m.Keyups.WithLabelValues("testnode")); got != 2 {
		t.Fatalf("expected 2 keyups recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.Kerchunks.WithLabelValues("testnode")); got != 1 {
		t.Fatalf("expected 1 kerchunk recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.TXSeconds.WithLabelValues("testnode")); got != 3 {
		t.Fatalf("expected 3 TX seconds recorded, got %v", got)
	}
}
