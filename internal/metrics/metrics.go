// Package metrics exports spec §3.1's per-Node statistics counters and
// §3.4's peer-roster size as Prometheus metrics, scraped by the control
// server's /metrics endpoint (§6.4).
//
// Grounded on runZeroInc-sockstats' cmd/exporter_example1: the
// prometheus.MustRegister + promhttp.Handler() shape, generalized here
// from one ad-hoc Collector to a fixed set of promauto-registered
// CounterVec/GaugeVec instruments keyed by node name, the idiomatic
// client_golang pattern for a known, bounded metric set.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge rptd exports.
type Metrics struct {
	registry *prometheus.Registry

	Kerchunks        *prometheus.CounterVec
	Keyups           *prometheus.CounterVec
	Timeouts         *prometheus.CounterVec
	ExecutedCommands *prometheus.CounterVec
	TXSeconds        *prometheus.CounterVec
	RosterSize       *prometheus.GaugeVec
	LinkedPeers      *prometheus.GaugeVec
}

// New creates a fresh registry and registers every rptd instrument
// against it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Kerchunks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rptd",
			Name:      "kerchunks_total",
			Help:      "Total kerchunks (brief keyups with no speech) per node.",
		}, []string{"node"}),
		Keyups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rptd",
			Name:      "keyups_total",
			Help:      "Total receiver keyups per node.",
		}, []string{"node"}),
		Timeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rptd",
			Name:      "timeouts_total",
			Help:      "Total transmit-timeout events per node.",
		}, []string{"node"}),
		ExecutedCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rptd",
			Name:      "dtmf_commands_total",
			Help:      "Total executed DTMF commands per node.",
		}, []string{"node"}),
		TXSeconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rptd",
			Name:      "tx_seconds_total",
			Help:      "Accumulated keyed-transmit seconds per node.",
		}, []string{"node"}),
		RosterSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rptd",
			Name:      "roster_peers",
			Help:      "Current peer count in a link transport's roster.",
		}, []string{"transport"}),
		LinkedPeers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rptd",
			Name:      "linked_peers",
			Help:      "Current number of connected links per node.",
		}, []string{"node"}),
	}
}

// Handler returns the HTTP handler to mount at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncKerchunk(node string)         { m.Kerchunks.WithLabelValues(node).Inc() }
func (m *Metrics) IncKeyup(node string)            { m.Keyups.WithLabelValues(node).Inc() }
func (m *Metrics) IncTimeout(node string)          { m.Timeouts.WithLabelValues(node).Inc() }
func (m *Metrics) IncExecutedCommand(node string)  { m.ExecutedCommands.WithLabelValues(node).Inc() }
func (m *Metrics) AddTXSeconds(node string, s float64) {
	m.TXSeconds.WithLabelValues(node).Add(s)
}
func (m *Metrics) SetRosterSize(transport string, n int) {
	m.RosterSize.WithLabelValues(transport).Set(float64(n))
}
func (m *Metrics) SetLinkedPeers(node string, n int) {
	m.LinkedPeers.WithLabelValues(node).Set(float64(n))
}
