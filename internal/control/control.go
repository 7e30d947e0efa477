// Package control implements the `rptd` control socket of spec §6.4: a
// small JSON-over-HTTP request/response surface for the `rpt`/`tlb`
// command family, plus a live event-stream subscription used by `rpt show
// --watch`. cmd/rptctl is the client; cmd/rptd's Daemon is the server-side
// Dispatcher implementation, kept as an interface here so this package
// never imports cmd/rptd.
package control

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/rpt"
)

// RosterPeerInfo is one row of `tlb nodedump`'s output: a snapshot of a
// single roster transport peer.
type RosterPeerInfo struct {
	Callsign  string `json:"callsign"`
	NodeName  string `json:"node_name"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Countdown int    `json:"countdown"`
}

// Dispatcher is everything the control server needs from the running
// daemon to answer a `rpt`/`tlb` command. cmd/rptd's Daemon implements
// this; accepting the interface here (rather than a concrete *rpt.Node or
// *Daemon type) is what lets internal/control be built and tested without
// importing cmd/rptd.
type Dispatcher interface {
	// NodeNames lists every configured Node, for `rpt nodes`.
	NodeNames() []string

	// Snapshot reports one Node's externally-visible state, for `rpt show`.
	Snapshot(node string) (rpt.Snapshot, bool)

	// Stats reports one Node's persisted counters, for `rpt stats`.
	Stats(node string) (database.NodeStats, bool)

	// AllStats reports every Node's counters, for `rpt stats` with no
	// node argument.
	AllStats() []database.NodeStats

	// ExecuteDTMF feeds digits through node's DTMF dispatcher as src, for
	// `rpt fun`/`rpt cmd`.
	ExecuteDTMF(node string, src dtmf.Source, digits string) (dtmf.Result, error)

	// SendText writes one link-text line out node's connected links, for
	// `rpt sendtext`.
	SendText(node, line string) error

	// SendAll writes one link-text line out every Node's links, for
	// `rpt sendall`.
	SendAll(line string) error

	// LocalPlay enqueues a telemetry sound-file playback on node's
	// monitor channel, for `rpt localplay`.
	LocalPlay(node, sound string) error

	// Reload rebuilds node's NodeParams from the on-disk config and swaps
	// it in, for `rpt reload`.
	Reload(node string) error

	// Restart tears down and relaunches node's Node goroutine, for
	// `rpt restart`.
	Restart(node string) error

	// Sysstate selects node's sys-state bank index, for `rpt sysstate`.
	Sysstate(node string, index int) error

	// Page drives node's APRStt/paging telemetry, for `rpt page`.
	Page(node, target string) error

	// NodeDump lists every peer known to every roster transport, for
	// `tlb nodedump`.
	NodeDump() []RosterPeerInfo

	// NodeGet looks up one entry from the [nodes]/extnodes tables, for
	// `tlb nodeget`.
	NodeGet(num string) (config.NodeEntry, bool)
}

// Request is the JSON body of one control-socket call.
type Request struct {
	Verb string   `json:"verb"`
	Node string   `json:"node,omitempty"`
	Args []string `json:"args,omitempty"`
}

// Response is the JSON reply to a Request.
type Response struct {
	OK     bool        `json:"ok"`
	Output interface{} `json:"output,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Server mounts the control, event-stream, and metrics HTTP endpoints
// (spec §6.4, DOMAIN STACK websocket entry).
type Server struct {
	dispatch Dispatcher
	hub      *Hub
	log      *zap.SugaredLogger

	metricsHandler http.Handler
}

// New builds a Server bound to dispatch. metricsHandler may be nil to
// skip mounting /metrics.
func New(dispatch Dispatcher, metricsHandler http.Handler, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		dispatch:       dispatch,
		hub:            NewHub(log),
		log:            log,
		metricsHandler: metricsHandler,
	}
}

// Hub returns the event broadcaster, so cmd/rptd can publish Events as it
// bridges rpt/link/transport activity.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the mux: POST /control for verb dispatch, GET /events for
// the websocket subscription, GET /metrics for Prometheus scraping.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/control", s.handleControl)
	mux.HandleFunc("/events", s.hub.ServeWS)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return mux
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, Response{OK: false, Error: "bad request: " + err.Error()})
		return
	}
	out, err := s.dispatchVerb(req)
	if err != nil {
		writeJSON(w, Response{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, Response{OK: true, Output: out})
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Event is one line of the `rpt show --watch` live stream.
type Event struct {
	Node string      `json:"node,omitempty"`
	Kind string      `json:"kind"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Publish is a convenience wrapper around Hub.Broadcast for callers that
// only hold the Server.
func (s *Server) Publish(ev Event) {
	s.hub.Broadcast(ev)
}
