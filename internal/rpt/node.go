// Package rpt implements the per-Node run loop and state machine of spec
// §4.1: duplex policy (§4.1.1), RSSI voting (§4.1.2), VOX (§4.1.3), the
// timer/tail/ident/sleep/parrot services, macro-buffer draining, and the
// sys-state bank. It is the aggregate root that wires together
// internal/dtmf, internal/link, internal/telemetry, internal/transport,
// internal/remote, internal/database, internal/metrics, internal/extnodes
// and internal/hooks for one repeater instance.
//
// Grounded on cmd/ysf2dmr/main_goroutine.go's GoroutineGateway: one reader
// goroutine per traffic source feeding a shared channel, drained by a
// single control-thread select loop. Node generalizes that from "one
// network direction" to "every channel source a Node owns" (RX, TX,
// monitor, pseudo, TX-pseudo, VOX, parrot, every link), per spec §4.1
// "Scheduling shape".
package rpt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/extnodes"
	"github.com/dbehnke/rptd/internal/hooks"
	"github.com/dbehnke/rptd/internal/link"
	"github.com/dbehnke/rptd/internal/metrics"
	"github.com/dbehnke/rptd/internal/remote"
	"github.com/dbehnke/rptd/internal/telemetry"
	"github.com/dbehnke/rptd/internal/timer"
)

// TickInterval is the Node loop's maximum per-iteration wait (spec §4.1
// "Scheduling shape ... a maximum wait of 20 ms per iteration").
const TickInterval = 20 * time.Millisecond

// NewKeyState mirrors the handshake tri-state of spec §3.1 at the Node
// level (as distinct from each Link's own state in internal/link).
type NewKeyState = link.NewKeyState

// KeyingState holds the booleans of spec §3.1 "Keying state".
type KeyingState struct {
	Keyed         bool
	TXKeyed       bool
	RXChanKeyed   bool
	ExtTX         bool
	LocalTX       bool
	RemRX         bool
	ReallyKeyed   bool
	DTMFKeyed     bool
	NewKey        NewKeyState
	KeyedAt       time.Time
}

// Deps bundles the constructor-injected collaborators a Node needs (spec
// §9 "avoid hidden module-level state ... passed to Nodes as constructor
// arguments").
type Deps struct {
	Config   *config.Config // source of the shared function/macro/telemetry tables
	Stats    *database.StatsRepository
	Memory   *database.MemoryRepository
	History  *database.LinkHistoryRepository
	Metrics  *metrics.Metrics
	ExtNodes *extnodes.Syncer
	Hooks    *hooks.Hooks
	Rig      remote.Rig // nil unless p.Remote names a configured rig tag
	Log      *zap.SugaredLogger
}

// Sink is the monitor-channel audio writer a Node hands to its telemetry
// AudioPlayer (spec §4.4 "executes the announcement on the monitor
// channel").
type Sink interface {
	WriteAudio(samples []int16) error
}

// Node is the root aggregate for one repeater instance (spec §3.1).
type Node struct {
	mu sync.Mutex // "the Node mutex" of spec §5

	Name     string
	Callsign string
	P        *config.NodeParams

	Keying KeyingState

	Timers    *TimerBank
	SysStates *SysStateBank

	DTMF      *dtmf.Dispatcher
	Links     *link.Manager
	Telemetry *telemetry.Scheduler
	Voter     *Voter
	VOXRX     *VOXTracker

	macro     *MacroBuffer
	macroDefs config.Section

	deps Deps
	log  *zap.SugaredLogger

	events chan Event

	restarts      int
	lastRestartAt time.Time
	lastThreadTouch time.Time

	runForever bool

	wg sync.WaitGroup

	parrot *ParrotRecorder

	stats *nodeStats

	pending pendingAction

	remote remoteState
}

// New constructs a Node from its configuration snapshot. Collaborators in
// deps may be nil in tests; only the pieces actually exercised need to be
// real.
func New(p *config.NodeParams, deps Deps) *Node {
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	n := &Node{
		Name:      p.Name,
		Callsign:  p.Callsign,
		P:         p,
		Timers:    NewTimerBank(p),
		SysStates: NewSysStateBank(p),
		Links:     link.NewManager(p.Name, 10*time.Second, 2*time.Second),
		Voter:     NewVoter(p.VoterType, p.VoterMargin, p.VoterOneShot),
		VOXRX:     NewVOXTracker(),
		macro:     NewMacroBuffer(),
		deps:      deps,
		log:       log,
		events:    make(chan Event, 256),
		parrot:    NewParrotRecorder(p.Name),
		stats:     newNodeStats(p.Name, deps.Stats, deps.Metrics),
	}
	if deps.Config != nil && p.MacroSection != "" {
		n.macroDefs = deps.Config.Section(p.MacroSection)
	} else {
		n.macroDefs = config.Section{}
	}
	n.remote = newRemoteState(deps.Config)
	n.DTMF = dtmf.New(p.FuncChar, p.EndChar, buildFunctionTables(p, deps.Config))
	n.registerVerbs()
	n.Telemetry = telemetry.New(nil, telemetry.DefaultDelays(), n.holdoffTelem, log)
	return n
}

// Touch records loop liveness for the module-level supervisor (spec §4.1
// "Thread-health").
func (n *Node) touch() {
	n.lastThreadTouch = time.Now()
}

// LastThreadUpdate reports when the loop last iterated, for the
// supervisor's stuck-Node detection (spec §4.1 "RPT_THREAD_TIMEOUT").
func (n *Node) LastThreadUpdate() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastThreadTouch
}

// Emit feeds one Event into the Node's multiplexed channel, called by
// each source's reader goroutine (spec §4.1 "Scheduling shape").
func (n *Node) Emit(ev Event) {
	select {
	case n.events <- ev:
	default:
		n.log.Warnw("rpt: event channel full, dropping", "node", n.Name, "kind", ev.Kind)
	}
}

// Run drives the Node loop until ctx is cancelled (spec §4.1 "Contract").
// It never returns until shutdown; callers wrap it in the self-respawning
// supervisor described in spec §3.1 "Lifecycle".
func (n *Node) Run(ctx context.Context) error {
	n.mu.Lock()
	n.runForever = true
	n.mu.Unlock()

	if n.P.StartupMacro != "" {
		n.macro.Push(n.P.StartupMacro)
	}

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			n.shutdown()
			return ctx.Err()
		case ev := <-n.events:
			n.handleEvent(ev)
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			n.iterate(elapsed)
		}
	}
}

// iterate is one pass of spec §4.1's numbered steps 1/3/4/5 (event
// dispatch, step 2, happens inline as events arrive rather than batched,
// since Go's select already interleaves channel reads with the ticker).
func (n *Node) iterate(elapsed time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.touch()
	n.Timers.Tick(elapsed)
	n.serviceTimers(elapsed)
	n.serviceLinks(elapsed)
	n.drainMacro(elapsed)
	n.evaluateKeying()
	n.runPendingAction()
}

func (n *Node) shutdown() {
	n.mu.Lock()
	n.runForever = false
	if n.remote.bumper != nil {
		n.remote.bumper.Stop()
		n.remote.bumper = nil
	}
	n.mu.Unlock()
	n.Telemetry.Flush()
	n.Telemetry.Wait()
	for _, l := range n.Links.All() {
		n.Links.Kill(l, link.DiscByUs)
	}
	n.log.Infow("rpt: node stopped", "node", n.Name)
}

// pendingAction is spec §4.1 step 4's single slot: any verb handler may
// set it, and only the loop (holding the Node mutex) executes it.
type pendingAction func(*Node)

func (n *Node) setPendingAction(fn pendingAction) {
	n.mu.Lock()
	n.pending = fn
	n.mu.Unlock()
}

func (n *Node) runPendingAction() {
	if n.pending == nil {
		return
	}
	fn := n.pending
	n.pending = nil
	fn(n)
}

// restartAllowed reports whether the Node may respawn after its control
// thread exited (spec §3.1 "bounded restart count and minimum time
// between restarts — exceeding the bound marks the Node deleted").
func (n *Node) restartAllowed(maxRestarts int, minWindow time.Duration) bool {
	now := time.Now()
	if now.Sub(n.lastRestartAt) < minWindow {
		n.restarts++
	} else {
		n.restarts = 1
	}
	n.lastRestartAt = now
	return n.restarts <= maxRestarts
}

func (n *Node) holdoffTelem(mode telemetry.Mode) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Keying.Keyed {
		return true
	}
	if n.Keying.RemRX && mode != telemetry.ID {
		return true
	}
	return false
}

// String renders a one-line identity for logs.
func (n *Node) String() string {
	return fmt.Sprintf("Node(%s/%s)", n.Name, n.Callsign)
}

// ExecuteDTMF feeds digits through the DTMF dispatcher as src exactly as if
// they had arrived over the radio, for the control surface's `rpt fun`
// command (spec §6.4). Callers supply the lead-in funcchar and trailing
// endchar themselves, matching the original `fun` command's own usage.
func (n *Node) ExecuteDTMF(src dtmf.Source, digits string) dtmf.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	res := dtmf.Indeterminate
	now := time.Now()
	for i := 0; i < len(digits); i++ {
		res = n.DTMF.Process(src, digits[i], now)
	}
	return res
}

// Reconfigure swaps in a freshly built NodeParams snapshot (spec §9 "nrpts
// handling during reconfiguration": build a new snapshot and swap it in
// under the Node mutex rather than mutating fields in place).
func (n *Node) Reconfigure(p *config.NodeParams) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.P = p
}

// Snapshot is a point-in-time read of the fields the control surface's
// `rpt show`/`rpt nodes` commands report (spec §6.4).
type Snapshot struct {
	Name      string
	Callsign  string
	Keyed     bool
	TXKeyed   bool
	Links     int
	SysState  int
	TXDisabled bool
}

// Snapshot takes a consistent read of the Node's externally-visible state.
func (n *Node) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Snapshot{
		Name:       n.Name,
		Callsign:   n.Callsign,
		Keyed:      n.Keying.Keyed,
		TXKeyed:    n.Keying.TXKeyed,
		Links:      n.Links.Len(),
		SysState:   n.SysStates.CurrentIndex(),
		TXDisabled: n.SysStates.Current().TXDisabled,
	}
}
