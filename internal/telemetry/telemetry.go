// Package telemetry implements the announcement scheduler of spec §4.4:
// a FIFO queue of pending Node announcements, each executed by a
// short-lived worker goroutine, with holdoff against live audio,
// mode-specific pre-delays, and mass cancellation. Shaped after the
// teacher's internal/network client goroutines (context.Context-driven
// workers, sync.WaitGroup cleanup) generalized from "one network reader"
// to "one worker per queued item".
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode enumerates the ~45 announcement kinds of spec §3.3.
type Mode int

const (
	ID Mode = iota
	ID1
	IDTalkover
	Proc
	Term
	Complete
	RemComplete
	Unkey
	LinkUnkey
	LocUnkey
	RemDisc
	RemAlready
	RemNotFound
	RemGo
	Connected
	ConnFail
	Status
	FullStatus
	RemShortStatus
	RemLongStatus
	Timeout
	TimeoutWarning
	ActTimeoutWarning
	StatsTime
	StatsTimeLocal
	StatsVersion
	StatsGPS
	StatsGPSLegacy
	Playback
	LocalPlay
	ArbAlpha
	TestTone
	RevPatch
	TailMsg
	MacroNotFound
	MacroBusy
	LastNodeKey
	LastUser
	MemNotFound
	InvFreq
	RemMode
	RemLogin
	RemXXX
	LoginReq
	Scan
	ScanStat
	Tune
	SetRemote
	TopKey
	UnauthTX
	Parrot
	VarCmd
	Meter
	UserOut
	Page
	MDC1200
	PfxTone
)

// immediateModes bypass FIFO serialization (spec §4.4 step 1).
var immediateModes = map[Mode]bool{
	SetRemote:      true,
	RemShortStatus: true,
	RemLongStatus:  true,
	Status:         true,
	FullStatus:     true,
}

// IsImmediate reports whether mode bypasses the FIFO wait.
func IsImmediate(mode Mode) bool {
	return immediateModes[mode]
}

// waitClass is the pre-delay bucket of get_wait_interval (spec §4.4 step 3).
type waitClass int

const (
	waitTelem waitClass = iota
	waitID
	waitUnkey
	waitCallTerm
	waitComp
	waitLinkUnkey
	waitParrot
	waitMDC1200
)

func classFor(mode Mode) waitClass {
	switch mode {
	case ID, ID1, IDTalkover:
		return waitID
	case Unkey, LocUnkey:
		return waitUnkey
	case LinkUnkey:
		return waitLinkUnkey
	case Term, RemComplete:
		return waitCallTerm
	case Complete:
		return waitComp
	case Parrot:
		return waitParrot
	case MDC1200:
		return waitMDC1200
	default:
		return waitTelem
	}
}

// Delays holds the configurable pre-announcement windows (§4.4 step 3),
// keyed by the same classes get_wait_interval distinguishes.
type Delays struct {
	Telem     time.Duration
	ID        time.Duration
	Unkey     time.Duration
	CallTerm  time.Duration
	Comp      time.Duration
	LinkUnkey time.Duration
	Parrot    time.Duration
	MDC1200   time.Duration
}

// DefaultDelays mirrors the stock app_rpt pre-delay table.
func DefaultDelays() Delays {
	return Delays{
		Telem:     50 * time.Millisecond,
		ID:        500 * time.Millisecond,
		Unkey:     100 * time.Millisecond,
		CallTerm:  200 * time.Millisecond,
		Comp:      200 * time.Millisecond,
		LinkUnkey: 200 * time.Millisecond,
		Parrot:    500 * time.Millisecond,
		MDC1200:   0,
	}
}

func (d Delays) forClass(c waitClass) time.Duration {
	switch c {
	case waitID:
		return d.ID
	case waitUnkey:
		return d.Unkey
	case waitCallTerm:
		return d.CallTerm
	case waitComp:
		return d.Comp
	case waitLinkUnkey:
		return d.LinkUnkey
	case waitParrot:
		return d.Parrot
	case waitMDC1200:
		return d.MDC1200
	default:
		return d.Telem
	}
}

// LinkSnapshot is the private copy of a link's relevant fields taken at
// enqueue time, so a worker never touches the live link without the Node
// mutex (spec §3.3 "Link snapshot (mylink)").
type LinkSnapshot struct {
	Name     string
	LastRSSI int
}

// Item is one queued or in-flight announcement (spec §3.3 rpt_tele).
type Item struct {
	Mode     Mode
	Param    string
	Submode  int
	Parrot   bool
	MyLink   *LinkSnapshot
	killed   bool
	enqueued time.Time
	done     chan struct{}
	cancel   context.CancelFunc
}

// Killed reports whether flush_telem marked this item for cancellation.
func (it *Item) Killed() bool {
	return it.killed
}

// Player executes the concrete announcement primitives for one Item. A
// Node wires in its own Player (voice/Morse/tone-pair I/O onto the
// monitor channel); telemetry itself only sequences calls to it.
type Player interface {
	Play(ctx context.Context, it *Item) error
}

// HoldoffFunc reports whether local telemetry must wait rather than talk
// over live audio: true while the Node is keyed, or while a remote is
// receiving and mode isn't ID (spec §4.4 step 2).
type HoldoffFunc func(mode Mode) bool

// Scheduler is the Node's FIFO-with-immediate-bypass telemetry queue
// (spec §4.4, REDESIGN FLAGS §9 "priority queue with two classes").
type Scheduler struct {
	mu     sync.Mutex
	items  []*Item
	wg     sync.WaitGroup
	player Player
	delays Delays
	holdoff HoldoffFunc
	log    *zap.SugaredLogger

	lastIDAt time.Time
}

// New creates a Scheduler bound to player, using the given pre-delay
// table and holdoff predicate.
func New(player Player, delays Delays, holdoff HoldoffFunc, log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{player: player, delays: delays, holdoff: holdoff, log: log}
}

// Enqueue appends an announcement and spawns its worker (spec §4.4
// rpt_telemetry / rpt_tele_thread). It returns immediately; the worker
// runs asynchronously until it finishes or is cancelled.
func (s *Scheduler) Enqueue(ctx context.Context, mode Mode, param string, link *LinkSnapshot) *Item {
	wctx, cancel := context.WithCancel(ctx)
	it := &Item{
		Mode:     mode,
		Param:    param,
		MyLink:   link,
		enqueued: time.Now(),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	s.mu.Lock()
	ahead := make([]*Item, len(s.items))
	copy(ahead, s.items)
	s.items = append(s.items, it)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(wctx, it, ahead)
	return it
}

// run is rpt_tele_thread: wait for precedence, honor holdoff, wait the
// mode's pre-delay, play, then remove itself from the list.
func (s *Scheduler) run(ctx context.Context, it *Item, ahead []*Item) {
	defer s.wg.Done()
	defer close(it.done)
	defer s.remove(it)

	if !IsImmediate(it.Mode) {
		for _, prior := range ahead {
			select {
			case <-prior.done:
			case <-ctx.Done():
				return
			}
		}
	}

	for s.holdoff != nil && s.holdoff(it.Mode) {
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}

	if it.killed {
		return
	}

	delay := s.delays.forClass(classFor(it.Mode))
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	if it.killed || ctx.Err() != nil {
		return
	}

	if it.Mode == ID || it.Mode == ID1 {
		s.mu.Lock()
		s.lastIDAt = time.Now()
		s.mu.Unlock()
	}

	if s.player == nil {
		return
	}
	if err := s.player.Play(ctx, it); err != nil && ctx.Err() == nil {
		s.log.Warnw("telemetry: play failed", "mode", it.Mode, "error", err)
	}
}

func (s *Scheduler) remove(it *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.items {
		if cur == it {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Flush implements flush_telem(Node): marks every non-SETREMOTE item
// killed and cancels its worker's context, the soft-hangup equivalent
// (spec §4.4 Cancellation).
func (s *Scheduler) Flush() {
	s.mu.Lock()
	items := make([]*Item, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	for _, it := range items {
		if it.Mode == SetRemote {
			continue
		}
		it.killed = true
		it.cancel()
	}
}

// Wait blocks until every currently running and future-enqueued-so-far
// worker has finished. Used by Node shutdown.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Len reports the number of pending or in-flight items.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// LastID reports when ID/ID1 was last played, for polite-ID windowing
// (spec §4.1 "Ident" transition).
func (s *Scheduler) LastID() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIDAt
}
