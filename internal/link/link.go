// Package link implements the link graph and keying/text protocol of spec
// §4.3: a dynamic set of inbound/outbound links, the connect FSM, the
// newkey handshake, the 7-verb text-control grammar, link-list gossip, and
// hang/disconnect timers. Shaped after the teacher's
// internal/network.{YSFNetwork,DMRNetwork} reader-goroutine-plus-mutex
// pattern, generalized from "one fixed peer" to "a managed set of peers".
package link

import (
	"time"

	"github.com/google/uuid"

	"github.com/dbehnke/rptd/internal/timer"
)

// Mode is the link's audio routing mode (spec §3.2).
type Mode int

const (
	ModeMonitor Mode = iota
	ModeTransceive
	ModeLocalMonitor
)

// PhoneMode is the link's phone-bridging mode (spec §3.2).
type PhoneMode int

const (
	PhoneNone PhoneMode = iota
	PhoneControl
	PhoneDumbDuplex
	PhoneDumbSimplex
)

// NewKeyState is the newkey handshake state (spec §3.2, §4.3.2).
type NewKeyState int

const (
	NewKeyAllowed NewKeyState = iota
	NewKeyAllowedRedundant
	NewKeyNotAllowed
)

// FSMState is the outbound connect state machine of spec §4.3.1.
type FSMState int

const (
	StateInit FSMState = iota
	StateConnectPending
	StateConnected
	StateDead
)

func (s FSMState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateConnectPending:
		return "CONNECT_PENDING"
	case StateConnected:
		return "CONNECTED"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// DiscBy records who tore the link down (spec §3.2 "disced (2 bits)").
type DiscBy int

const (
	DiscNone DiscBy = iota
	DiscByUs
	DiscByPeer
)

// MaxRetriesPermanent is the sentinel "never exhausts" retry count used by
// permanent links (spec §3.2 "MAX_RETRIES_PERM is effectively infinite").
const MaxRetriesPermanent = 1 << 30

// RetryInterval is the backoff between outbound dial attempts for a link
// stuck in CONNECT_PENDING after a failed dial (spec §4.3.1 "connection
// establishment with retries").
const RetryInterval = 5 * time.Second

// RXLingerTimeout bounds how long a connected link may go without RX
// traffic before it is declared dead (spec §3.2 "DEAD: reached on ...
// RX-linger timer expiry without traffic").
const RXLingerTimeout = 90 * time.Second

// UnkeyTailGrace is the quiet period after a link's last unkey during which
// silence is expected and does not yet count against RXLingerTimeout (spec
// §3.2 "unkey-COR-tail").
const UnkeyTailGrace = 10 * time.Second

// TextWriter is the minimal capability a Link needs from its network
// channel to send text-control messages (spec §4.3.3); implemented by both
// transport packages' per-peer channel type.
type TextWriter interface {
	WriteText(line string) error
}

// Link represents one connection to a remote node (spec §3.2).
type Link struct {
	ConnID uuid.UUID // recovered identity for logs/control-socket (not in original C struct)

	Name      string
	Mode      Mode
	PhoneMode PhoneMode
	Outbound  bool
	Perma     bool

	State FSMState

	// Flags (spec §3.2 "Flags (bit-packed)")
	Connected       bool
	HasConnected    bool
	ThisConnected   bool
	LastTX          bool
	LastTX1         bool
	LastRX          bool
	LastRealRX      bool
	LastRX1         bool
	KillMe          bool
	Disced          DiscBy
	DTMFed          bool
	GotFirstTelem   bool
	ConnectInProg   bool
	LastFrameSent   time.Time

	NewKey        NewKeyState
	NewKeyTimer   *timer.Countdown

	// Timers (spec §3.2 "disc, retry, retransmit, RX-linger, unkey-COR-tail,
	// connect elapsed"). The per-link re-receive, link-list-refresh and
	// keepalive timers named alongside these in spec §3.2 are not carried
	// here: re-transmission already covers the CONNECT_PENDING retry role
	// re-receive would otherwise duplicate, link-list refresh is a Node-wide
	// cadence already owned by Manager.gossipTimer, and keepalive duplicates
	// roster.Transport.Heartbeat's per-peer SDES/countdown sweep (spec
	// §4.5.2) one layer down in the transport.
	DiscTimer       *timer.Countdown
	RetryTimer      *timer.Countdown
	RetransmitTimer *timer.Countdown
	RXLingerTimer   *timer.Countdown
	UnkeyTailTimer  *timer.Countdown
	ConnectElapsed  time.Duration

	Retries    int
	MaxRetries int

	// Voting (spec §3.2 "Voting fields")
	IsVoterLink bool
	VoteWinner  bool
	LastRSSI    int

	LinkList string // CSV of this link's own downstream links

	Writer TextWriter

	// inbound queues are modeled as channels rather than the C ring
	// buffers; capacity mirrors §5's QUEUE_OVERLOAD_THRESHOLD_AST.
	RXFrames chan []byte
	TextIn   chan string
}

// New creates a Link in the INIT state (spec §3.2 lifecycle).
func New(name string, mode Mode, outbound, perma bool) *Link {
	maxRetries := 3
	if perma {
		maxRetries = MaxRetriesPermanent
	}
	return &Link{
		ConnID:          uuid.New(),
		Name:            name,
		Mode:            mode,
		Outbound:        outbound,
		Perma:           perma,
		State:           StateInit,
		NewKey:          NewKeyAllowed,
		MaxRetries:      maxRetries,
		NewKeyTimer:     timer.New(),
		DiscTimer:       timer.New(),
		RetryTimer:      timer.New(),
		RetransmitTimer: timer.New(),
		RXLingerTimer:   timer.New(),
		UnkeyTailTimer:  timer.New(),
		RXFrames:        make(chan []byte, QueueOverloadThresholdAST),
		TextIn:          make(chan string, 64),
	}
}

// QueueOverloadThresholdAST and QueueOverloadThresholdEL are the bounded
// jitter-queue sizes of spec §5.
const (
	QueueOverloadThresholdEL  = 20
	QueueOverloadThresholdAST = 25
)

// RetriesExhausted reports whether the link should be torn down for having
// used up its retry budget (never true for permanent links).
func (l *Link) RetriesExhausted() bool {
	return l.Retries >= l.MaxRetries
}

// NoteRX records RX traffic heard from the peer, clearing the unkey-tail
// grace and RX-linger countdowns since the link is plainly still alive
// (spec §3.2 "DEAD: reached on ... RX-linger timer expiry without
// traffic").
func (l *Link) NoteRX() {
	l.UnkeyTailTimer.Stop()
	l.RXLingerTimer.Stop()
}

// NoteUnkey arms the unkey-COR-tail grace period after the peer stops
// transmitting; Manager.Tick only starts counting RXLingerTimer once this
// grace elapses, so a normal gap between transmissions is never mistaken
// for dead air.
func (l *Link) NoteUnkey() {
	l.UnkeyTailTimer.Start(UnkeyTailGrace)
}
