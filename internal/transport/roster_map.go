package transport

import (
	"net"
	"sync"
	"time"
)

// PeerKey is the (peer IP, peer port) address a roster entry is keyed by
// (spec §3.4).
type PeerKey struct {
	IP   string
	Port int
}

func keyFor(addr *net.UDPAddr) PeerKey {
	return PeerKey{IP: addr.IP.String(), Port: addr.Port}
}

// Peer is one roster entry: per-peer state for a UDP link transport (spec
// §3.4 "remote callsign, remote name, countdown to timeout, RTP sequence
// number to use, associated Node and private channel, last-heard
// timestamp").
type Peer struct {
	Addr         *net.UDPAddr
	Callsign     string
	Name         string
	Countdown    int
	TXSeq        uint32
	NodeName     string
	LastHeard    time.Time
	RXCodec      int
	TXCodec      int
	Answered     bool // set once CONTROL(ANSWER) has been queued upstream for this peer

	// ChannelClose is invoked on removal to soft-hangup the bridged
	// channel (spec §3.4 "deletion triggers soft-hangup of the bridged
	// channel"). Nil is a no-op.
	ChannelClose func()
}

// Roster is the in-memory peer table of spec §3.4: a mutex-guarded map
// keyed by (IP, port), shared by the usrp and roster transports.
type Roster struct {
	mu    sync.Mutex
	peers map[PeerKey]*Peer
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{peers: make(map[PeerKey]*Peer)}
}

// Insert adds or replaces the entry for addr. Insertion is atomic under
// the roster's mutex (spec §3.4).
func (r *Roster) Insert(addr *net.UDPAddr, p *Peer) {
	p.Addr = addr
	p.LastHeard = time.Now()
	r.mu.Lock()
	r.peers[keyFor(addr)] = p
	r.mu.Unlock()
}

// Lookup returns the entry for addr, or nil.
func (r *Roster) Lookup(addr *net.UDPAddr) *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peers[keyFor(addr)]
}

// Touch refreshes last-heard time and resets countdown for an existing
// peer.
func (r *Roster) Touch(addr *net.UDPAddr, countdown int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[keyFor(addr)]; ok {
		p.LastHeard = time.Now()
		p.Countdown = countdown
	}
}

// Remove deletes the entry for addr, invoking its ChannelClose hook first
// (spec §3.4 "deletion triggers soft-hangup").
func (r *Roster) Remove(addr *net.UDPAddr) {
	r.mu.Lock()
	p, ok := r.peers[keyFor(addr)]
	if ok {
		delete(r.peers, keyFor(addr))
	}
	r.mu.Unlock()
	if ok && p.ChannelClose != nil {
		p.ChannelClose()
	}
}

// All returns a snapshot of every roster entry, for heartbeat walks.
func (r *Roster) All() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	return out
}

// DecrementCountdowns subtracts 1 from every peer's countdown (spec §4.5.2
// "the writer ... decrements each peer's countdown"). Returns peers whose
// countdown went negative, for BYE + removal handling by the caller.
func (r *Roster) DecrementCountdowns() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*Peer
	for _, p := range r.peers {
		p.Countdown--
		if p.Countdown < 0 {
			expired = append(expired, p)
		}
	}
	return expired
}

// Len reports the number of roster entries.
func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}
