package roster

import (
	"context"
	"net"
	"path/filepath"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"go.uber.org/zap"

	"github.com/dbehnke/rptd/internal/transport"
)

// KeepaliveIterations is the heartbeat cadence of spec §4.5.2 ("every
// keepalive iterations, the writer walks the roster sending SDES").
const KeepaliveIterations = 20

// DefaultCountdown is the per-peer timeout countdown reloaded on every
// heard packet.
const DefaultCountdown = 3

// Mode selects how an accepted inbound call is bridged (spec §4.5.2 step
// 2: "associates it with the shared private channel, else spawns a fresh
// channel bridged to a host context at a configured extension").
type Mode int

const (
	ModeConference Mode = iota
	ModeExtension
)

// AccessList implements permit/deny CNAME matching via shell-glob
// patterns (spec §4.5.2 "consults deny/permit lists (fnmatch against the
// CNAME)").
type AccessList struct {
	Permit []string
	Deny   []string
}

// Allows reports whether callsign passes the deny-then-permit check: any
// deny match rejects; otherwise an empty permit list allows everything,
// else at least one permit match is required.
func (a AccessList) Allows(callsign string) bool {
	for _, pat := range a.Deny {
		if ok, _ := filepath.Match(pat, callsign); ok {
			return false
		}
	}
	if len(a.Permit) == 0 {
		return true
	}
	for _, pat := range a.Permit {
		if ok, _ := filepath.Match(pat, callsign); ok {
			return true
		}
	}
	return false
}

// CallEvent is an upstream indication produced by the transport (spec
// §4.5.2 "Answered when the first voice or SDES arrives: a
// CONTROL(ANSWER) is queued upstream").
type CallEvent struct {
	Kind  CallEventKind
	Peer  *transport.Peer
	Voice []byte
	Digit byte
	Text  string
}

// CallEventKind enumerates the events Transport emits.
type CallEventKind int

const (
	EventAnswer CallEventKind = iota
	EventVoice
	EventDTMF
	EventBye
	EventText
)

// Transport is one TLB roster link: an audio RTP socket on port and a
// control RTCP socket on port+1, shared peer roster, and SSRC/codec
// bookkeeping (spec §4.5.2). Shaped after the teacher's
// internal/network.YSFNetwork (bound socket + destination), doubled for
// the audio/control port pair.
type Transport struct {
	SelfCallsign string
	SelfSSRC     uint32
	Access       AccessList
	Mode         Mode

	audio   *transport.Socket
	control *transport.Socket

	Roster *transport.Roster
	dups   map[transport.PeerKey]*DupGuard

	log *zap.SugaredLogger

	Events chan CallEvent
}

// New binds the audio/control port pair at bindAddr:port / port+1.
func New(bindAddr string, port int, selfCallsign string, access AccessList, mode Mode, log *zap.SugaredLogger) (*Transport, error) {
	audio, err := transport.Listen(bindAddr, port)
	if err != nil {
		return nil, err
	}
	control, err := transport.Listen(bindAddr, port+1)
	if err != nil {
		audio.Close()
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Transport{
		SelfCallsign: selfCallsign,
		SelfSSRC:     SSRCForCallsign(selfCallsign),
		Access:       access,
		Mode:         mode,
		audio:        audio,
		control:      control,
		Roster:       transport.NewRoster(),
		dups:         make(map[transport.PeerKey]*DupGuard),
		log:          log,
		Events:       make(chan CallEvent, 64),
	}, nil
}

// Close releases both sockets.
func (t *Transport) Close() error {
	t.control.Close()
	return t.audio.Close()
}

// Connect performs outbound call establishment step 1: look up the
// destination, create a roster entry, and send an SDES (spec §4.5.2
// "Call establishment").
func (t *Transport) Connect(nodeName, callsign, host string, port int) error {
	audioAddr, err := transport.ResolveAddr(host, port)
	if err != nil {
		return err
	}
	controlAddr := &net.UDPAddr{IP: audioAddr.IP, Port: port + 1}

	ssrc := SSRCForCallsign(t.SelfCallsign)
	t.Roster.Insert(audioAddr, &transport.Peer{
		Callsign:  callsign,
		NodeName:  nodeName,
		Countdown: DefaultCountdown,
		RXCodec:   int(CodecULaw),
		TXCodec:   int(CodecULaw),
	})

	sdes := BuildSDES(ssrc, t.SelfCallsign, nodeName, "rptd")
	buf, err := sdes.Marshal()
	if err != nil {
		return err
	}
	return t.control.WriteTo(buf, controlAddr)
}

// RunAudio drives the audio-port reader loop until ctx is cancelled.
func (t *Transport) RunAudio(ctx context.Context) {
	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, addr, err := t.audio.ReadFrom(buf, 50*time.Millisecond)
		if err != nil {
			t.log.Warnw("roster: audio read error", "error", err)
			continue
		}
		if n == 0 {
			continue
		}
		t.handleAudioPacket(buf[:n], addr)
	}
}

// RunControl drives the control-port reader loop until ctx is cancelled.
func (t *Transport) RunControl(ctx context.Context) {
	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, addr, err := t.control.ReadFrom(buf, 50*time.Millisecond)
		if err != nil {
			t.log.Warnw("roster: control read error", "error", err)
			continue
		}
		if n == 0 {
			continue
		}
		t.handleControlPacket(buf[:n], addr)
	}
}

func (t *Transport) handleAudioPacket(raw []byte, addr *net.UDPAddr) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		t.log.Warnw("roster: rtp unmarshal error", "error", err)
		return
	}

	if pkt.PayloadType == PayloadTypeDTMF {
		t.handleDTMF(pkt, addr)
		return
	}

	peer := t.Roster.Lookup(addr)
	if peer == nil {
		// Unsolicited audio from an unknown peer; ignored per spec
		// §4.5.2 (calls are established via SDES, not bare audio).
		return
	}

	codec := CodecForPayloadType(pkt.PayloadType)
	if int(codec) != peer.RXCodec {
		peer.RXCodec = int(codec)
	}
	t.Roster.Touch(addr, DefaultCountdown)

	if !peer.Answered {
		peer.Answered = true
		t.emit(CallEvent{Kind: EventAnswer, Peer: peer})
	}
	t.emit(CallEvent{Kind: EventVoice, Peer: peer, Voice: append([]byte(nil), pkt.Payload...)})
}

func (t *Transport) handleDTMF(pkt rtp.Packet, addr *net.UDPAddr) {
	f, err := ParseDTMFBody(pkt.Payload)
	if err != nil {
		t.log.Warnw("roster: dtmf parse error", "error", err)
		return
	}
	key := transport.PeerKey{IP: addr.IP.String(), Port: addr.Port}
	guard, ok := t.dups[key]
	if !ok {
		guard = &DupGuard{}
		t.dups[key] = guard
	}
	if !guard.Admit(f) {
		return
	}
	peer := t.Roster.Lookup(addr)
	t.emit(CallEvent{Kind: EventDTMF, Peer: peer, Digit: f.Digit})
}

func (t *Transport) handleControlPacket(raw []byte, addr *net.UDPAddr) {
	sd, bye, err := ParseControlPacket(raw)
	if err != nil {
		t.log.Warnw("roster: rtcp parse error", "error", err)
		return
	}
	if bye != nil {
		if peer := t.Roster.Lookup(addr); peer != nil {
			t.emit(CallEvent{Kind: EventBye, Peer: peer})
		}
		t.Roster.Remove(addr)
		return
	}
	if sd == nil {
		return
	}
	if line, ok := TextFromSDES(sd); ok {
		if peer := t.Roster.Lookup(addr); peer != nil {
			t.Roster.Touch(addr, DefaultCountdown)
			t.emit(CallEvent{Kind: EventText, Peer: peer, Text: line})
		}
		return
	}
	t.handleSDES(sd, addr)
}

func (t *Transport) handleSDES(sd *rtcp.SourceDescription, addr *net.UDPAddr) {
	callsign, name, _, err := SDESFields(sd)
	if err != nil {
		return
	}
	if existing := t.Roster.Lookup(addr); existing != nil {
		t.Roster.Touch(addr, DefaultCountdown)
		if !existing.Answered {
			existing.Answered = true
			t.emit(CallEvent{Kind: EventAnswer, Peer: existing})
		}
		return
	}
	if !t.Access.Allows(callsign) {
		t.log.Infow("roster: rejecting unauthorized peer", "callsign", callsign)
		return
	}
	peer := &transport.Peer{
		Callsign:  callsign,
		NodeName:  name,
		Countdown: DefaultCountdown,
		RXCodec:   int(CodecULaw),
		TXCodec:   int(CodecULaw),
		Answered:  true,
	}
	t.Roster.Insert(addr, peer)
	t.emit(CallEvent{Kind: EventAnswer, Peer: peer})
}

func (t *Transport) emit(ev CallEvent) {
	select {
	case t.Events <- ev:
	default:
		t.log.Warnw("roster: event channel full, dropping", "kind", ev.Kind)
	}
}

// Heartbeat implements the keepalive walk of spec §4.5.2: send SDES to
// every peer, decrement countdowns, and BYE+remove any peer whose
// countdown went negative.
func (t *Transport) Heartbeat() {
	sdes := BuildSDES(t.SelfSSRC, t.SelfCallsign, "", "rptd")
	buf, err := sdes.Marshal()
	if err != nil {
		t.log.Warnw("roster: marshal heartbeat SDES failed", "error", err)
		return
	}
	for _, peer := range t.Roster.All() {
		controlAddr := &net.UDPAddr{IP: peer.Addr.IP, Port: peer.Addr.Port + 1}
		if err := t.control.WriteTo(buf, controlAddr); err != nil {
			t.log.Warnw("roster: heartbeat send failed", "peer", peer.Callsign, "error", err)
		}
	}

	for _, peer := range t.Roster.DecrementCountdowns() {
		t.sendByeBurst(peer)
		t.Roster.Remove(peer.Addr)
	}
}

// sendByeBurst sends BYE 20 times (spec §4.5.2 "a BYE is sent 20×").
func (t *Transport) sendByeBurst(peer *transport.Peer) {
	bye := BuildBye(SSRCForCallsign(peer.Callsign))
	buf, err := bye.Marshal()
	if err != nil {
		return
	}
	controlAddr := &net.UDPAddr{IP: peer.Addr.IP, Port: peer.Addr.Port + 1}
	for i := 0; i < 20; i++ {
		_ = t.control.WriteTo(buf, controlAddr)
	}
}

// SendVoice transmits an RTP audio packet to peer using its current
// TXCodec.
func (t *Transport) SendVoice(peer *transport.Peer, payload []byte) error {
	peer.TXSeq++
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    PayloadTypeForCodec(Codec(peer.TXCodec)),
			SequenceNumber: uint16(peer.TXSeq),
			Timestamp:      uint32(time.Now().UnixMilli()),
			SSRC:           t.SelfSSRC,
		},
		Payload: payload,
	}
	buf, err := pkt.Marshal()
	if err != nil {
		return err
	}
	return t.audio.WriteTo(buf, peer.Addr)
}

// SendText transmits one link-text control line to peer over the control
// port (spec §4.3.3's grammar, carried here as an SDES PRIV item rather
// than a dedicated wire format).
func (t *Transport) SendText(peer *transport.Peer, line string) error {
	sd := BuildText(t.SelfSSRC, t.SelfCallsign, line)
	buf, err := sd.Marshal()
	if err != nil {
		return err
	}
	controlAddr := &net.UDPAddr{IP: peer.Addr.IP, Port: peer.Addr.Port + 1}
	return t.control.WriteTo(buf, controlAddr)
}

// SendDTMF transmits a DTMF control frame over the audio port (spec
// §4.5.2 "DTMF over audio port").
func (t *Transport) SendDTMF(peer *transport.Peer, digit byte, seq int) error {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    PayloadTypeDTMF,
			SequenceNumber: uint16(peer.TXSeq),
			Timestamp:      uint32(time.Now().UnixMilli()),
			SSRC:           t.SelfSSRC,
		},
		Payload: EncodeDTMFBody(DTMFFrame{Digit: digit, Seq: seq, Time: time.Now().UnixMilli()}),
	}
	buf, err := pkt.Marshal()
	if err != nil {
		return err
	}
	return t.audio.WriteTo(buf, peer.Addr)
}
