package usrp

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/dbehnke/rptd/internal/transport"
)

// MaxRXKeyIterations is MAX_RXKEY_TIME: consecutive read iterations
// without a voice frame before a RADIO_UNKEY indication fires (spec
// §4.5.1 "Keying").
const MaxRXKeyIterations = 5

// ReadTimeout is the per-iteration poll timeout (spec §5 "poll with 50 ms
// timeout").
const ReadTimeout = 50 * time.Millisecond

// Indication is an upstream keying/text event produced by reading the
// peer socket.
type Indication struct {
	Kind    IndicationKind
	Payload []byte // VOICE: PCM samples; TEXT: DTMF digit string
}

// IndicationKind enumerates the upstream events of spec §4.5.1.
type IndicationKind int

const (
	RadioKey IndicationKind = iota
	RadioUnkey
	Voice
	Text
)

// Transport is one compact-USRP link: a bound local socket talking to a
// single configured peer address, shaped after the teacher's
// internal/network.YSFNetwork client (one fixed remote, one reader
// goroutine) generalized with a context.Context lifecycle.
type Transport struct {
	sock     *transport.Socket
	peerAddr *net.UDPAddr

	txSeq uint32

	log *zap.SugaredLogger

	Indications chan Indication

	rxSilentIters int
	keyed         bool
}

// New binds a local socket and targets peerHost:peerPort.
func New(bindAddr string, bindPort int, peerHost string, peerPort int, log *zap.SugaredLogger) (*Transport, error) {
	sock, err := transport.Listen(bindAddr, bindPort)
	if err != nil {
		return nil, err
	}
	peer, err := transport.ResolveAddr(peerHost, peerPort)
	if err != nil {
		sock.Close()
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Transport{
		sock:        sock,
		peerAddr:    peer,
		log:         log,
		Indications: make(chan Indication, 64),
	}, nil
}

// Close releases the socket.
func (t *Transport) Close() error {
	return t.sock.Close()
}

// SendVoice transmits one keyed voice frame and advances the TX sequence.
func (t *Transport) SendVoice(samples []byte) error {
	t.txSeq++
	return t.sock.WriteTo(Encode(NewVoiceFrame(t.txSeq, samples)), t.peerAddr)
}

// SendUnkey transmits the bare unkey marker (spec §4.5.1 "On TX start ...
// then sends one bare header with keyup=0").
func (t *Transport) SendUnkey() error {
	t.txSeq++
	return t.sock.WriteTo(Encode(NewUnkeyFrame(t.txSeq)), t.peerAddr)
}

// SendDTMF transmits a DTMF control frame.
func (t *Transport) SendDTMF(digits string) error {
	t.txSeq++
	return t.sock.WriteTo(Encode(NewDTMFFrame(t.txSeq, digits)), t.peerAddr)
}

// Run drives the reader loop until ctx is cancelled (spec §4.5 "each
// network transport owns one reader thread"). It decodes inbound frames,
// tracks RX keying via MaxRXKeyIterations, and emits Indications.
func (t *Transport) Run(ctx context.Context) {
	buf := make([]byte, HeaderSize+VoiceFrameSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, _, err := t.sock.ReadFrom(buf, ReadTimeout)
		if err != nil {
			t.log.Warnw("usrp: read error", "error", err)
			continue
		}
		if n == 0 {
			t.onSilentIteration()
			continue
		}

		f, err := Decode(buf[:n])
		if err != nil {
			t.log.Warnw("usrp: decode error", "error", err)
			continue
		}
		t.dispatch(f)
	}
}

func (t *Transport) dispatch(f Frame) {
	switch f.Type {
	case TypeControl:
		t.emit(Indication{Kind: Text, Payload: append([]byte(nil), f.Payload...)})
	case TypeVoice:
		if IsUnkeyMarker(f) {
			t.rxSilentIters = MaxRXKeyIterations
			t.onSilentIteration()
			return
		}
		t.rxSilentIters = 0
		if !t.keyed {
			t.keyed = true
			t.emit(Indication{Kind: RadioKey})
		}
		t.emit(Indication{Kind: Voice, Payload: append([]byte(nil), f.Payload...)})
	}
}

func (t *Transport) onSilentIteration() {
	if !t.keyed {
		return
	}
	t.rxSilentIters++
	if t.rxSilentIters >= MaxRXKeyIterations {
		t.keyed = false
		t.emit(Indication{Kind: RadioUnkey})
	}
}

func (t *Transport) emit(ind Indication) {
	select {
	case t.Indications <- ind:
	default:
		t.log.Warnw("usrp: indication channel full, dropping", "kind", ind.Kind)
	}
}
