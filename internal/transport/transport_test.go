package transport

import (
	"net"
	"testing"
	"time"
)

func TestSocketLoopback(t *testing.T) {
	srv, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen server: %v", err)
	}
	defer srv.Close()

	cli, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen client: %v", err)
	}
	defer cli.Close()

	if err := cli.WriteTo([]byte("hello"), srv.LocalAddr()); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	buf := make([]byte, 64)
	n, addr, err := srv.ReadFrom(buf, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("unexpected payload: %q", buf[:n])
	}
	if addr == nil {
		t.Fatalf("expected sender address")
	}
}

func TestSocketReadTimeout(t *testing.T) {
	s, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	buf := make([]byte, 16)
	n, addr, err := s.ReadFrom(buf, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected no error on timeout, got %v", err)
	}
	if n != 0 || addr != nil {
		t.Fatalf("expected zero-value timeout result, got n=%d addr=%v", n, addr)
	}
}

func TestRosterInsertLookupRemove(t *testing.T) {
	r := NewRoster()
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4000}
	closed := false
	r.Insert(addr, &Peer{Callsign: "W1AW", ChannelClose: func() { closed = true }})

	if r.Len() != 1 {
		t.Fatalf("expected 1 peer, got %d", r.Len())
	}
	p := r.Lookup(addr)
	if p == nil || p.Callsign != "W1AW" {
		t.Fatalf("unexpected lookup result: %+v", p)
	}

	r.Remove(addr)
	if r.Len() != 0 {
		t.Fatalf("expected roster empty after remove")
	}
	if !closed {
		t.Fatalf("expected ChannelClose to fire on remove")
	}
}

func TestRosterDecrementCountdowns(t *testing.T) {
	r := NewRoster()
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4001}
	r.Insert(addr, &Peer{Callsign: "W1AW", Countdown: 1})

	expired := r.DecrementCountdowns()
	if len(expired) != 0 {
		t.Fatalf("expected no expired peers yet, got %d", len(expired))
	}
	expired = r.DecrementCountdowns()
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired peer, got %d", len(expired))
	}
}

func TestJitterQueueOverflowFlushes(t *testing.T) {
	q := NewJitterQueue("test", 3, nil)
	q.Push([]byte{1})
	q.Push([]byte{2})
	q.Push([]byte{3})
	q.Push([]byte{4}) // overflow: flush then push

	if q.Len() != 1 {
		t.Fatalf("expected queue to hold 1 frame after overflow flush, got %d", q.Len())
	}
	if q.LostCount() != 3 {
		t.Fatalf("expected 3 lost frames recorded, got %d", q.LostCount())
	}
	frame, ok := q.Pop()
	if !ok || frame[0] != 4 {
		t.Fatalf("expected surviving frame to be the post-overflow push")
	}
}
