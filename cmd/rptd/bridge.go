package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/control"
	"github.com/dbehnke/rptd/internal/link"
	"github.com/dbehnke/rptd/internal/rpt"
	"github.com/dbehnke/rptd/internal/transport"
	"github.com/dbehnke/rptd/internal/transport/roster"
	"github.com/dbehnke/rptd/internal/transport/usrp"
)

// publish forwards a bridged event onto the control server's live
// stream, for `rpt show --watch`.
func (d *Daemon) publish(node, kind string, data interface{}) {
	d.controlServer.Publish(control.Event{Node: node, Kind: kind, Data: data, At: time.Now()})
}

// dialInterval is how often the outbound-link watcher scans for links
// that were registered by link.Manager.Connect but have no dialed
// transport yet.
const dialInterval = 2 * time.Second

// heartbeatInterval drives roster.Transport.Heartbeat, the SDES keepalive
// and countdown sweep of spec §4.5.2.
const heartbeatInterval = 2 * time.Second

// linkWriter adapts one roster peer to link.TextWriter so the link graph
// can send text-control lines without knowing about RTP or rosters.
type linkWriter struct {
	xport *roster.Transport
	peer  *transport.Peer
}

func (w linkWriter) WriteText(line string) error {
	return w.xport.SendText(w.peer, line)
}

// bridgeUSRP translates the radio transport's Indications into Events on
// the Node's own channel (spec §4.5.1 "the USRP reader thread turns
// frames into RadioKey/RadioUnkey/Voice/Text indications").
func (d *Daemon) bridgeUSRP(ctx context.Context, rt *nodeRuntime) {
	for {
		select {
		case <-ctx.Done():
			return
		case ind, ok := <-rt.usrpXport.Indications:
			if !ok {
				return
			}
			switch ind.Kind {
			case usrp.RadioKey:
				rt.node.Emit(rpt.Event{Kind: rpt.EventControlKey, Source: rpt.SourceRX})
				d.publish(rt.name, "key", nil)
			case usrp.RadioUnkey:
				rt.node.Emit(rpt.Event{Kind: rpt.EventControlUnkey, Source: rpt.SourceRX})
				d.publish(rt.name, "unkey", nil)
			case usrp.Voice:
				rt.node.Emit(rpt.Event{Kind: rpt.EventVoice, Source: rpt.SourceRX, Voice: ind.Payload})
			case usrp.Text:
				rt.node.Emit(rpt.Event{Kind: rpt.EventText, Source: rpt.SourceRX, Text: string(ind.Payload)})
			}
		}
	}
}

// bridgeRoster translates one roster transport's CallEvents into Events
// on the Node's own channel, resolving the originating link by the
// peer's NodeName (spec §4.5.2 "peer.NodeName identifies which Link a
// CallEvent concerns").
func (d *Daemon) bridgeRoster(ctx context.Context, rt *nodeRuntime) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-rt.rosterXport.Events:
			if !ok {
				return
			}
			if ev.Peer == nil {
				continue
			}
			linkName := ev.Peer.NodeName

			rt.peersMu.Lock()
			rt.peersByLink[linkName] = ev.Peer
			rt.peersMu.Unlock()

			switch ev.Kind {
			case roster.EventAnswer:
				rt.node.Emit(rpt.Event{Kind: rpt.EventControlAnswer, Source: rpt.SourceLink, LinkName: linkName})
				d.publish(rt.name, "link_connect", linkName)
			case roster.EventVoice:
				rt.node.Emit(rpt.Event{Kind: rpt.EventVoice, Source: rpt.SourceLink, LinkName: linkName, Voice: ev.Voice})
			case roster.EventDTMF:
				rt.node.Emit(rpt.Event{Kind: rpt.EventDTMFBegin, Source: rpt.SourceLink, LinkName: linkName, DTMFChar: ev.Digit})
			case roster.EventText:
				rt.node.Emit(rpt.Event{Kind: rpt.EventText, Source: rpt.SourceLink, LinkName: linkName, Text: ev.Text})
			case roster.EventBye:
				rt.node.Emit(rpt.Event{Kind: rpt.EventHangup, Source: rpt.SourceLink, LinkName: linkName})
				d.publish(rt.name, "link_disconnect", linkName)
			}
		}
	}
}

// rosterHeartbeatLoop drives the SDES keepalive and countdown sweep at a
// fixed tick until the Daemon shuts down.
func (d *Daemon) rosterHeartbeatLoop(ctx context.Context, rt *nodeRuntime) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.rosterXport.Heartbeat()
		}
	}
}

// dialWatchLoop finds links link.Manager.Connect has registered but not
// yet attached a transport to (State == StateConnectPending, Writer ==
// nil), dials them, and wires the resulting peer's WriteText back onto
// the Link so outbound text-control traffic has somewhere to go.
func (d *Daemon) dialWatchLoop(ctx context.Context, rt *nodeRuntime) {
	ticker := time.NewTicker(dialInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.dialPending(rt)
		}
	}
}

// dialPending drives the two CONNECT_PENDING sub-cases spec §4.3.1 and
// §4.3.5 describe: a link with no transport yet is gated on its
// link.RetryTimer (bounded by MaxRetries unless permanent, per l.Perma);
// a link that has a transport but no AST_CONTROL_ANSWER yet is gated on
// its link.RetransmitTimer, which resends the connect request at
// LINKLISTSHORTTIME intervals until the peer answers.
func (d *Daemon) dialPending(rt *nodeRuntime) {
	nodes, err := d.cfg.Nodes()
	if err != nil {
		d.log.Warnw("rptd: load node table", "node", rt.name, "error", err)
		return
	}

	for _, l := range rt.node.Links.All() {
		if l.State != link.StateConnectPending {
			continue
		}
		if l.Writer == nil {
			d.dialInitial(rt, nodes, l)
			continue
		}
		if l.RetransmitTimer.Expired() {
			d.resendConnect(rt, nodes, l)
		}
	}
}

// dialInitial attempts the first dial for a pending link with no transport
// yet, honoring link.RetryTimer's backoff. On failure it charges the
// attempt against l.Retries via link.Manager.OnDialFailure, which tears
// down a non-permanent link outright once its retry budget is exhausted
// (spec §3.2 "MAX_RETRIES_PERM is effectively infinite, ensuring perma
// links keep trying") and otherwise rearms RetryTimer for another attempt.
func (d *Daemon) dialInitial(rt *nodeRuntime, nodes map[string]config.NodeEntry, l *link.Link) {
	if !l.RetryTimer.Expired() {
		return
	}

	entry, ok := nodes[l.Name]
	if !ok {
		d.log.Warnw("rptd: no node-table entry for pending link", "node", rt.name, "link", l.Name)
		d.chargeDialFailure(rt, l)
		return
	}

	if err := rt.rosterXport.Connect(l.Name, entry.Callsign, entry.Host, entry.Port); err != nil {
		d.log.Warnw("rptd: dial link failed", "node", rt.name, "link", l.Name, "error", err)
		d.chargeDialFailure(rt, l)
		return
	}

	addr, err := transport.ResolveAddr(entry.Host, entry.Port)
	if err != nil {
		d.log.Warnw("rptd: resolve dialed peer", "node", rt.name, "link", l.Name, "error", err)
		return
	}
	peer := rt.rosterXport.Roster.Lookup(addr)
	if peer == nil {
		return
	}

	rt.peersMu.Lock()
	rt.peersByLink[l.Name] = peer
	rt.peersMu.Unlock()

	l.Writer = linkWriter{xport: rt.rosterXport, peer: peer}
	l.RetryTimer.Stop()
	l.RetransmitTimer.Start(rt.node.Links.LinkListShortTime)
}

func (d *Daemon) chargeDialFailure(rt *nodeRuntime, l *link.Link) {
	if giveUp := rt.node.Links.OnDialFailure(l); giveUp {
		d.log.Warnw("rptd: link retries exhausted, giving up", "node", rt.name, "link", l.Name)
	}
}

// resendConnect re-issues the connect request for a link that already has
// a transport peer but is still awaiting AST_CONTROL_ANSWER (spec §4.3.1
// "While pending, retransmission of the connect-identifier text ... occurs
// at LINKLISTSHORTTIME intervals").
func (d *Daemon) resendConnect(rt *nodeRuntime, nodes map[string]config.NodeEntry, l *link.Link) {
	entry, ok := nodes[l.Name]
	if ok {
		if err := rt.rosterXport.Connect(l.Name, entry.Callsign, entry.Host, entry.Port); err != nil {
			d.log.Warnw("rptd: resend connect failed", "node", rt.name, "link", l.Name, "error", err)
		}
	}
	l.RetransmitTimer.Start(rt.node.Links.LinkListShortTime)
}

// connectStartupLinks registers every node number in the "startup_links"
// key as a permanent transceive link; dialPending dials each one on its
// next tick.
func (d *Daemon) connectStartupLinks(rt *nodeRuntime) error {
	for _, num := range rt.params.Raw.CSV("startup_links") {
		if _, err := rt.node.Links.Connect(num, link.ModeTransceive, true); err != nil {
			return fmt.Errorf("connect startup link %s: %w", num, err)
		}
	}
	return nil
}
