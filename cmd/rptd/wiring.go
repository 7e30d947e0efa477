package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/remote"
	"github.com/dbehnke/rptd/internal/rpt"
	"github.com/dbehnke/rptd/internal/transport"
	"github.com/dbehnke/rptd/internal/transport/roster"
	"github.com/dbehnke/rptd/internal/transport/usrp"
)

// nodeRuntime bundles one configured Node with the live transports and
// bookkeeping cmd/rptd owns on its behalf. internal/rpt and internal/link
// know nothing about any of this; bridging channel traffic into
// rpt.Node.Emit and dialing outbound links is entirely this process's
// job (spec §4.5 "each network transport owns one reader thread" —
// cmd/rptd is what starts those threads).
type nodeRuntime struct {
	name   string
	node   *rpt.Node
	params *config.NodeParams
	rig    remote.Rig

	usrpXport *usrp.Transport

	rosterXport *roster.Transport
	peersMu     sync.Mutex
	peersByLink map[string]*transport.Peer // link name -> roster peer, for SendText/dial bookkeeping

	cancel context.CancelFunc // stops this node's goroutines independently, for "rpt restart"
}

// buildNode constructs (but does not start) the Node and transports named
// by the configuration section "name".
func (d *Daemon) buildNode(name string) (*nodeRuntime, error) {
	section := d.cfg.Section(name)
	p := config.NodeParamsFromSection(name, section)

	var rig remote.Rig
	if p.Remote != "" {
		port, err := remote.OpenSerial(p.IOPort, p.IOSpeed)
		if err != nil {
			return nil, fmt.Errorf("open remote-base serial port: %w", err)
		}
		rig, err = remote.NewRig(p.Remote, port, p.CivAddr)
		if err != nil {
			return nil, fmt.Errorf("construct rig %q: %w", p.Remote, err)
		}
	}

	deps := rpt.Deps{
		Config:   d.cfg,
		Stats:    d.stats,
		Memory:   d.memory,
		History:  d.history,
		Metrics:  d.metrics,
		ExtNodes: d.extNodes,
		Hooks:    d.hooksMgr,
		Rig:      rig,
		Log:      d.log.With("node", name),
	}
	node := rpt.New(p, deps)

	rt := &nodeRuntime{
		name:        name,
		node:        node,
		params:      p,
		rig:         rig,
		peersByLink: make(map[string]*transport.Peer),
	}

	if bindPort := p.Raw.Int("usrpport", 0); bindPort > 0 {
		peerHost := p.Raw.String("usrppeerhost", "127.0.0.1")
		peerPort := p.Raw.Int("usrppeerport", bindPort+1)
		xport, err := usrp.New("", bindPort, peerHost, peerPort, d.log.With("node", name, "transport", "usrp"))
		if err != nil {
			return nil, fmt.Errorf("bind usrp transport: %w", err)
		}
		rt.usrpXport = xport
	}

	if rosterPort := d.rosterPortFor(name, p); rosterPort > 0 {
		access := roster.AccessList{
			Permit: p.Raw.CSV("rosterpermit"),
			Deny:   p.Raw.CSV("rosterdeny"),
		}
		xport, err := roster.New("", rosterPort, p.Callsign, access, roster.ModeConference, d.log.With("node", name, "transport", "roster"))
		if err != nil {
			return nil, fmt.Errorf("bind roster transport: %w", err)
		}
		rt.rosterXport = xport
	}

	return rt, nil
}

// rosterPortFor resolves the audio-port binding for a Node's roster
// transport: an explicit "rosterport" override, else the Node's own entry
// in the [nodes] table (self-registration, the app_rpt convention of a
// node's own number naming its own bind port), else 0 to skip the
// transport entirely (a Node with no linking interface is valid).
func (d *Daemon) rosterPortFor(name string, p *config.NodeParams) int {
	if explicit := p.Raw.Int("rosterport", 0); explicit > 0 {
		return explicit
	}
	nodes, err := d.cfg.Nodes()
	if err != nil {
		return 0
	}
	if entry, ok := nodes[name]; ok {
		return entry.Port
	}
	return 0
}

// startNode launches every goroutine a running Node needs: its own
// control loop, its transports' reader loops, and the bridges binding
// transport traffic into Node.Emit and outbound link dials into the
// transport's Connect. Each call gets its own child of d.ctx so "rpt
// restart" can stop and relaunch one Node without disturbing the rest.
func (d *Daemon) startNode(name string, rt *nodeRuntime) {
	ctx, cancel := context.WithCancel(d.ctx)
	rt.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := rt.node.Run(ctx); err != nil && err != context.Canceled {
			d.log.Warnw("rptd: node loop exited", "node", name, "error", err)
		}
	}()

	if rt.usrpXport != nil {
		d.wg.Add(2)
		go func() {
			defer d.wg.Done()
			rt.usrpXport.Run(ctx)
		}()
		go func() {
			defer d.wg.Done()
			d.bridgeUSRP(ctx, rt)
		}()
	}

	if rt.rosterXport != nil {
		if err := d.connectStartupLinks(rt); err != nil {
			d.log.Warnw("rptd: connect startup links", "node", name, "error", err)
		}

		d.wg.Add(4)
		go func() {
			defer d.wg.Done()
			rt.rosterXport.RunAudio(ctx)
		}()
		go func() {
			defer d.wg.Done()
			rt.rosterXport.RunControl(ctx)
		}()
		go func() {
			defer d.wg.Done()
			d.bridgeRoster(ctx, rt)
		}()
		go func() {
			defer d.wg.Done()
			d.rosterHeartbeatLoop(ctx, rt)
		}()

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.dialWatchLoop(ctx, rt)
		}()
	}
}
