package main

import (
	"fmt"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/control"
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/rpt"
	"github.com/dbehnke/rptd/internal/telemetry"
)

// Daemon implements control.Dispatcher directly; internal/control never
// imports cmd/rptd, so the interface is satisfied here rather than there.
var _ control.Dispatcher = (*Daemon)(nil)

func (d *Daemon) NodeNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.nodes))
	for name := range d.nodes {
		names = append(names, name)
	}
	return names
}

func (d *Daemon) nodeRuntime(name string) (*nodeRuntime, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rt, ok := d.nodes[name]
	return rt, ok
}

func (d *Daemon) Snapshot(node string) (rpt.Snapshot, bool) {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return rpt.Snapshot{}, false
	}
	return rt.node.Snapshot(), true
}

func (d *Daemon) Stats(node string) (database.NodeStats, bool) {
	if _, ok := d.nodeRuntime(node); !ok {
		return database.NodeStats{}, false
	}
	s, err := d.stats.Get(node)
	if err != nil {
		return database.NodeStats{}, false
	}
	return *s, true
}

func (d *Daemon) AllStats() []database.NodeStats {
	all, err := d.stats.All()
	if err != nil {
		return nil
	}
	return all
}

func (d *Daemon) ExecuteDTMF(node string, src dtmf.Source, digits string) (dtmf.Result, error) {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return dtmf.Indeterminate, fmt.Errorf("control: unknown node %q", node)
	}
	return rt.node.ExecuteDTMF(src, digits), nil
}

func (d *Daemon) SendText(node, line string) error {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return fmt.Errorf("control: unknown node %q", node)
	}
	rt.node.Links.Broadcast(line, "")
	return nil
}

func (d *Daemon) SendAll(line string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, rt := range d.nodes {
		rt.node.Links.Broadcast(line, "")
	}
	return nil
}

func (d *Daemon) LocalPlay(node, sound string) error {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return fmt.Errorf("control: unknown node %q", node)
	}
	rt.node.Telemetry.Enqueue(d.ctx, telemetry.LocalPlay, sound, nil)
	return nil
}

func (d *Daemon) Reload(node string) error {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return fmt.Errorf("control: unknown node %q", node)
	}
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("control: reload config: %w", err)
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	p := config.NodeParamsFromSection(node, cfg.Section(node))
	rt.params = p
	rt.node.Reconfigure(p)
	return nil
}

func (d *Daemon) Restart(node string) error {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return fmt.Errorf("control: unknown node %q", node)
	}
	if rt.cancel != nil {
		rt.cancel()
	}
	d.startNode(node, rt)
	return nil
}

func (d *Daemon) Sysstate(node string, index int) error {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return fmt.Errorf("control: unknown node %q", node)
	}
	if !rt.node.SysStates.Select(index) {
		return fmt.Errorf("control: invalid sysstate index %d", index)
	}
	return nil
}

func (d *Daemon) Page(node, target string) error {
	rt, ok := d.nodeRuntime(node)
	if !ok {
		return fmt.Errorf("control: unknown node %q", node)
	}
	rt.node.Telemetry.Enqueue(d.ctx, telemetry.Page, target, nil)
	return nil
}

func (d *Daemon) NodeDump() []control.RosterPeerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []control.RosterPeerInfo
	for _, rt := range d.nodes {
		if rt.rosterXport == nil {
			continue
		}
		for _, peer := range rt.rosterXport.Roster.All() {
			out = append(out, control.RosterPeerInfo{
				Callsign:  peer.Callsign,
				NodeName:  peer.NodeName,
				Host:      peer.Addr.IP.String(),
				Port:      peer.Addr.Port,
				Countdown: peer.Countdown,
			})
		}
	}
	return out
}

func (d *Daemon) NodeGet(num string) (config.NodeEntry, bool) {
	nodes, err := d.cfg.Nodes()
	if err != nil {
		return config.NodeEntry{}, false
	}
	if entry, ok := nodes[num]; ok {
		return entry, true
	}
	if entry, ok := d.extNodes.Lookup(num); ok {
		return entry, true
	}
	return config.NodeEntry{}, false
}
