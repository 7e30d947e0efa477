package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/control"
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/extnodes"
	"github.com/dbehnke/rptd/internal/hooks"
	"github.com/dbehnke/rptd/internal/logging"
	"github.com/dbehnke/rptd/internal/metrics"
)

// Daemon is the aggregate root of the rptd process: one Node plus its
// transports per configured section, shared database/metrics/hooks
// collaborators, and the control server (spec §6.4).
type Daemon struct {
	configPath string
	cfg        *config.Config
	log        *zap.SugaredLogger

	db       *database.DB
	stats    *database.StatsRepository
	memory   *database.MemoryRepository
	history  *database.LinkHistoryRepository
	metrics  *metrics.Metrics
	hooksMgr *hooks.Hooks
	extNodes *extnodes.Syncer

	controlServer *control.Server
	controlAddr   string

	mu      sync.RWMutex
	nodes   map[string]*nodeRuntime
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDaemon loads cfg from configPath and constructs every Node and
// transport it names, but starts nothing yet (spec §3.1 "Lifecycle":
// construction is separate from running).
func NewDaemon(configPath string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("rptd: load config: %w", err)
	}

	general := cfg.Section("general")
	log, err := logging.New(logging.Config{
		DisplayLevel: logging.Level(general.Int("loglevel", int(logging.LevelInfo))),
		FilePath:     general.String("logpath", ""),
		FileRoot:     general.String("logroot", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("rptd: build logger: %w", err)
	}

	stdLog := zap.NewStdLog(log.Desugar())
	db, err := database.NewDB(database.Config{
		Path:           general.String("dbpath", "rptd.sqlite3"),
		BusyTimeoutMS:  general.Int("db_busy_timeout_ms", database.DefaultBusyTimeoutMS),
		CacheSizePages: general.Int("db_cache_pages", database.DefaultCacheSizePages),
		MaxOpenConns:   general.Int("db_max_open_conns", database.DefaultMaxOpenConns),
	}, stdLog)
	if err != nil {
		return nil, fmt.Errorf("rptd: open database: %w", err)
	}

	met := metrics.New()

	extSources := general.CSV("extnodefiles")
	ext := extnodes.New(general.String("extnodes", ""), extSources, extnodes.DefaultSyncInterval, log)

	d := &Daemon{
		configPath:  configPath,
		cfg:         cfg,
		log:         log,
		db:          db,
		stats:       database.NewStatsRepository(db.GetDB()),
		memory:      database.NewMemoryRepository(db.GetDB()),
		history:     database.NewLinkHistoryRepository(db.GetDB()),
		metrics:     met,
		extNodes:    ext,
		nodes:       make(map[string]*nodeRuntime),
		controlAddr: general.String("control_addr", "127.0.0.1:9000"),
	}

	d.hooksMgr = hooks.New(hooks.Config{
		StatPostProgram: general.String("statpost_program", ""),
		StatPostURL:     general.String("statpost_url", ""),
		DiscPgm:         general.String("discpgm", ""),
		ConnPgm:         general.String("connpgm", ""),
	}, log)

	for _, name := range cfg.NodeSections() {
		rt, err := d.buildNode(name)
		if err != nil {
			return nil, fmt.Errorf("rptd: node %s: %w", name, err)
		}
		d.nodes[name] = rt
	}

	d.controlServer = control.New(d, met.Handler(), log)

	return d, nil
}

// Run starts every Node, its transports, the external-node syncer, and
// the control server, then blocks until a termination signal or internal
// shutdown request arrives (spec §4.1 "Contract").
func (d *Daemon) Run() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("rptd: already running")
	}
	d.running = true
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.extNodes.Start(d.ctx)
	}()

	for name, rt := range d.nodes {
		d.startNode(name, rt)
	}

	listener, err := net.Listen("tcp", d.controlAddr)
	if err != nil {
		return fmt.Errorf("rptd: control listener: %w", err)
	}
	server := &http.Server{Handler: d.controlServer.Handler()}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			d.log.Warnw("rptd: control server stopped", "error", err)
		}
	}()
	d.log.Infow("rptd: control server listening", "addr", d.controlAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		d.log.Infow("rptd: received shutdown signal")
	case <-d.ctx.Done():
		d.log.Infow("rptd: context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	d.Stop()
	return nil
}

// Stop tears down every Node and transport and releases the database.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()

	d.mu.RLock()
	defer d.mu.RUnlock()
	for name, rt := range d.nodes {
		if rt.usrpXport != nil {
			if err := rt.usrpXport.Close(); err != nil {
				d.log.Warnw("rptd: close usrp transport", "node", name, "error", err)
			}
		}
		if rt.rosterXport != nil {
			if err := rt.rosterXport.Close(); err != nil {
				d.log.Warnw("rptd: close roster transport", "node", name, "error", err)
			}
		}
	}
	if err := d.db.Close(); err != nil {
		d.log.Warnw("rptd: close database", "error", err)
	}
	d.log.Infow("rptd: stopped")
}
