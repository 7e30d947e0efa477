// Package extnodes refreshes the external node table (spec §6.1
// "extnodes", "extnodefiles") on a timer and exposes it for link lookups
// that fall outside the static [nodes] config table.
//
// Grounded on dbehnke-ysf2dmr/internal/radioid.Syncer: the same
// ticker-driven Start(ctx)/SyncNow(ctx) shape and log-and-continue
// discipline (a failed HTTP source is logged and skipped, with no retry),
// generalized from "download one CSV from one fixed HTTP URL and upsert
// it into a database" to "read one local file plus fetch zero or more
// HTTP CSV sources, and atomically swap an in-memory map" — extnodes has
// no database row shape to upsert into, just a lookup table that the
// control socket's xnode query consults.
package extnodes

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dbehnke/rptd/internal/config"
)

// DefaultSyncInterval matches the teacher's RadioID refresh cadence,
// since both are "periodically refresh a node/user lookup table" jobs;
// unlike RadioID's 100k-row HTTP-only source, extnodes additionally
// re-reads the cheap local file every interval.
const DefaultSyncInterval = 10 * time.Minute

// RequestTimeout bounds each extnodefiles HTTP fetch.
const RequestTimeout = 30 * time.Second

// Syncer refreshes the merged external node table from a local file and
// zero or more HTTP CSV sources.
type Syncer struct {
	localPath    string
	httpSources  []string
	syncInterval time.Duration
	httpClient   *http.Client
	log          *zap.SugaredLogger

	mu    sync.RWMutex
	nodes map[string]config.NodeEntry
}

// New constructs a Syncer over localPath (the rpt_extnodes file, may be
// empty to skip) and httpSources (the extnodefiles CSV URLs).
func New(localPath string, httpSources []string, syncInterval time.Duration, log *zap.SugaredLogger) *Syncer {
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Syncer{
		localPath:    localPath,
		httpSources:  httpSources,
		syncInterval: syncInterval,
		httpClient:   &http.Client{Timeout: RequestTimeout},
		log:          log,
		nodes:        make(map[string]config.NodeEntry),
	}
}

// Start runs an initial sync then refreshes on syncInterval until ctx is
// cancelled.
func (s *Syncer) Start(ctx context.Context) {
	s.log.Infow("extnodes syncer starting", "interval", s.syncInterval)
	if err := s.SyncNow(ctx); err != nil {
		s.log.Warnw("initial extnodes sync failed", "error", err)
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("extnodes syncer stopping")
			return
		case <-ticker.C:
			if err := s.SyncNow(ctx); err != nil {
				s.log.Warnw("extnodes sync failed", "error", err)
			}
		}
	}
}

// SyncNow reloads the local file and every HTTP source and atomically
// swaps them in as the current table. A failing HTTP source is logged
// and skipped rather than failing the whole sync, since the local file
// and other sources may still be good.
func (s *Syncer) SyncNow(ctx context.Context) error {
	merged := make(map[string]config.NodeEntry)

	if s.localPath != "" {
		local, err := config.LoadExtNodes(s.localPath)
		if err != nil {
			return fmt.Errorf("extnodes: load local file: %w", err)
		}
		for k, v := range local {
			merged[k] = v
		}
	}

	for _, url := range s.httpSources {
		entries, err := s.fetchHTTP(ctx, url)
		if err != nil {
			s.log.Warnw("extnodes: HTTP source failed", "url", url, "error", err)
			continue
		}
		for k, v := range entries {
			merged[k] = v
		}
	}

	s.mu.Lock()
	s.nodes = merged
	s.mu.Unlock()

	s.log.Infow("extnodes sync complete", "nodes", len(merged))
	return nil
}

func (s *Syncer) fetchHTTP(ctx context.Context, url string) (map[string]config.NodeEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}
	return config.ParseExtNodes(resp.Body)
}

// Lookup returns the node entry for num, if known.
func (s *Syncer) Lookup(num string) (config.NodeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[num]
	return e, ok
}

// Len reports the current table size.
func (s *Syncer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// ParseNodeNum validates that digits (received from DTMF accumulation,
// spec §4.2's "ilink") is a numeric node number before a Lookup.
func ParseNodeNum(digits string) (string, error) {
	digits = strings.TrimSpace(digits)
	if _, err := strconv.Atoi(digits); err != nil {
		return "", fmt.Errorf("extnodes: %q is not a numeric node", digits)
	}
	return digits, nil
}
