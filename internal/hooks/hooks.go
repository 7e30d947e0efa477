// Package hooks fires the post-connect/disconnect/stats-post program and
// URL callouts named by the config keys statpost_program, statpost_url,
// discpgm, connpgm (spec §6.1; cmd/rptd reads them from [general]), none of which spec.md
// assigns to a package on its own.
package hooks

import (
	"bytes"
	"context"
	"net/http"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// RequestTimeout bounds a statpost_url POST.
const RequestTimeout = 10 * time.Second

// Config names the hook programs/URL (spec §6.1); cmd/rptd builds one
// Config for the whole daemon.
type Config struct {
	StatPostProgram string
	StatPostURL     string
	DiscPgm         string
	ConnPgm         string
}

// Hooks fires configured callouts without blocking the caller on their
// completion, mirroring direwolf's xmit_speak_it: shell out via
// os/exec.Command and only log a failure, never propagate it into the
// node loop.
type Hooks struct {
	cfg    Config
	client *http.Client
	log    *zap.SugaredLogger
}

func New(cfg Config, log *zap.SugaredLogger) *Hooks {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hooks{cfg: cfg, client: &http.Client{Timeout: RequestTimeout}, log: log}
}

// FireConnect runs connpgm with nodeName and peerNode as its arguments
// when a link connects.
func (h *Hooks) FireConnect(nodeName, peerNode string) {
	h.runProgram(h.cfg.ConnPgm, nodeName, peerNode)
}

// FireDisconnect runs discpgm with nodeName and peerNode as its arguments
// when a link disconnects.
func (h *Hooks) FireDisconnect(nodeName, peerNode string) {
	h.runProgram(h.cfg.DiscPgm, nodeName, peerNode)
}

// PostStats fires statpost_program (if configured) and POSTs body to
// statpost_url (if configured), both fire-and-forget in a goroutine so a
// slow or unreachable stats collector never stalls the caller.
func (h *Hooks) PostStats(nodeName string, body []byte) {
	if h.cfg.StatPostProgram != "" {
		h.runProgram(h.cfg.StatPostProgram, nodeName, string(body))
	}
	if h.cfg.StatPostURL != "" {
		go h.postURL(h.cfg.StatPostURL, body)
	}
}

func (h *Hooks) runProgram(program string, args ...string) {
	if program == "" {
		return
	}
	go func() {
		cmd := exec.Command(program, args...)
		if err := cmd.Run(); err != nil {
			h.log.Warnw("hooks: program failed", "program", program, "error", err)
		}
	}()
}

func (h *Hooks) postURL(url string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		h.log.Warnw("hooks: build request failed", "url", url, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warnw("hooks: post failed", "url", url, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		h.log.Warnw("hooks: post rejected", "url", url, "status", resp.StatusCode)
	}
}
