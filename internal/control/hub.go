package control

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// writeTimeout bounds a single broadcast write so one stuck client can't
// leak goroutines indefinitely.
const writeTimeout = 5 * time.Second

// Hub fans Events out to every subscribed `rpt show --watch` client,
// grounded on dbehnke-allstar-nexus's internal/web.Hub: a mutex-guarded
// client set, one reader goroutine per connection discarding inbound
// frames, and a best-effort fan-out write per broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	log     *zap.SugaredLogger
}

// NewHub creates an empty client set.
func NewHub(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{clients: make(map[*websocket.Conn]struct{}), log: log}
}

// ServeWS upgrades the request to a websocket and registers the
// connection until it closes or its read loop errors.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warnw("control: websocket accept failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.Read(r.Context()); err != nil {
			return
		}
	}
}

// Broadcast sends ev to every connected subscriber, dropping slow or
// disconnected clients rather than blocking on them.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Warnw("control: marshal event failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		go func(conn *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			_ = conn.Write(ctx, websocket.MessageText, payload)
		}(c)
	}
}
