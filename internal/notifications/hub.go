// Package notifications fans moderation events out to connected admin consoles.
package notifications

import (
	"context"
	"errors"
	"sync"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerAdmin = 8
	maxTotalConns    = 1000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrAdminFull  = errors.New("admin connection limit reached")
)

// Subscriber delivers raw event payloads until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, onMessage func(payload string)) error
}

// Hub tracks live stream clients per admin.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Client]struct{}
	total int
	log   *observability.WSLogger
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[*Client]struct{}),
		log:   observability.NewWSLogger("moderation"),
	}
}

// Register adds a connection for admin.
func (h *Hub) Register(admin string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[admin]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[admin] = m
	}
	if len(m) >= maxConnsPerAdmin {
		return nil, ErrAdminFull
	}

	c := newClient(h, conn, admin)
	m[c] = struct{}{}
	h.total++
	observability.ActiveWebSockets.Inc()
	h.log.LogConnect(context.Background(), admin)
	return c, nil
}

// Unregister removes c and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[c.admin]
	if !ok {
		return
	}
	if _, exists := m[c]; !exists {
		return
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.conns, c.admin)
	}
	h.total--
	c.stop()
	observability.ActiveWebSockets.Dec()
	h.log.LogDisconnect(context.Background(), c.admin, "unregistered")
}

// BroadcastAll queues payload on every client.
func (h *Hub) BroadcastAll(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, clients := range h.conns {
		for c := range clients {
			if c.TrySend(payload) {
				sent++
			}
		}
	}
	return sent
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Start forwards every payload from sub to the connected clients.
func (h *Hub) Start(ctx context.Context, sub Subscriber) error {
	return sub.Subscribe(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown drops every client; their write loops send the close frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for admin, clients := range h.conns {
		for c := range clients {
			c.stop()
			observability.ActiveWebSockets.Dec()
		}
		delete(h.conns, admin)
	}
	h.total = 0
	return nil
}
