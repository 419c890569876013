package notifications

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

// Client is one admin console subscribed to the moderation stream. Consoles never send
// data frames; the read side only services pongs and the close handshake.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	admin   string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

func newClient(hub *Hub, conn *websocket.Conn, admin string) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		admin: admin,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
}

// Admin is the email of the signed-in admin owning the connection.
func (c *Client) Admin() string { return c.admin }

// Dropped counts events discarded because the client fell behind.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

// Done is closed once the client has been removed from the hub.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Serve pumps events to the connection until the peer leaves or the hub drops the client.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.log.LogError(context.Background(), err, "read")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.hub.log.LogError(context.Background(), err, "write")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues payload without blocking. It reports false when the client is gone or
// its buffer is full.
func (c *Client) TrySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		if n := c.dropped.Add(1); n == 1 || n%100 == 0 {
			observability.Logger.Warn("moderation stream client is behind, dropping events",
				"admin", c.admin, "dropped", n)
		}
		return false
	}
}
