package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/middleware"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/notifications"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// hubPublisher feeds moderation events straight to the local hub. It is used when no
// Redis channel is available to carry them.
type hubPublisher struct {
	hub *notifications.Hub
}

func (p hubPublisher) PublishModeration(_ context.Context, e events.ModerationEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	p.hub.BroadcastAll(payload)
	return nil
}

// natsStream adapts the NATS subscription to the hub's Subscriber.
type natsStream struct {
	nats *events.NATSPublisher
}

func (n natsStream) Subscribe(ctx context.Context, onMessage func(payload string)) error {
	sub, err := n.nats.Subscribe(func(e events.ModerationEvent) {
		payload, err := json.Marshal(e)
		if err != nil {
			return
		}
		onMessage(string(payload))
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// streamSource picks where the live stream reads events from: Redis when present, NATS
// otherwise. Without either, hubPublisher already delivers locally.
func (s *Server) streamSource() notifications.Subscriber {
	switch {
	case s.redis != nil:
		return events.NewRedisPublisher(s.redis)
	case s.nats != nil:
		return natsStream{nats: s.nats}
	default:
		return nil
	}
}

// WebSocketEventsHandler streams moderation events to a signed-in admin.
func (s *Server) WebSocketEventsHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		admin, _ := conn.Locals(middleware.LocalAdmin).(string)
		if admin == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(admin, conn)
		if err != nil {
			observability.Logger.Warn("moderation stream rejected connection",
				slog.String("admin", admin), slog.String("error", err.Error()))
			msg := "too many connections"
			if errors.Is(err, notifications.ErrServerFull) {
				msg = "server is at capacity"
			}
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg))
			_ = conn.Close()
			return
		}

		client.Serve()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}
