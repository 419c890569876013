package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix prefixes the moderation subjects: admin.moderation.<action>.
const SubjectPrefix = "admin.moderation."

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes moderation events to NATS.
type NATSPublisher struct {
	conn natsConn
	nc   *nats.Conn
}

// ConnectNATS dials NATS and returns a publisher on the connection.
func ConnectNATS(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				observability.Logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			observability.Logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return &NATSPublisher{conn: nc, nc: nc}, nil
}

// Subject returns the subject an action is published on.
func Subject(action string) string {
	return SubjectPrefix + action
}

func (p *NATSPublisher) PublishModeration(ctx context.Context, e ModerationEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(Subject(e.Action), data); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(e.Action), err)
	}
	observability.Logger.DebugContext(ctx, "Published moderation event",
		"subject", Subject(e.Action), "event_id", e.ID, "user_id", e.UserID)
	return nil
}

// Subscribe registers handler for every moderation subject.
func (p *NATSPublisher) Subscribe(handler func(ModerationEvent)) (*nats.Subscription, error) {
	if p.nc == nil {
		return nil, fmt.Errorf("nats connection not established")
	}
	return p.nc.Subscribe(SubjectPrefix+"*", func(msg *nats.Msg) {
		var e ModerationEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			observability.Logger.Warn("Dropping malformed moderation event", "subject", msg.Subject, "error", err)
			return
		}
		handler(e)
	})
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
