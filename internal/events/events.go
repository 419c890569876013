// Package events publishes moderation outcomes to the event bus and the live stream.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ModerationEvent is emitted for every moderation action that reached the upstream API.
type ModerationEvent struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	UserID        int64     `json:"user_id"`
	Outcome       string    `json:"outcome"`
	Message       string    `json:"message,omitempty"`
	AdminEmail    string    `json:"admin_email"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	At            time.Time `json:"at"`
}

// NewModerationEvent stamps an id and time onto a new event.
func NewModerationEvent(action string, userID int64, outcome, adminEmail string) ModerationEvent {
	return ModerationEvent{
		ID:         uuid.NewString(),
		Action:     action,
		UserID:     userID,
		Outcome:    outcome,
		AdminEmail: adminEmail,
		At:         time.Now().UTC(),
	}
}

// Publisher delivers moderation events.
type Publisher interface {
	PublishModeration(ctx context.Context, e ModerationEvent) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishModeration(ctx context.Context, e ModerationEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishModeration(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop drops events.
type Noop struct{}

func (Noop) PublishModeration(context.Context, ModerationEvent) error { return nil }
