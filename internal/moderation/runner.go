package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"
)

// Status is the result of one moderation attempt.
type Status string

const (
	StatusCancelled Status = "cancelled"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// ErrUnknownAction is returned for action names missing from the catalog.
var ErrUnknownAction = errors.New("unknown moderation action")

// Mutator performs the upstream mutation.
type Mutator interface {
	Mutate(ctx context.Context, endpoint string, userID int64) (string, error)
}

// Auditor records executed actions.
type Auditor interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}

// Request is one moderation attempt.
type Request struct {
	Action string
	UserID int64
	Actor  string
}

// Outcome is what the admin is told and what the list should do.
type Outcome struct {
	Status Status        `json:"status"`
	Action string        `json:"action"`
	UserID int64         `json:"user_id"`
	Notice models.Notice `json:"notice"`
	Effect Effect        `json:"effect,omitempty"`
}

// Runner executes moderation actions.
type Runner struct {
	catalog   Catalog
	mutator   Mutator
	auditor   Auditor
	publisher events.Publisher
}

func NewRunner(catalog Catalog, mutator Mutator, auditor Auditor, publisher events.Publisher) *Runner {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Runner{catalog: catalog, mutator: mutator, auditor: auditor, publisher: publisher}
}

// Prompt returns the confirmation prompt of a request.
func (r *Runner) Prompt(req Request) (Prompt, error) {
	a, ok := r.catalog.Lookup(req.Action)
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
	}
	return a.PromptFor(req.UserID), nil
}

// Run asks confirmer and, if confirmed, performs the mutation. A declined prompt makes no
// upstream call and is neither audited nor published. The returned error is non-nil only
// when the flow could not run (unknown action, confirmer error).
func (r *Runner) Run(ctx context.Context, req Request, confirmer Confirmer) (Outcome, error) {
	a, ok := r.catalog.Lookup(req.Action)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
	}

	confirmed, err := confirmer.Confirm(ctx, a.PromptFor(req.UserID))
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Action: a.Name, UserID: req.UserID}
	if !confirmed {
		out.Status = StatusCancelled
		observability.ModerationActions.WithLabelValues(a.Name, string(out.Status)).Inc()
		return out, nil
	}

	message, err := r.mutator.Mutate(ctx, a.Endpoint, req.UserID)
	switch rej, rejected := upstream.IsRejected(err); {
	case err == nil:
		out.Status = StatusConfirmed
		out.Effect = a.Effect
		out.Notice = models.Notice{Icon: models.IconSuccess, Title: a.SuccessTitle, Text: a.SuccessText}
	case rejected:
		out.Status = StatusRejected
		message = rej.Message
		out.Notice = models.Notice{Icon: models.IconError, Title: "Error!", Text: rej.Message}
	default:
		out.Status = StatusFailed
		message = err.Error()
		out.Notice = models.Notice{Icon: models.IconError, Title: "Error!", Text: a.FailureText}
	}
	observability.ModerationActions.WithLabelValues(a.Name, string(out.Status)).Inc()

	r.record(ctx, req, a, out.Status, message)
	return out, nil
}

func (r *Runner) record(ctx context.Context, req Request, a Action, status Status, message string) {
	log := observability.Logger.With("action", a.Name, "user_id", req.UserID, "status", status)

	if r.auditor != nil {
		entry := &models.AuditEntry{
			AdminEmail:   req.Actor,
			Action:       a.Name,
			TargetUserID: req.UserID,
			Outcome:      string(status),
			Message:      message,
		}
		if err := r.auditor.Create(ctx, entry); err != nil {
			log.ErrorContext(ctx, "failed to audit moderation action", "error", err)
		}
	}

	e := events.NewModerationEvent(a.Name, req.UserID, string(status), req.Actor)
	e.Message = message
	e.CorrelationID = observability.ExtractCorrelationID(ctx)
	if err := r.publisher.PublishModeration(ctx, e); err != nil {
		log.WarnContext(ctx, "failed to publish moderation event", "error", err)
	}
	log.InfoContext(ctx, "moderation action completed")
}
