package moderation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMutator struct {
	calls    []string
	message  string
	err      error
	lastUser int64
}

func (m *fakeMutator) Mutate(_ context.Context, endpoint string, userID int64) (string, error) {
	m.calls = append(m.calls, endpoint)
	m.lastUser = userID
	return m.message, m.err
}

type fakeAuditor struct{ entries []models.AuditEntry }

func (a *fakeAuditor) Create(_ context.Context, e *models.AuditEntry) error {
	a.entries = append(a.entries, *e)
	return nil
}

type fakePublisher struct{ events []events.ModerationEvent }

func (p *fakePublisher) PublishModeration(_ context.Context, e events.ModerationEvent) error {
	p.events = append(p.events, e)
	return nil
}

func yes() Decision { return DecisionFrom("true") }

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	for _, name := range []string{ActionBlock, ActionBan, ActionUnban, ActionDelete} {
		_, ok := c.Lookup(name)
		assert.True(t, ok, name)
	}

	p := c[ActionBlock].PromptFor(12)
	assert.Equal(t, "Block User?", p.Title)
	assert.Equal(t, "Do you really want to block user 12?", p.Text)
	assert.Equal(t, "Yes, block it!", p.ConfirmLabel)
	assert.Equal(t, "No, keep it", p.CancelLabel)
	assert.Equal(t, EffectRemove, c[ActionDelete].Effect)

	_, err := LoadCatalog([]byte("actions:\n  - name: x\n    endpoint: y\n    effect: explode\n"))
	assert.Error(t, err)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionUnban, ActionFor(true, false))
	assert.Equal(t, ActionUnban, ActionFor(true, true))
	assert.Equal(t, ActionBlock, ActionFor(false, false))
	assert.Equal(t, ActionBan, ActionFor(false, true))
}

func TestRunner_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		confirmer  Confirmer
		mutErr     error
		wantStatus Status
		wantCalls  int
		wantNotice models.Notice
		wantEffect Effect
	}{
		{
			name: "declined makes no call", action: ActionDelete, confirmer: DecisionFrom("false"),
			wantStatus: StatusCancelled,
		},
		{
			name: "confirmed delete removes", action: ActionDelete, confirmer: yes(),
			wantStatus: StatusConfirmed, wantCalls: 1, wantEffect: EffectRemove,
			wantNotice: models.Notice{Icon: "success", Title: "Deleted!", Text: "User has been deleted successfully."},
		},
		{
			name: "confirmed block refetches", action: ActionBlock, confirmer: yes(),
			wantStatus: StatusConfirmed, wantCalls: 1, wantEffect: EffectRefetch,
			wantNotice: models.Notice{Icon: "success", Title: "Blocked!", Text: "User has been blocked successfully."},
		},
		{
			name: "rejection shows server message", action: ActionUnban, confirmer: yes(),
			mutErr:     &upstream.RejectedError{Endpoint: "unblock-by-admin", Message: "User is not blocked"},
			wantStatus: StatusRejected, wantCalls: 1,
			wantNotice: models.Notice{Icon: "error", Title: "Error!", Text: "User is not blocked"},
		},
		{
			name: "transport failure shows generic text", action: ActionDelete, confirmer: yes(),
			mutErr:     &upstream.UnavailableError{Endpoint: "delete-by-admin", Err: errors.New("dial tcp")},
			wantStatus: StatusFailed, wantCalls: 1,
			wantNotice: models.Notice{Icon: "error", Title: "Error!", Text: "There was a problem deleting the user."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mut := &fakeMutator{err: tt.mutErr}
			aud := &fakeAuditor{}
			pub := &fakePublisher{}
			r := NewRunner(DefaultCatalog(), mut, aud, pub)

			out, err := r.Run(context.Background(), Request{Action: tt.action, UserID: 5, Actor: "root@ziogram.local"}, tt.confirmer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Len(t, mut.calls, tt.wantCalls)
			assert.Equal(t, tt.wantNotice, out.Notice)
			assert.Equal(t, tt.wantEffect, out.Effect)

			if tt.wantStatus == StatusCancelled {
				assert.Empty(t, aud.entries)
				assert.Empty(t, pub.events)
				return
			}
			require.Len(t, aud.entries, 1)
			assert.Equal(t, string(tt.wantStatus), aud.entries[0].Outcome)
			assert.Equal(t, int64(5), aud.entries[0].TargetUserID)
			require.Len(t, pub.events, 1)
			assert.Equal(t, tt.action, pub.events[0].Action)
			assert.Equal(t, int64(5), mut.lastUser)
		})
	}
}

func TestRunner_BanUsesBlockEndpoint(t *testing.T) {
	mut := &fakeMutator{}
	r := NewRunner(DefaultCatalog(), mut, nil, nil)
	out, err := r.Run(context.Background(), Request{Action: ActionBan, UserID: 3}, yes())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, []string{upstream.EndpointBlock}, mut.calls)
}

func TestRunner_ConfirmationRequired(t *testing.T) {
	mut := &fakeMutator{}
	r := NewRunner(DefaultCatalog(), mut, nil, nil)

	_, err := r.Run(context.Background(), Request{Action: ActionDelete, UserID: 3}, DecisionFrom(""))
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, mut.calls)

	_, err = r.Run(context.Background(), Request{Action: "purge", UserID: 3}, yes())
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestTerminal(t *testing.T) {
	p := DefaultCatalog()[ActionDelete].PromptFor(9)

	var out bytes.Buffer
	ok, err := Terminal{In: strings.NewReader("y\n"), Out: &out}.Confirm(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Do you really want to delete user 9?")

	ok, err = Terminal{In: strings.NewReader("\n"), Out: &out}.Confirm(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Terminal{In: strings.NewReader(""), Out: &out}.Confirm(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, ok)
}
