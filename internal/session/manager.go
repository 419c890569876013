package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manager ties the token issuer to the session store.
type Manager struct {
	store  Store
	issuer *Issuer
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, issuer *Issuer, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, issuer: issuer, ttl: ttl, now: time.Now}
}

// Create stores a new session for admin and returns it with its signed token.
func (m *Manager) Create(ctx context.Context, admin Admin, upstreamToken string) (*Session, string, error) {
	now := m.now()
	s := &Session{
		ID:            uuid.NewString(),
		Admin:         admin,
		UpstreamToken: upstreamToken,
		Prefs:         DefaultPreferences,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.ttl),
	}
	token, err := m.issuer.Sign(s.ID, s.ExpiresAt)
	if err != nil {
		return nil, "", err
	}
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, "", err
	}
	return s, token, nil
}

// Resolve returns the live session named by token.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	id, err := m.issuer.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return s, nil
}

// Destroy removes the session.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// UpdatePreferences applies the non-empty fields of patch and persists the session for
// its remaining lifetime.
func (m *Manager) UpdatePreferences(ctx context.Context, id string, patch PreferencesPatch) (*Session, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Theme != nil {
		s.Prefs.Theme = *patch.Theme
	}
	if patch.Locale != nil {
		s.Prefs.Locale = *patch.Locale
	}
	if patch.RTL != nil {
		s.Prefs.RTL = *patch.RTL
	}
	remaining := s.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return nil, ErrNotFound
	}
	if err := m.store.Save(ctx, s, remaining); err != nil {
		return nil, err
	}
	return s, nil
}

// PreferencesPatch is a partial preferences update.
type PreferencesPatch struct {
	Theme  *string `json:"theme"`
	Locale *string `json:"locale"`
	RTL    *bool   `json:"rtl"`
}
