// Package session holds the signed-in admin's identity, upstream token and display
// preferences. A Session is created at login, resolved per request and destroyed at logout.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Admin is the identity returned by the upstream login.
type Admin struct {
	Name       string `json:"name"`
	ProfilePic string `json:"profile_pic"`
	Email      string `json:"email"`
}

// Preferences are the admin's display settings.
type Preferences struct {
	Theme  string `json:"theme"`
	Locale string `json:"locale"`
	RTL    bool   `json:"rtl"`
}

// DefaultPreferences is applied to every new session.
var DefaultPreferences = Preferences{Theme: "light", Locale: "en", RTL: false}

// Session is one signed-in admin.
type Session struct {
	ID            string      `json:"id"`
	Admin         Admin       `json:"admin"`
	UpstreamToken string      `json:"upstream_token"`
	Prefs         Preferences `json:"preferences"`
	CreatedAt     time.Time   `json:"created_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
