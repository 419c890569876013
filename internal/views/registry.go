package views

import (
	"sync"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
)

// Workspace is the view state of one admin session.
type Workspace struct {
	Users    *ListState[models.User]
	Reported *ListState[models.Report]
	Feed     *FeedState
	Product  *ProductForm
}

// Options size new workspaces.
type Options struct {
	PageSize  int
	MaxImages int
}

func NewWorkspace(opts Options) *Workspace {
	return &Workspace{
		Users:    NewListState("users", opts.PageSize, func(u models.User) int64 { return u.UserID }),
		Reported: NewListState("reported", opts.PageSize, func(r models.Report) int64 { return r.TargetUserID() }),
		Feed:     NewFeedState(opts.PageSize),
		Product:  NewProductForm(opts.MaxImages),
	}
}

// sweepInterval bounds how often Get scans for workspaces of expired sessions.
const sweepInterval = time.Minute

// Registry holds the workspaces of live sessions. A workspace lives as long as its
// session: Drop evicts it at logout, and sessions that simply expire are swept.
type Registry struct {
	mu         sync.Mutex
	opts       Options
	workspaces map[string]*entry
	now        func() time.Time
	lastSweep  time.Time
}

type entry struct {
	ws        *Workspace
	expiresAt time.Time
}

func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, workspaces: make(map[string]*entry), now: time.Now}
}

// Get returns the workspace of a session expiring at expiresAt, creating it on first use.
func (r *Registry) Get(sessionID string, expiresAt time.Time) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweepLocked(now)
	}
	e, ok := r.workspaces[sessionID]
	if !ok {
		e = &entry{ws: NewWorkspace(r.opts)}
		r.workspaces[sessionID] = e
	}
	e.expiresAt = expiresAt
	return e.ws
}

// Drop evicts a session's workspace.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.workspaces, sessionID)
	r.mu.Unlock()
}

// Sweep evicts the workspaces of sessions expired at now and returns how many went.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(now)
}

func (r *Registry) sweepLocked(now time.Time) int {
	r.lastSweep = now
	n := 0
	for id, e := range r.workspaces {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(r.workspaces, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
