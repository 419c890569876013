package session

import (
	"context"
	"sync"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/cache"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Store persists sessions by id.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON values with a TTL.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	span, ctx := observability.StartRedisSpan(ctx, "session.save")
	defer span.End()
	if err := cache.SetJSON(ctx, r.rdb, cache.SessionKey(s.ID), s, ttl); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	span, ctx := observability.StartRedisSpan(ctx, "session.load")
	defer span.End()
	var s Session
	found, err := cache.GetJSON(ctx, r.rdb, cache.SessionKey(id), &s)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, cache.SessionKey(id)).Err()
}

// MemoryStore is the process-local store used when Redis is not configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	session Session
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{session: *s}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.sessions[s.ID] = e
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	s := e.session
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
