package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	h := NewHub()
	a, err := h.Register("a@ziogram.local", nil)
	require.NoError(t, err)
	b, err := h.Register("b@ziogram.local", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Count())

	assert.Equal(t, 2, h.BroadcastAll([]byte(`{"action":"block"}`)))
	assert.Equal(t, `{"action":"block"}`, string(<-a.send))
	assert.Equal(t, `{"action":"block"}`, string(<-b.send))
	assert.Equal(t, "b@ziogram.local", b.Admin())

	h.Unregister(a)
	h.Unregister(a)
	assert.Equal(t, 1, h.Count())
	select {
	case <-a.Done():
	default:
		t.Fatal("unregistered client not stopped")
	}
	assert.False(t, a.TrySend([]byte("x")))
	assert.Equal(t, int64(0), a.Dropped())
}

func TestHub_PerAdminLimit(t *testing.T) {
	h := NewHub()
	for i := 0; i < maxConnsPerAdmin; i++ {
		_, err := h.Register("a@ziogram.local", nil)
		require.NoError(t, err)
	}
	_, err := h.Register("a@ziogram.local", nil)
	assert.ErrorIs(t, err, ErrAdminFull)
}

func TestHub_FullBufferDrops(t *testing.T) {
	h := NewHub()
	c, err := h.Register("a@ziogram.local", nil)
	require.NoError(t, err)
	for i := 0; i < cap(c.send); i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
	assert.False(t, c.TrySend([]byte("overflow")))
	assert.Equal(t, int64(2), c.Dropped())
}

func TestHub_StartForwardsRedisEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	pub := events.NewRedisPublisher(rdb)

	h := NewHub()
	c, err := h.Register("a@ziogram.local", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx, pub))

	require.NoError(t, pub.PublishModeration(ctx, events.NewModerationEvent("unban", 3, "confirmed", "a@ziogram.local")))

	select {
	case msg := <-c.send:
		assert.Contains(t, string(msg), `"action":"unban"`)
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}

	require.NoError(t, h.Shutdown(ctx))
	assert.Equal(t, 0, h.Count())
	<-c.Done()
}
