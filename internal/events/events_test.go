package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func TestNATSPublisher_Subject(t *testing.T) {
	conn := &fakeConn{}
	p := &NATSPublisher{conn: conn}

	e := NewModerationEvent("block", 42, "confirmed", "root@ziogram.local")
	require.NoError(t, p.PublishModeration(context.Background(), e))
	assert.Equal(t, "admin.moderation.block", conn.subject)

	var got ModerationEvent
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, int64(42), got.UserID)

	conn.err = errors.New("nats: connection closed")
	assert.Error(t, p.PublishModeration(context.Background(), e))
}

func TestRedisPublisher_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisPublisher(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	require.NoError(t, p.Subscribe(ctx, func(payload string) { received <- payload }))

	e := NewModerationEvent("delete", 7, "confirmed", "root@ziogram.local")
	require.NoError(t, p.PublishModeration(ctx, e))

	select {
	case payload := <-received:
		var got ModerationEvent
		require.NoError(t, json.Unmarshal([]byte(payload), &got))
		assert.Equal(t, "delete", got.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

type failing struct{}

func (failing) PublishModeration(context.Context, ModerationEvent) error {
	return errors.New("down")
}

func TestMulti(t *testing.T) {
	conn := &fakeConn{}
	m := Multi{&NATSPublisher{conn: conn}, failing{}, nil, Noop{}}
	err := m.PublishModeration(context.Background(), NewModerationEvent("unban", 1, "confirmed", "a"))
	assert.EqualError(t, err, "down")
	assert.Equal(t, "admin.moderation.unban", conn.subject)

	assert.NoError(t, (&RedisPublisher{}).PublishModeration(context.Background(), ModerationEvent{}))
}
