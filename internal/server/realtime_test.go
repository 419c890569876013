package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/mockupstream"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketEvents_RequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})
	token := env.login(t)

	resp, _ := env.do(t, http.MethodGet, "/api/ws/events", nil, token)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebSocketEvents_StreamsModerationEvents(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})
	token := env.login(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws/events", header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return env.server.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	e := events.NewModerationEvent("block", 42, "confirmed", testAdminEmail)
	require.NoError(t, hubPublisher{hub: env.server.hub}.PublishModeration(context.Background(), e))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.ModerationEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "block", got.Action)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, testAdminEmail, got.AdminEmail)
}

func TestStreamSource(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})
	assert.IsType(t, &events.RedisPublisher{}, env.server.streamSource())

	env.server.redis = nil
	assert.Nil(t, env.server.streamSource())
	assert.IsType(t, events.Multi{}, env.server.publisher())
}
