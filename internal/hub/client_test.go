package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSocketServer(t *testing.T, h *Hub) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/global", h.ServeGlobal)
	mux.HandleFunc("/ws/{chatId}", func(w http.ResponseWriter, r *http.Request) {
		h.ServeRoom(w, r, r.PathValue("chatId"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until one has the wanted type.
func readUntil(t *testing.T, conn *websocket.Conn, kind string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame map[string]any
		require.NoError(t, json.Unmarshal(raw, &frame))
		if frame["type"] == kind {
			return frame
		}
	}
}

func TestWebsocketTypingReachesGlobalChannel(t *testing.T) {
	h := NewHub(Config{}, newFakeMembers(map[string][]string{"chat-1": {"alice", "bob"}}), testTokens, zap.NewNop())
	t.Cleanup(h.Stop)
	base := newSocketServer(t, h)

	bob := dial(t, base+"/ws/global?token=token-bob")
	require.Eventually(t, func() bool { return h.Presence().IsOnline("bob") }, waitFor, tick)

	alice := dial(t, base+"/ws/chat-1?token=token-alice")
	require.Eventually(t, func() bool { return h.Rooms().HasUser("chat-1", "alice") }, waitFor, tick)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"typing","is_typing":true}`)))

	frame := readUntil(t, bob, "typing")
	assert.Equal(t, "chat-1", frame["chat_id"])
	assert.Equal(t, "alice", frame["user_id"])
	assert.Equal(t, true, frame["is_typing"])

	// the room connection sees its own keepalive echoed back
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`hi`)))
	ping := readUntil(t, alice, "ping")
	assert.Equal(t, "hi", ping["data"])
}

func TestWebsocketGlobalWithoutTokenIsClosed(t *testing.T) {
	h := NewHub(Config{}, newFakeMembers(nil), testTokens, zap.NewNop())
	t.Cleanup(h.Stop)
	base := newSocketServer(t, h)

	conn := dial(t, base+"/ws/global")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Empty(t, h.Presence().OnlineUsers())
}

func TestWebsocketDisconnectPublishesOffline(t *testing.T) {
	h := NewHub(Config{}, newFakeMembers(map[string][]string{"chat-1": {"alice", "bob"}}), testTokens, zap.NewNop())
	t.Cleanup(h.Stop)
	base := newSocketServer(t, h)

	bob := dial(t, base+"/ws/global?token=token-bob")
	require.Eventually(t, func() bool { return h.Presence().IsOnline("bob") }, waitFor, tick)

	alice := dial(t, base+"/ws/global?token=token-alice")
	online := readUntil(t, bob, "user_status")
	for online["user_id"] != "alice" {
		online = readUntil(t, bob, "user_status")
	}
	assert.Equal(t, true, online["is_online"])

	require.NoError(t, alice.Close())

	offline := readUntil(t, bob, "user_status")
	assert.Equal(t, "alice", offline["user_id"])
	assert.Equal(t, false, offline["is_online"])
	assert.False(t, h.Presence().IsOnline("alice"))
}
