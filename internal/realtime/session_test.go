package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionServer(t *testing.T, hub *Hub, ownerID uint64) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if r.URL.Query().Get("reject") != "" {
			RejectConnection(conn, "authentication failed")
			return
		}
		ServeSession(hub, conn, ownerID)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeSession(t *testing.T) {
	hub := NewHub(8)
	url := newSessionServer(t, hub, 7)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	greeting := readMessage(t, conn)
	assert.Equal(t, EventConnected, greeting.Event)
	assert.Equal(t, 1, hub.SessionCount(7))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, EventPong, readMessage(t, conn).Event)

	// Unknown client messages are ignored.
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "subscribe"}))

	hub.Publish(7, EventTaskDeleted, map[string]uint64{"id": 12})
	msg := readMessage(t, conn)
	assert.Equal(t, EventTaskDeleted, msg.Event)
	assert.Equal(t, map[string]interface{}{"id": float64(12)}, msg.Data)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool {
		return hub.SessionCount(7) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRejectConnection(t *testing.T) {
	hub := NewHub(8)
	url := newSessionServer(t, hub, 7)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?reject=1", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, CloseUnauthenticated), "got %v", err)
	assert.Equal(t, 0, hub.SessionCount(7))
}
