package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// CloseUnauthenticated is sent to connections that fail authentication.
	CloseUnauthenticated = 4401
)

// RejectConnection closes an upgraded connection that was never registered.
func RejectConnection(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(CloseUnauthenticated, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.Printf("realtime: failed to send close frame: %v", err)
	}
	conn.Close()
}

// ServeSession registers an authenticated connection with the hub, greets it,
// and pumps messages until the client goes away. It returns after the session
// has been unregistered.
func ServeSession(hub *Hub, conn *websocket.Conn, ownerID uint64) {
	session := hub.Register(ownerID)
	defer hub.Unregister(session)

	greeting, _ := json.Marshal(Message{
		Event: EventConnected,
		Data:  map[string]string{"message": "Realtime connection established."},
	})
	session.enqueue(greeting)

	done := make(chan struct{})
	go func() {
		writePump(conn, session)
		close(done)
	}()

	readPump(conn, session)

	// Closing the queue stops the writer, which then closes the connection.
	hub.Unregister(session)
	<-done
}

func readPump(conn *websocket.Conn, session *Session) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pong, _ := json.Marshal(Message{Event: EventPong})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: session %s read error: %v", session.ID, err)
			}
			return
		}

		if msg.Type == string(EventPing) {
			if !session.enqueue(pong) {
				log.Printf("realtime: dropped pong for session %s (queue full)", session.ID)
			}
		}
	}
}

func writePump(conn *websocket.Conn, session *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-session.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("realtime: session %s write error: %v", session.ID, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
