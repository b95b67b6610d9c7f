package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// RealtimeHandler upgrades clients to the per-owner event channel.
type RealtimeHandler struct {
	hub      *realtime.Hub
	tokens   *services.TokenService
	auth     *services.AuthService
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a new RealtimeHandler
func NewRealtimeHandler(hub *realtime.Hub, tokens *services.TokenService, auth *services.AuthService) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		tokens: tokens,
		auth:   auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Authentication is by token, not cookie, so cross-origin
			// upgrades carry no ambient credentials.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect authenticates the token from the query string or Authorization
// header. The connection is upgraded first so that a failed authentication
// can be reported with close code 4401.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	userID, err := h.authenticate(c)
	if err != nil {
		realtime.RejectConnection(conn, "authentication failed")
		return
	}

	realtime.ServeSession(h.hub, conn, userID)
}

func (h *RealtimeHandler) authenticate(c *gin.Context) (uint64, error) {
	token := c.Query("token")
	if token == "" {
		if bearer, ok := services.BearerToken(c.GetHeader("Authorization")); ok {
			token = bearer
		}
	}

	userID, err := h.tokens.ParseToken(token)
	if err != nil {
		return 0, err
	}

	// The user must still exist.
	if _, err := h.auth.Principal(userID); err != nil {
		return 0, err
	}
	return userID, nil
}
