package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collabcode/backend/internal/api/middleware"
	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and hands it to the hub. The token
// is verified BEFORE the upgrade and the resulting identity is bound to the
// connection for its whole life; identity fields inside later event payloads
// are ignored. Browsers cannot set headers on WebSocket dials, so ?token= is
// accepted as a fallback.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString, err := middleware.BearerToken(c)
	if err != nil {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Access denied. No token provided.",
			"code":  "no_token",
		})
		return
	}

	userID, err := h.Tokens.Verify(tokenString)
	if err != nil {
		if errors.Is(err, apperr.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token expired.",
				"code":  "expired_token",
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token.",
			"code":  "invalid_token",
		})
		return
	}

	user, err := h.Storage.GetUserByID(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token. User not found.",
			"code":  "invalid_token",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		return
	}

	connID := uuid.New().String()
	client := hub.NewWebSocketClient(conn, h.Hub, connID, user.ID, user.Name)
	client.SetOnDisconnect(func() {
		if err := h.Storage.SetUserOffline(user.ID); err != nil {
			log.Printf("WARN: failed to mark %s offline: %v", user.ID, err)
		}
	})

	// Presence is best-effort; the session works without it.
	if err := h.Storage.SetUserOnline(user.ID); err != nil {
		log.Printf("WARN: failed to mark %s online: %v", user.ID, err)
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
