package ws

import (
	"net/http"

	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // production: origin check
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	hub *Hub
}

func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWS upgrades the connection and starts the client pumps. The route sits
// behind AuthMiddleware, so the user id comes from the validated token.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("ws: upgrade failed", "user_id", userID)
		return
	}

	client := &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan OutgoingMessage, 256),
		hub:    h.hub,
		runs:   make(map[string]bool),
	}
	h.hub.register <- client

	go client.readPump()
	go client.writePump()
}
