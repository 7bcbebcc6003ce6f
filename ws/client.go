package ws

import (
	"encoding/json"
	"sync"

	"offerwise_backend/internal/logger"

	"github.com/gorilla/websocket"
)

// IncomingMessage is what clients send: subscribe / unsubscribe plus a run id.
type IncomingMessage struct {
	Action string `json:"action"`
	RunID  string `json:"run_id"`
}

type Client struct {
	UserID string
	conn   *websocket.Conn
	send   chan OutgoingMessage
	hub    *Hub

	mu   sync.Mutex
	runs map[string]bool
}

func (c *Client) subscribedTo(runID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[runID]
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, msgBytes, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			logger.Warn("ws: malformed message", "user_id", c.UserID, "error", err.Error())
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			logger.Warn("ws: write failed", "user_id", c.UserID, "error", err.Error())
			return
		}
	}
}

func (c *Client) handleMessage(msg IncomingMessage) {
	if msg.RunID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Action {
	case "subscribe":
		c.runs[msg.RunID] = true
	case "unsubscribe":
		delete(c.runs, msg.RunID)
	default:
		logger.Warn("ws: unhandled action", "action", msg.Action)
	}
}
