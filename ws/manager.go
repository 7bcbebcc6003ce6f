package ws

import (
	"sync"

	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/services/dto"
)

// OutgoingMessage is the envelope every pushed event is wrapped in.
type OutgoingMessage struct {
	Type string             `json:"type"`
	Data dto.SearchProgress `json:"data"`
}

// Hub fans search-run progress events out to websocket clients. It implements
// services.ProgressSink, so the pipeline pushes into it directly. Clients
// pick the runs they want with subscribe/unsubscribe messages.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("ws client registered", "user_id", client.UserID, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("ws client unregistered", "user_id", client.UserID, "total", total)
		}
	}
}

// Publish delivers one progress event to every client subscribed to its run.
// Clients whose send buffer is full miss the tick; the pipeline never blocks
// on a slow connection.
func (h *Hub) Publish(runID string, event dto.SearchProgress) {
	message := OutgoingMessage{Type: "progress", Data: event}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.subscribedTo(runID) {
			continue
		}
		select {
		case client.send <- message:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
