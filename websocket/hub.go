package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is one event pushed to dashboards
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub fans booking events out to connected admin dashboards
type Hub struct {
	clients map[*Client]bool

	// Broadcast channel for messages to all clients
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	quit chan struct{}
	once sync.Once
	mu   sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns after Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debug().Uint("admin_id", client.AdminID).Msg("dashboard connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Debug().Uint("admin_id", client.AdminID).Msg("dashboard disconnected")

		case data := <-h.broadcast:
			h.broadcastMessage(data)

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.quit) })
}

// broadcastMessage sends a message to all connected clients, dropping the
// ones whose buffers are full
func (h *Hub) broadcastMessage(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
			log.Warn().Uint("admin_id", client.AdminID).Msg("dropping slow dashboard client")
		}
	}
}

// Publish queues an event for every dashboard without blocking the caller
func (h *Hub) Publish(event string, payload interface{}) {
	data, err := json.Marshal(&Message{Type: event, Timestamp: time.Now(), Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("error marshaling hub message")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn().Str("event", event).Msg("hub broadcast queue full, event dropped")
	}
}

// ClientCount returns the number of connected dashboards
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
