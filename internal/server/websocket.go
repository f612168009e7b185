package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev tool.
	},
}

// MultiplierEvent is pushed to every connected panel when the engine's
// multiplier changes, so panels reflect the clamped value without polling.
type MultiplierEvent struct {
	Type        string    `json:"type"`
	Multiplier  float64   `json:"multiplier"`
	VirtualTime time.Time `json:"virtual_time"`
}

// Hub manages WebSocket clients and broadcasts multiplier events.
// A single mutex guards the client set and serializes broadcasts:
// gorilla connections do not support concurrent writers.
type Hub struct {
	log     *zap.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a new WebSocket hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWebSocket upgrades the HTTP connection and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Read loop — keep connection alive, handle disconnects.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// BroadcastMultiplier sends a multiplier event to all connected clients.
func (h *Hub) BroadcastMultiplier(multiplier float64, virtual time.Time) {
	data, err := json.Marshal(MultiplierEvent{
		Type:        "multiplier",
		Multiplier:  multiplier,
		VirtualTime: virtual,
	})
	if err != nil {
		h.log.Warn("websocket marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("websocket write failed", zap.Error(err))
			conn.Close()
			// Don't delete during iteration — the read goroutine will clean up.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
