package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message types pushed to board screens.
const (
	TypeResultsUpdated = "results_updated"
)

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks the connected board screens.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]string
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]string),
	}
}

// Add registers conn and returns the id it is logged under.
func (h *Hub) Add(conn *websocket.Conn) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	h.conns[conn] = id
	logger.Infof("ws: client %s connected (total: %d)", id, len(h.conns))
	return id
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
		logger.Infof("ws: client %s disconnected", id)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Send writes message to a single connection.
func (h *Hub) Send(conn *websocket.Conn, message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Broadcast writes message to every client, dropping the ones that fail.
func (h *Hub) Broadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("ws: marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, id := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Warningf("ws: write to %s failed: %v", id, err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}
