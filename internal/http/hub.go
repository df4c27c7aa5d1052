package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cryptodash/internal/service"
)

const wsWriteTimeout = 10 * time.Second

// Hub tracks connected websocket clients and pushes every fresh snapshot to
// all of them. All writes happen under the hub lock; gorilla connections
// allow only one concurrent writer.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Register adds a client and sends it the current snapshot so a new page
// does not wait for the next refresh.
func (h *Hub) Register(conn *websocket.Conn, current service.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn] = struct{}{}

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(current); err != nil {
		slog.Debug("Initial snapshot write failed", slog.Any("error", err))
	}
}

// Unregister removes a client. The caller closes the connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Broadcast sends snap to every connected client, dropping the dead ones.
func (h *Hub) Broadcast(snap service.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Snapshot marshal failed", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("Dropping websocket client", slog.Any("error", err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
