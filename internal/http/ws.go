package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"cryptodash/internal/infra"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	},
}

// handleWS upgrades the connection, hands it to the hub with the current
// snapshot, then blocks reading until the client goes away. The server
// never fetches for websocket clients; they see whatever page loads and
// appends produce.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.validate(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "Websocket upgrade failed", slog.Any("error", err))
		return
	}

	s.hub.Register(conn, s.dashboard.Current())
	infra.GlobalMetrics.IncrementClients()
	slog.InfoContext(r.Context(), "Websocket client connected")

	defer func() {
		s.hub.Unregister(conn)
		infra.GlobalMetrics.DecrementClients()
		conn.Close()
		slog.Info("Websocket client disconnected")
	}()

	// Clients never send data; reads only detect disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
