// internal/server/hub.go
package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/SimonPop/lanterns/internal/metrics"
	"github.com/gorilla/websocket"
)

// reloadMessage tells a browser tab to reload itself.
const reloadMessage = "reload"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local preview server, any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks live-reload clients and pushes messages to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	metrics *metrics.Recorder
	log     *slog.Logger
}

func newHub(rec *metrics.Recorder, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		metrics: rec,
		log:     logger,
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.metrics.SetClients(len(h.clients))
	h.log.Debug("Live-reload client connected", logfields.Clients(len(h.clients)))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
		h.metrics.SetClients(len(h.clients))
		h.log.Debug("Live-reload client disconnected", logfields.Clients(len(h.clients)))
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends message to every client. Clients that fail the write are
// dropped. cause labels the broadcast in metrics.
func (h *Hub) Broadcast(message, cause string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			h.log.Debug("Dropping live-reload client", logfields.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
	h.metrics.SetClients(len(h.clients))
	h.metrics.IncBroadcast(cause)
	h.log.Info("Triggered reload", slog.String("cause", cause), logfields.Clients(len(h.clients)))
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.metrics.SetClients(0)
}

func (h *Hub) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", logfields.Error(err))
		return
	}
	h.register(conn)
	defer h.unregister(conn)
	// Clients never send anything; reading only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
