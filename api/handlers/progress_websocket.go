package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI shell only
	},
}

// ProgressHub fans out engine progress updates to WebSocket clients so the
// UI can render live per-item progress. Broadcast is the domain.ProgressFunc
// wired into batch downloads started over the API.
type ProgressHub struct {
	logger  *zap.Logger
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewProgressHub creates a new progress hub
func NewProgressHub(log *zap.Logger) *ProgressHub {
	return &ProgressHub{
		logger:  log,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Broadcast sends a progress update to every connected client. Writes to a
// failed connection drop the client; the read pump cleans up the rest.
func (h *ProgressHub) Broadcast(progress domain.Progress) {
	data, err := json.Marshal(progress)
	if err != nil {
		h.logger.Error("Failed to marshal progress update", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("Dropping progress client", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleWebSocket handles GET /api/v1/ws/progress
func (h *ProgressHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	h.logger.Info("Progress client connected",
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Read pump: detects the client closing the connection.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
