package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store domain.RecordStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store domain.RecordStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": "1.0.0",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.store.Stats(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "record store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
