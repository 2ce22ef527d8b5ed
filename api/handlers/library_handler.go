package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// LibraryHandler handles requests against the persisted offline library
type LibraryHandler struct {
	store  domain.RecordStore
	logger *zap.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(store domain.RecordStore, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{store: store, logger: logger}
}

// ListBundles handles GET /api/v1/bundles
func (h *LibraryHandler) ListBundles(c *gin.Context) {
	bundles, err := h.store.Bundles()
	if err != nil {
		h.logger.Error("Failed to list bundles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bundles)
}

// GetBundle handles GET /api/v1/bundles/:id. A 404 means the cassette is not
// fully downloaded.
func (h *LibraryHandler) GetBundle(c *gin.Context) {
	bundle, err := h.store.Bundle(c.Param("id"))
	if err != nil || bundle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "cassette not downloaded"})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// DeleteBundle handles DELETE /api/v1/bundles/:id. The underlying file
// records are kept; files may be shared across cassettes by URL.
func (h *LibraryHandler) DeleteBundle(c *gin.Context) {
	if err := h.store.RemoveBundle(c.Param("id")); err != nil {
		h.logger.Error("Failed to delete bundle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bundle deleted"})
}

// ListFiles handles GET /api/v1/files
func (h *LibraryHandler) ListFiles(c *gin.Context) {
	files, err := h.store.FileRecords()
	if err != nil {
		h.logger.Error("Failed to list file records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, files)
}

// LocalPath handles GET /api/v1/files/local-path?url=...
func (h *LibraryHandler) LocalPath(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
		return
	}

	rec, err := h.store.FileRecord(url)
	if err != nil || rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not downloaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"local_path": rec.LocalPath})
}

// DeleteFile handles DELETE /api/v1/files?url=...
func (h *LibraryHandler) DeleteFile(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
		return
	}

	if err := h.store.RemoveFileRecord(url); err != nil {
		h.logger.Error("Failed to delete file record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file record deleted"})
}

// Stats handles GET /api/v1/stats
func (h *LibraryHandler) Stats(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ClearAll handles DELETE /api/v1/library
func (h *LibraryHandler) ClearAll(c *gin.Context) {
	if err := h.store.ClearAll(); err != nil {
		h.logger.Error("Failed to clear library", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "library cleared"})
}
