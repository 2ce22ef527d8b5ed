package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/internal/app"
	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// DownloadHandler handles batch-download HTTP requests
type DownloadHandler struct {
	engine   *app.BatchEngine
	registry *app.JobControlRegistry
	store    domain.RecordStore
	hub      *ProgressHub
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(
	engine *app.BatchEngine,
	registry *app.JobControlRegistry,
	store domain.RecordStore,
	hub *ProgressHub,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		engine:   engine,
		registry: registry,
		store:    store,
		hub:      hub,
		logger:   logger,
	}
}

// StartDownload handles POST /api/v1/downloads. The request body is the
// cassette descriptor. With ?wait=true the request blocks until the batch
// finishes and returns the Result; otherwise the batch runs in the
// background and progress is observable via /jobs and the progress socket.
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var cassette domain.Cassette
	if err := c.ShouldBindJSON(&cassette); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := cassette.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.Query("wait") == "true" {
		result, err := h.engine.DownloadCassette(c.Request.Context(), &cassette, h.hub.Broadcast)
		if err != nil {
			h.respondEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	go func() {
		if _, err := h.engine.DownloadCassette(context.Background(), &cassette, h.hub.Broadcast); err != nil {
			h.logger.Error("Download failed to start",
				zap.String("id", cassette.ID),
				zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":     "download started",
		"cassette_id": cassette.ID,
	})
}

// StartBatch handles POST /api/v1/downloads/batch with a list of cassettes,
// each downloaded as an independent job.
func (h *DownloadHandler) StartBatch(c *gin.Context) {
	var cassettes []*domain.Cassette
	if err := c.ShouldBindJSON(&cassettes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(cassettes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no cassettes given"})
		return
	}
	for _, cassette := range cassettes {
		if err := cassette.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if c.Query("wait") == "true" {
		results := h.engine.DownloadAll(c.Request.Context(), cassettes, h.hub.Broadcast)
		c.JSON(http.StatusOK, results)
		return
	}

	go h.engine.DownloadAll(context.Background(), cassettes, h.hub.Broadcast)

	c.JSON(http.StatusAccepted, gin.H{
		"message": "downloads started",
		"count":   len(cassettes),
	})
}

// ListJobs handles GET /api/v1/jobs
func (h *DownloadHandler) ListJobs(c *gin.Context) {
	jobs, err := h.store.ActiveJobs()
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// PauseJob handles POST /api/v1/jobs/:id/pause
func (h *DownloadHandler) PauseJob(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Pause(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active download for cassette"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "download paused"})
}

// ResumeJob handles POST /api/v1/jobs/:id/resume
func (h *DownloadHandler) ResumeJob(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Resume(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active download for cassette"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "download resumed"})
}

// CancelJob handles POST /api/v1/jobs/:id/cancel. Cancellation is
// optimistic: the job record is removed immediately while the engine loop
// observes the flag at its next item boundary.
func (h *DownloadHandler) CancelJob(c *gin.Context) {
	h.registry.Cancel(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "download cancelled"})
}

func (h *DownloadHandler) respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedEnvironment):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
