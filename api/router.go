package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/api/handlers"
	"github.com/yourusername/cassette-sync-go/api/middleware"
	"github.com/yourusername/cassette-sync-go/internal/app"
	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	engine *app.BatchEngine,
	registry *app.JobControlRegistry,
	store domain.RecordStore,
	hub *handlers.ProgressHub,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(store)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(engine, registry, store, hub, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.StartDownload)
			downloads.POST("/batch", downloadHandler.StartBatch)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", downloadHandler.ListJobs)
			jobs.POST("/:id/pause", downloadHandler.PauseJob)
			jobs.POST("/:id/resume", downloadHandler.ResumeJob)
			jobs.POST("/:id/cancel", downloadHandler.CancelJob)
		}

		libraryHandler := handlers.NewLibraryHandler(store, log)
		bundles := v1.Group("/bundles")
		{
			bundles.GET("", libraryHandler.ListBundles)
			bundles.GET("/:id", libraryHandler.GetBundle)
			bundles.DELETE("/:id", libraryHandler.DeleteBundle)
		}

		files := v1.Group("/files")
		{
			files.GET("", libraryHandler.ListFiles)
			files.GET("/local-path", libraryHandler.LocalPath)
			files.DELETE("", libraryHandler.DeleteFile)
		}

		v1.GET("/stats", libraryHandler.Stats)
		v1.DELETE("/library", libraryHandler.ClearAll)

		// Live progress stream for the UI
		v1.GET("/ws/progress", hub.HandleWebSocket)
	}

	return router
}
