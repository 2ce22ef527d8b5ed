package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/api"
	"github.com/yourusername/cassette-sync-go/api/handlers"
	"github.com/yourusername/cassette-sync-go/internal/app"
	"github.com/yourusername/cassette-sync-go/internal/infrastructure"
	"github.com/yourusername/cassette-sync-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting cassette-sync server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir))

	if err := os.MkdirAll(filepath.Dir(config.Storage.DatabasePath), 0755); err != nil {
		log.Fatal("Failed to create storage directory", zap.Error(err))
	}

	// Persistent record store
	store, err := infrastructure.NewSQLiteRecordStore(&config.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize record store", zap.Error(err))
	}
	defer store.Close()

	// File fetch primitive
	fetcher, err := infrastructure.NewHTTPFileFetcher(&config.Download, log)
	if err != nil {
		log.Fatal("Failed to initialize file fetcher", zap.Error(err))
	}

	// Job control registry, shared by the engine and the API layer
	registry := app.NewJobControlRegistry(store, log)

	// Batch download engine
	engine := app.NewBatchEngine(store, fetcher, registry, &config.Download, log)

	// Live progress hub
	hub := handlers.NewProgressHub(log)

	router := api.SetupRouter(engine, registry, store, hub, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
