package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/phambaophuc/image-normalizer/internal/config"
	"github.com/phambaophuc/image-normalizer/internal/http/handlers"
	"github.com/phambaophuc/image-normalizer/internal/http/routes"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/internal/services/queue"
	"github.com/phambaophuc/image-normalizer/internal/services/storage"
	"go.uber.org/zap"
)

func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	imageProcessor := processor.NewImageProcessor()

	store, err := storage.NewStorageService(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize storage service", zap.Error(err))
		// Continue without cache, job store and uploads
	} else {
		defer store.Close()
		logger.Info("Storage service ready",
			zap.String("backend", cfg.Storage.Backend),
			zap.Bool("object_store", store.HasObjectStore()))
		go store.RunCacheCleanup(ctx, cfg.Storage.CleanupInterval, logger)
	}

	var jobs *queue.QueueService
	if store != nil {
		jobs, err = queue.NewQueueService(cfg.RabbitMQ, imageProcessor, store, cfg.NormalizeOptions(), logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Continue without async normalization
		} else {
			defer jobs.Close()
			if err := jobs.StartWorkers(ctx, cfg.RabbitMQ.Workers); err != nil {
				logger.Error("Failed to start workers", zap.Error(err))
			}
		}
	}

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(imageProcessor, store, jobs, logger, cfg)

	router := routes.NewRouter(imageHandler, logger, cfg.Server.AllowedOrigins, cfg.Storage.MaxFileSize)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	stop()

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
