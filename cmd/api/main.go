package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidhyasrikachapalayam/visionassist/internal/api"
	"github.com/vidhyasrikachapalayam/visionassist/internal/config"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
	"github.com/vidhyasrikachapalayam/visionassist/internal/pipeline"
	"github.com/vidhyasrikachapalayam/visionassist/internal/repository"
	"github.com/vidhyasrikachapalayam/visionassist/internal/service"
	"github.com/vidhyasrikachapalayam/visionassist/internal/speech"
	"github.com/vidhyasrikachapalayam/visionassist/internal/storage"
	"github.com/vidhyasrikachapalayam/visionassist/internal/vision"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Select the face store backend. The choice is made once here and never
	// revisited per request.
	store := initFaceStore(cfg, appLogger)

	ctx := context.Background()

	// Optional snapshot storage for registration captures
	var snapshots pipeline.SnapshotStore
	if cfg.Storage.Enabled {
		bucket, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize snapshot storage")
		}
		if err := bucket.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure snapshot bucket")
		}
		snapshots = storage.NewSnapshotService(bucket)
	}

	// Detection + embedding model client
	var embedder pipeline.FaceEmbedder
	if cfg.Vision.Provider == "stub" {
		embedder = vision.NewStubEmbedder()
	} else {
		embedder = vision.NewRestEmbedder(&vision.EmbedderConfig{
			BaseURL: cfg.Vision.BaseURL,
			APIKey:  cfg.Vision.APIKey,
		})
	}

	// Camera stream; an empty URL surfaces as a DeviceError on camera start
	source := vision.NewMJPEGSource(cfg.Vision.StreamURL)

	// Notification/speech bridge
	synth := speech.New(&speech.Config{
		Provider: cfg.Speech.Provider,
		BaseURL:  cfg.Speech.BaseURL,
		APIKey:   cfg.Speech.APIKey,
		Voice:    cfg.Speech.Voice,
	})
	notifier := service.NewNotifier(synth, cfg.Notify.TTL, appLogger)
	defer notifier.Close()

	// Face pipeline controller
	controller := pipeline.NewController(source, embedder, store, snapshots, notifier, appLogger, &pipeline.Config{
		MatchThreshold: cfg.Vision.MatchThreshold,
		DetectInterval: cfg.Vision.DetectInterval,
		DropBusyTicks:  cfg.Vision.DropBusyTicks,
	})

	// Navigation
	routeService := service.NewRouteService(&service.RouteConfig{
		APIKey:  cfg.Maps.APIKey,
		BaseURL: cfg.Maps.BaseURL,
		Mode:    cfg.Maps.Mode,
	}, appLogger)

	// Setup router
	router := api.SetupRouter(store, controller, routeService, notifier, cfg, appLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	controller.StopCamera(ctx)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

// initFaceStore picks the durable GORM store when a database is configured
// and reachable, falling back to the in-memory store when allowed.
func initFaceStore(cfg *config.Config, appLogger *logger.Logger) repository.FaceStore {
	db, err := repository.InitDB(&cfg.Database)
	if err == nil {
		return repository.NewFaceRepository(db, cfg.Vision.Dimensions)
	}

	if !cfg.Database.FallbackToMemory {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	appLogger.WithError(err).Warn("Database unavailable, using in-memory face store")
	return repository.NewMemoryFaceRepository(cfg.Vision.Dimensions)
}
