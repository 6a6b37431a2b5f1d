package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dcamenisch/tvbuddy/internal/api"
	"github.com/dcamenisch/tvbuddy/internal/config"
	"github.com/dcamenisch/tvbuddy/internal/controllers"
	"github.com/dcamenisch/tvbuddy/internal/metadata"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/dcamenisch/tvbuddy/internal/scheduler"
	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/dcamenisch/tvbuddy/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting TVBuddy")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Watch graph loaded")

	// 4. Initialize services
	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	logger.Info("TMDB client initialized")

	metadataCache := metadata.NewCache(tmdbClient, cfg.PosterCacheBytes, logger)

	// 5. Initialize controllers
	state := controllers.NewRefreshState()
	syncCtrl := controllers.NewSyncController(db, metadataCache, logger)
	refreshCtrl := controllers.NewRefreshController(db, metadataCache, state, logger)
	libraryCtrl := controllers.NewLibraryController(db, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler
	sched := scheduler.NewScheduler(refreshCtrl, cfg.RefreshIntervalHours, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, db, metadataCache, syncCtrl, refreshCtrl, libraryCtrl, state, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("TVBuddy is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("TVBuddy stopped")
	return nil
}
