package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dcamenisch/tvbuddy/internal/api/handlers"
	"github.com/dcamenisch/tvbuddy/internal/api/middleware"
	"github.com/dcamenisch/tvbuddy/internal/config"
	"github.com/dcamenisch/tvbuddy/internal/controllers"
	"github.com/dcamenisch/tvbuddy/internal/metadata"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	db          *models.Database
	metadata    *metadata.Cache
	syncCtrl    *controllers.SyncController
	refreshCtrl *controllers.RefreshController
	libraryCtrl *controllers.LibraryController
	state       *controllers.RefreshState
	logger      *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	db *models.Database,
	meta *metadata.Cache,
	syncCtrl *controllers.SyncController,
	refreshCtrl *controllers.RefreshController,
	libraryCtrl *controllers.LibraryController,
	state *controllers.RefreshState,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		db:          db,
		metadata:    meta,
		syncCtrl:    syncCtrl,
		refreshCtrl: refreshCtrl,
		libraryCtrl: libraryCtrl,
		state:       state,
		logger:      logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("GET /health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.db, s.state, s.logger)
	mux.HandleFunc("GET /status", statusHandler.ServeHTTP)

	libraryHandler := handlers.NewLibraryHandler(s.db, s.syncCtrl, s.libraryCtrl, s.logger)
	mux.HandleFunc("GET /api/library", libraryHandler.List)
	mux.HandleFunc("GET /api/library/series/{id}", libraryHandler.SeriesDetail)
	mux.HandleFunc("POST /api/library/movies", libraryHandler.InsertMovie)
	mux.HandleFunc("POST /api/library/series", libraryHandler.InsertSeries)
	mux.HandleFunc("DELETE /api/library/movies/{id}", libraryHandler.DeleteMovie)
	mux.HandleFunc("DELETE /api/library/series/{id}", libraryHandler.DeleteSeries)
	mux.HandleFunc("POST /api/library/movies/{id}/toggle", libraryHandler.ToggleMovie)
	mux.HandleFunc("POST /api/episodes/{id}/toggle", libraryHandler.ToggleEpisode)
	mux.HandleFunc("POST /api/library/series/{id}/favorite", libraryHandler.SetFavorite)
	mux.HandleFunc("POST /api/library/series/{id}/archive", libraryHandler.SetArchived)

	browseHandler := handlers.NewBrowseHandler(s.metadata, s.logger)
	mux.HandleFunc("GET /api/discover", browseHandler.Discover)
	mux.HandleFunc("GET /api/trending", browseHandler.Trending)
	mux.HandleFunc("GET /api/search", browseHandler.Search)

	refreshHandler := handlers.NewRefreshHandler(s.refreshCtrl, s.logger)
	mux.HandleFunc("POST /api/refresh", refreshHandler.ServeHTTP)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
