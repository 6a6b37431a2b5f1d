package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dcamenisch/tvbuddy/internal/controllers"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports watch graph totals and the last refresh time
type StatusHandler struct {
	db     *models.Database
	state  *controllers.RefreshState
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, state *controllers.RefreshState, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		state:  state,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Movies          int       `json:"movies"`
	MoviesWatched   int       `json:"movies_watched"`
	Series          int       `json:"series"`
	SeriesStarted   int       `json:"series_started"`
	SeriesFinished  int       `json:"series_finished"`
	Episodes        int       `json:"episodes"`
	EpisodesWatched int       `json:"episodes_watched"`
	LastRefresh     time.Time `json:"last_refresh"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		LastRefresh: h.state.LastRefresh(),
	}

	for _, m := range h.db.AllMovies() {
		response.Movies++
		if m.Watched {
			response.MoviesWatched++
		}
	}
	for _, s := range h.db.AllSeries() {
		response.Series++
		if s.StartedWatching {
			response.SeriesStarted++
		}
		if s.FinishedWatching {
			response.SeriesFinished++
		}
	}
	for _, e := range h.db.AllEpisodes() {
		response.Episodes++
		if e.Watched {
			response.EpisodesWatched++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
