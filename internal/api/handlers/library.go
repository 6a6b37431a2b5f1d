package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dcamenisch/tvbuddy/internal/controllers"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/sirupsen/logrus"
)

// LibraryHandler exposes the watch graph and the user actions on it
type LibraryHandler struct {
	db          *models.Database
	syncCtrl    *controllers.SyncController
	libraryCtrl *controllers.LibraryController
	logger      *logrus.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(db *models.Database, syncCtrl *controllers.SyncController, libraryCtrl *controllers.LibraryController, logger *logrus.Logger) *LibraryHandler {
	return &LibraryHandler{
		db:          db,
		syncCtrl:    syncCtrl,
		libraryCtrl: libraryCtrl,
		logger:      logger,
	}
}

// LibraryResponse is the full tracked library
type LibraryResponse struct {
	Movies []models.TrackedMovie  `json:"movies"`
	Series []models.TrackedSeries `json:"series"`
}

// SeriesDetailResponse is one series with its episodes
type SeriesDetailResponse struct {
	Series    models.TrackedSeries    `json:"series"`
	Episodes  []models.TrackedEpisode `json:"episodes"`
	Unwatched int                     `json:"unwatched"`
}

// InsertMovieRequest is the body for adopting a movie
type InsertMovieRequest struct {
	ID      int  `json:"id"`
	Watched bool `json:"watched"`
}

// InsertSeriesRequest is the body for adopting a series
type InsertSeriesRequest struct {
	ID            int  `json:"id"`
	Watched       bool `json:"watched"`
	MarkEpisodeID int  `json:"mark_episode_id"`
	Favorite      bool `json:"favorite"`
}

// List returns all tracked movies and series
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	response := LibraryResponse{
		Movies: h.db.AllMovies(),
		Series: h.db.AllSeries(),
	}
	writeJSON(w, response)
}

// SeriesDetail returns one series with its ordered episode list
func (h *LibraryHandler) SeriesDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	series, found := h.db.GetSeries(id)
	if !found {
		http.Error(w, "Series not found", http.StatusNotFound)
		return
	}
	writeJSON(w, SeriesDetailResponse{
		Series:    series,
		Episodes:  h.db.EpisodesBySeries(id),
		Unwatched: h.db.UnwatchedCount(id),
	})
}

// InsertMovie adopts a movie into the watch graph
func (h *LibraryHandler) InsertMovie(w http.ResponseWriter, r *http.Request) {
	var req InsertMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.syncCtrl.InsertMovie(r.Context(), req.ID, req.Watched); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// InsertSeries adopts a series into the watch graph
func (h *LibraryHandler) InsertSeries(w http.ResponseWriter, r *http.Request) {
	var req InsertSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.syncCtrl.InsertSeries(r.Context(), req.ID, req.Watched, req.MarkEpisodeID, req.Favorite); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// DeleteMovie removes a movie from the watch graph
func (h *LibraryHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.libraryCtrl.RemoveMovie(id); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSeries removes a series and all of its episodes
func (h *LibraryHandler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.libraryCtrl.RemoveSeries(id); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleEpisode flips an episode's watched flag
func (h *LibraryHandler) ToggleEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.libraryCtrl.ToggleEpisodeWatched(id); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleMovie flips a movie's watched flag
func (h *LibraryHandler) ToggleMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.libraryCtrl.ToggleMovieWatched(id); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFavorite sets the favorite flag on a series
func (h *LibraryHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.libraryCtrl.SetSeriesFavorite(id, req.Favorite); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetArchived sets the archived flag on a series
func (h *LibraryHandler) SetArchived(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Archived bool `json:"archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.libraryCtrl.SetSeriesArchived(id, req.Archived); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
