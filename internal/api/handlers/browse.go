package handlers

import (
	"net/http"

	"github.com/dcamenisch/tvbuddy/internal/controllers"
	"github.com/dcamenisch/tvbuddy/internal/metadata"
	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// BrowseHandler serves the discover, trending and search lists from the
// metadata cache
type BrowseHandler struct {
	metadata *metadata.Cache
	logger   *logrus.Logger
}

// NewBrowseHandler creates a new browse handler
func NewBrowseHandler(meta *metadata.Cache, logger *logrus.Logger) *BrowseHandler {
	return &BrowseHandler{metadata: meta, logger: logger}
}

// BrowseResponse is one accumulated title list
type BrowseResponse struct {
	Titles []tmdb.Title `json:"titles"`
}

func (h *BrowseHandler) pagedList(kind tmdb.Kind, trending bool) *metadata.PagedList {
	switch {
	case trending && kind == tmdb.KindMovie:
		return h.metadata.TrendingMovies()
	case trending:
		return h.metadata.TrendingSeries()
	case kind == tmdb.KindMovie:
		return h.metadata.DiscoverMovies()
	default:
		return h.metadata.DiscoverSeries()
	}
}

func (h *BrowseHandler) serveList(w http.ResponseWriter, r *http.Request, trending bool) {
	kind := tmdb.KindSeries
	if r.URL.Query().Get("kind") == string(tmdb.KindMovie) {
		kind = tmdb.KindMovie
	}
	list := h.pagedList(kind, trending)

	var titles []tmdb.Title
	if r.URL.Query().Get("next") == "true" {
		titles = list.NextPage(r.Context())
	} else {
		titles = list.Current(r.Context())
	}
	writeJSON(w, BrowseResponse{Titles: titles})
}

// Discover serves the accumulated discover list
func (h *BrowseHandler) Discover(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, false)
}

// Trending serves the accumulated trending list
func (h *BrowseHandler) Trending(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, true)
}

// Search runs a one-shot search session for the given query
func (h *BrowseHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query parameter q", http.StatusBadRequest)
		return
	}
	session := h.metadata.NewSearchSession()
	titles := session.SetQuery(r.Context(), query)
	writeJSON(w, BrowseResponse{Titles: titles})
}

// RefreshHandler triggers a refresh pass on demand
type RefreshHandler struct {
	refreshCtrl *controllers.RefreshController
	logger      *logrus.Logger
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(refreshCtrl *controllers.RefreshController, logger *logrus.Logger) *RefreshHandler {
	return &RefreshHandler{refreshCtrl: refreshCtrl, logger: logger}
}

// ServeHTTP runs a refresh pass synchronously
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.refreshCtrl.RefreshAll(r.Context()); err != nil {
		http.Error(w, "Refresh failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
