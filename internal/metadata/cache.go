// Package metadata is the memoizing read-through cache in front of the
// remote catalog. Every entity kind is fetched lazily, stored by id and
// served from memory afterwards. Fetch failures surface as nil, are never
// cached and are retried on the next call.
package metadata

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/dcamenisch/tvbuddy/internal/cache"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// Catalog is the remote catalog client consumed by the cache. Errors cross
// this boundary as Go errors; the cache converts them to absence.
type Catalog interface {
	Movie(ctx context.Context, id int) (*tmdb.Title, error)
	Series(ctx context.Context, id int) (*tmdb.Title, error)
	Season(ctx context.Context, seriesID, seasonNumber int) (*tmdb.Season, error)
	Episode(ctx context.Context, seriesID, seasonNumber, episodeNumber int) (*tmdb.Episode, error)
	Images(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Images, error)
	Credits(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Credits, error)
	Recommendations(ctx context.Context, kind tmdb.Kind, id int) ([]tmdb.Title, error)
	Discover(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error)
	Trending(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error)
	Search(ctx context.Context, query string, page int) (*tmdb.Page, error)
	Person(ctx context.Context, id int) (*tmdb.Person, error)
}

type seasonKey struct {
	seriesID     int
	seasonNumber int
}

type episodeKey struct {
	seriesID      int
	seasonNumber  int
	episodeNumber int
}

// scopedKey namespaces per-title byproducts by catalog kind, since movie and
// series ids are separate id spaces.
type scopedKey struct {
	kind tmdb.Kind
	id   int
}

const (
	posterBaseURL     = "https://image.tmdb.org/t/p/"
	posterSize        = "w500"
	defaultPosterCost = 1 << 20
)

// Cache memoizes remote catalog lookups per entity kind. Concurrent readers
// are safe; writers only add entries, so a single mutex around map access is
// all the locking the maps need. Explicit Refresh* calls made by the refresh
// workflow are the one exception and replace entries in place.
type Cache struct {
	catalog Catalog
	logger  *logrus.Logger

	mu       sync.Mutex
	movies   map[int]*tmdb.Title
	series   map[int]*tmdb.Title
	seasons  map[seasonKey]*tmdb.Season
	episodes map[episodeKey]*tmdb.Episode
	images   map[scopedKey]*tmdb.Images
	credits  map[scopedKey]*tmdb.Credits
	recs     map[scopedKey][]tmdb.Title
	people   map[int]*tmdb.Person

	discoverMovies *PagedList
	discoverSeries *PagedList
	trendingMovies *PagedList
	trendingSeries *PagedList

	posters *cache.Cache[string, *url.URL]
}

// NewCache creates a metadata cache over the given catalog client.
// posterCacheBytes bounds the resolved poster URL cache; zero selects a
// sensible default.
func NewCache(catalog Catalog, posterCacheBytes int, logger *logrus.Logger) *Cache {
	if posterCacheBytes <= 0 {
		posterCacheBytes = defaultPosterCost
	}
	c := &Cache{
		catalog:  catalog,
		logger:   logger,
		movies:   make(map[int]*tmdb.Title),
		series:   make(map[int]*tmdb.Title),
		seasons:  make(map[seasonKey]*tmdb.Season),
		episodes: make(map[episodeKey]*tmdb.Episode),
		images:   make(map[scopedKey]*tmdb.Images),
		credits:  make(map[scopedKey]*tmdb.Credits),
		recs:     make(map[scopedKey][]tmdb.Title),
		people:   make(map[int]*tmdb.Person),
		posters:  cache.New[string, *url.URL](posterCacheBytes),
	}
	c.discoverMovies = newPagedList(c, tmdb.KindMovie, catalog.Discover)
	c.discoverSeries = newPagedList(c, tmdb.KindSeries, catalog.Discover)
	c.trendingMovies = newPagedList(c, tmdb.KindMovie, catalog.Trending)
	c.trendingSeries = newPagedList(c, tmdb.KindSeries, catalog.Trending)
	return c
}

// reportFetchFailure logs a failed fetch. A cancellation means the caller
// abandoned the request and is informational, not an error.
func (c *Cache) reportFetchFailure(err error, fields logrus.Fields) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.logger.WithFields(fields).Info("Fetch abandoned")
		return
	}
	c.logger.WithFields(fields).WithError(err).Error("Fetch failed")
}

// Movie returns the movie title for id, fetching it on first access.
// Returns nil when the remote has none or the fetch failed.
func (c *Cache) Movie(ctx context.Context, id int) *tmdb.Title {
	c.mu.Lock()
	if t, ok := c.movies[id]; ok {
		c.mu.Unlock()
		return t
	}
	c.mu.Unlock()

	t, err := c.catalog.Movie(ctx, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "movie", "id": id})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.movies[id]; ok {
		return cached
	}
	c.movies[id] = t
	return t
}

// Series returns the series title for id, fetching it on first access.
func (c *Cache) Series(ctx context.Context, id int) *tmdb.Title {
	c.mu.Lock()
	if t, ok := c.series[id]; ok {
		c.mu.Unlock()
		return t
	}
	c.mu.Unlock()

	t, err := c.catalog.Series(ctx, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "series", "id": id})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.series[id]; ok {
		return cached
	}
	c.series[id] = t
	return t
}

// Season returns a full season of a series, fetching it on first access.
func (c *Cache) Season(ctx context.Context, seriesID, seasonNumber int) *tmdb.Season {
	key := seasonKey{seriesID, seasonNumber}
	c.mu.Lock()
	if s, ok := c.seasons[key]; ok {
		c.mu.Unlock()
		return s
	}
	c.mu.Unlock()

	s, err := c.catalog.Season(ctx, seriesID, seasonNumber)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "season", "series_id": seriesID, "season": seasonNumber})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.seasons[key]; ok {
		return cached
	}
	c.seasons[key] = s
	return s
}

// Episode returns a single episode, fetching it on first access.
func (c *Cache) Episode(ctx context.Context, seriesID, seasonNumber, episodeNumber int) *tmdb.Episode {
	key := episodeKey{seriesID, seasonNumber, episodeNumber}
	c.mu.Lock()
	if e, ok := c.episodes[key]; ok {
		c.mu.Unlock()
		return e
	}
	c.mu.Unlock()

	e, err := c.catalog.Episode(ctx, seriesID, seasonNumber, episodeNumber)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{
			"kind": "episode", "series_id": seriesID, "season": seasonNumber, "episode": episodeNumber,
		})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.episodes[key]; ok {
		return cached
	}
	c.episodes[key] = e
	return e
}

// Images returns the artwork set for a title, fetching it on first access.
func (c *Cache) Images(ctx context.Context, kind tmdb.Kind, id int) *tmdb.Images {
	key := scopedKey{kind, id}
	c.mu.Lock()
	if img, ok := c.images[key]; ok {
		c.mu.Unlock()
		return img
	}
	c.mu.Unlock()

	img, err := c.catalog.Images(ctx, kind, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "images", "media": kind, "id": id})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.images[key]; ok {
		return cached
	}
	c.images[key] = img
	return img
}

// Credits returns cast and crew for a title, fetching them on first access.
func (c *Cache) Credits(ctx context.Context, kind tmdb.Kind, id int) *tmdb.Credits {
	key := scopedKey{kind, id}
	c.mu.Lock()
	if cr, ok := c.credits[key]; ok {
		c.mu.Unlock()
		return cr
	}
	c.mu.Unlock()

	cr, err := c.catalog.Credits(ctx, kind, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "credits", "media": kind, "id": id})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.credits[key]; ok {
		return cached
	}
	c.credits[key] = cr
	return cr
}

// Recommendations returns recommended titles for a title, fetching them on
// first access.
func (c *Cache) Recommendations(ctx context.Context, kind tmdb.Kind, id int) []tmdb.Title {
	key := scopedKey{kind, id}
	c.mu.Lock()
	if r, ok := c.recs[key]; ok {
		c.mu.Unlock()
		return r
	}
	c.mu.Unlock()

	r, err := c.catalog.Recommendations(ctx, kind, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "recommendations", "media": kind, "id": id})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.recs[key]; ok {
		return cached
	}
	c.recs[key] = r
	return r
}

// Person returns a person by id, fetching them on first access.
func (c *Cache) Person(ctx context.Context, id int) *tmdb.Person {
	c.mu.Lock()
	if p, ok := c.people[id]; ok {
		c.mu.Unlock()
		return p
	}
	c.mu.Unlock()

	p, err := c.catalog.Person(ctx, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "person", "id": id})
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.people[id]; ok {
		return cached
	}
	c.people[id] = p
	return p
}

// RefreshMovie re-fetches a movie and replaces the cached entry. Used by the
// refresh workflow, which must see current remote state.
func (c *Cache) RefreshMovie(ctx context.Context, id int) *tmdb.Title {
	t, err := c.catalog.Movie(ctx, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "movie", "id": id})
		return nil
	}
	c.mu.Lock()
	c.movies[id] = t
	c.mu.Unlock()
	return t
}

// RefreshSeries re-fetches a series and replaces the cached entry.
func (c *Cache) RefreshSeries(ctx context.Context, id int) *tmdb.Title {
	t, err := c.catalog.Series(ctx, id)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "series", "id": id})
		return nil
	}
	c.mu.Lock()
	c.series[id] = t
	c.mu.Unlock()
	return t
}

// RefreshSeason re-fetches a season and replaces the cached entry.
func (c *Cache) RefreshSeason(ctx context.Context, seriesID, seasonNumber int) *tmdb.Season {
	s, err := c.catalog.Season(ctx, seriesID, seasonNumber)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{"kind": "season", "series_id": seriesID, "season": seasonNumber})
		return nil
	}
	c.mu.Lock()
	c.seasons[seasonKey{seriesID, seasonNumber}] = s
	c.mu.Unlock()
	return s
}

// RefreshEpisode re-fetches an episode and replaces the cached entry.
func (c *Cache) RefreshEpisode(ctx context.Context, seriesID, seasonNumber, episodeNumber int) *tmdb.Episode {
	e, err := c.catalog.Episode(ctx, seriesID, seasonNumber, episodeNumber)
	if err != nil {
		c.reportFetchFailure(err, logrus.Fields{
			"kind": "episode", "series_id": seriesID, "season": seasonNumber, "episode": episodeNumber,
		})
		return nil
	}
	c.mu.Lock()
	c.episodes[episodeKey{seriesID, seasonNumber, episodeNumber}] = e
	c.mu.Unlock()
	return e
}

// Paginated lists

// DiscoverMovies is the accumulated movie discover list.
func (c *Cache) DiscoverMovies() *PagedList { return c.discoverMovies }

// DiscoverSeries is the accumulated series discover list.
func (c *Cache) DiscoverSeries() *PagedList { return c.discoverSeries }

// TrendingMovies is the accumulated movie trending list.
func (c *Cache) TrendingMovies() *PagedList { return c.trendingMovies }

// TrendingSeries is the accumulated series trending list.
func (c *Cache) TrendingSeries() *PagedList { return c.trendingSeries }

// PosterURL resolves the poster URL for any media item and memoizes the
// result in the bounded value cache. Returns nil when the item has no poster.
func (c *Cache) PosterURL(item models.MediaItem) *url.URL {
	path := item.PosterImagePath()
	if path == "" {
		return nil
	}
	if u, ok := c.posters.Get(path); ok {
		return u
	}
	u, err := url.Parse(posterBaseURL + posterSize + path)
	if err != nil {
		return nil
	}
	c.posters.Put(path, u, len(path)+len(u.String()))
	return u
}
