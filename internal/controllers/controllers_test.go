package controllers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dcamenisch/tvbuddy/internal/metadata"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// catalogStub is an in-memory remote catalog for controller tests. Season
// fetches can be gated so a test can observe the graph mid-expansion.
type catalogStub struct {
	mu sync.Mutex

	movies  map[int]tmdb.Title
	series  map[int]tmdb.Title
	seasons map[[2]int]tmdb.Season

	seasonEntered chan struct{} // closed on the first Season call when gated
	seasonRelease chan struct{} // Season calls block on this when gated
	gateOnce      sync.Once

	calls map[string]int
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		movies:  make(map[int]tmdb.Title),
		series:  make(map[int]tmdb.Title),
		seasons: make(map[[2]int]tmdb.Season),
		calls:   make(map[string]int),
	}
}

func (c *catalogStub) gateSeasons() {
	c.seasonEntered = make(chan struct{})
	c.seasonRelease = make(chan struct{})
}

func (c *catalogStub) count(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
}

func (c *catalogStub) callCount(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *catalogStub) Movie(ctx context.Context, id int) (*tmdb.Title, error) {
	c.count("movie")
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d not found", id)
	}
	return &t, nil
}

func (c *catalogStub) Series(ctx context.Context, id int) (*tmdb.Title, error) {
	c.count("series")
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.series[id]
	if !ok {
		return nil, fmt.Errorf("series %d not found", id)
	}
	return &t, nil
}

func (c *catalogStub) Season(ctx context.Context, seriesID, seasonNumber int) (*tmdb.Season, error) {
	c.count("season")
	if c.seasonRelease != nil {
		c.gateOnce.Do(func() { close(c.seasonEntered) })
		<-c.seasonRelease
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.seasons[[2]int{seriesID, seasonNumber}]
	if !ok {
		return nil, fmt.Errorf("season %d/%d not found", seriesID, seasonNumber)
	}
	return &s, nil
}

func (c *catalogStub) Episode(ctx context.Context, seriesID, seasonNumber, episodeNumber int) (*tmdb.Episode, error) {
	c.count("episode")
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.seasons[[2]int{seriesID, seasonNumber}]
	if !ok {
		return nil, fmt.Errorf("season %d/%d not found", seriesID, seasonNumber)
	}
	for _, e := range s.Episodes {
		if e.EpisodeNumber == episodeNumber {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("episode %d/%d/%d not found", seriesID, seasonNumber, episodeNumber)
}

func (c *catalogStub) Images(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Images, error) {
	return &tmdb.Images{}, nil
}

func (c *catalogStub) Credits(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Credits, error) {
	return &tmdb.Credits{}, nil
}

func (c *catalogStub) Recommendations(ctx context.Context, kind tmdb.Kind, id int) ([]tmdb.Title, error) {
	return nil, nil
}

func (c *catalogStub) Discover(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error) {
	return &tmdb.Page{Page: page, TotalPages: page}, nil
}

func (c *catalogStub) Trending(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error) {
	return &tmdb.Page{Page: page, TotalPages: page}, nil
}

func (c *catalogStub) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	return &tmdb.Page{Page: page, TotalPages: page}, nil
}

func (c *catalogStub) Person(ctx context.Context, id int) (*tmdb.Person, error) {
	return nil, fmt.Errorf("person %d not found", id)
}

// addSeries registers a series with the given seasons. Episode ids are
// seriesID*1000 + seasonNumber*100 + episodeNumber.
func (c *catalogStub) addSeries(id int, name, lastAirDate string, seasons map[int]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	title := tmdb.Title{ID: id, Name: name, LastAirDate: lastAirDate, Status: "Returning Series"}
	for num, episodes := range seasons {
		season := tmdb.Season{ID: id*10 + num, SeasonNumber: num}
		for e := 1; e <= episodes; e++ {
			season.Episodes = append(season.Episodes, tmdb.Episode{
				ID:            episodeID(id, num, e),
				SeasonNumber:  num,
				EpisodeNumber: e,
				Name:          fmt.Sprintf("S%02dE%02d", num, e),
			})
		}
		c.seasons[[2]int{id, num}] = season
		title.Seasons = append(title.Seasons, tmdb.SeasonRef{SeasonNumber: num, EpisodeCount: episodes})
	}
	c.series[id] = title
}

func episodeID(seriesID, season, episode int) int {
	return seriesID*1000 + season*100 + episode
}

func movieStub(id int, title, releaseDate string) tmdb.Title {
	return tmdb.Title{ID: id, Title: title, ReleaseDate: releaseDate, Status: "Released", Runtime: 120}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fixture struct {
	db      *models.Database
	catalog *catalogStub
	meta    *metadata.Cache
	sync    *SyncController
	refresh *RefreshController
	library *LibraryController
	state   *RefreshState
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := quietLogger()
	catalog := newCatalogStub()
	meta := metadata.NewCache(catalog, 0, logger)
	state := NewRefreshState()
	return &fixture{
		db:      db,
		catalog: catalog,
		meta:    meta,
		sync:    NewSyncController(db, meta, logger),
		refresh: NewRefreshController(db, meta, state, logger),
		library: NewLibraryController(db, logger),
		state:   state,
	}
}
