package metadata

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory catalog that counts every fetch.
type fakeCatalog struct {
	mu sync.Mutex

	movies   map[int]tmdb.Title
	series   map[int]tmdb.Title
	seasons  map[[2]int]tmdb.Season
	episodes map[[3]int]tmdb.Episode
	pages    map[int]tmdb.Page // discover/trending/search pages by number
	people   map[int]tmdb.Person

	err error // when set, every fetch fails with it

	calls map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		movies:   make(map[int]tmdb.Title),
		series:   make(map[int]tmdb.Title),
		seasons:  make(map[[2]int]tmdb.Season),
		episodes: make(map[[3]int]tmdb.Episode),
		pages:    make(map[int]tmdb.Page),
		people:   make(map[int]tmdb.Person),
		calls:    make(map[string]int),
	}
}

func (f *fakeCatalog) count(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeCatalog) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeCatalog) Movie(ctx context.Context, id int) (*tmdb.Title, error) {
	if err := f.count("movie"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d not found", id)
	}
	return &t, nil
}

func (f *fakeCatalog) Series(ctx context.Context, id int) (*tmdb.Title, error) {
	if err := f.count("series"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.series[id]
	if !ok {
		return nil, fmt.Errorf("series %d not found", id)
	}
	return &t, nil
}

func (f *fakeCatalog) Season(ctx context.Context, seriesID, seasonNumber int) (*tmdb.Season, error) {
	if err := f.count("season"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seasons[[2]int{seriesID, seasonNumber}]
	if !ok {
		return nil, fmt.Errorf("season %d/%d not found", seriesID, seasonNumber)
	}
	return &s, nil
}

func (f *fakeCatalog) Episode(ctx context.Context, seriesID, seasonNumber, episodeNumber int) (*tmdb.Episode, error) {
	if err := f.count("episode"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.episodes[[3]int{seriesID, seasonNumber, episodeNumber}]
	if !ok {
		return nil, fmt.Errorf("episode %d/%d/%d not found", seriesID, seasonNumber, episodeNumber)
	}
	return &e, nil
}

func (f *fakeCatalog) Images(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Images, error) {
	if err := f.count("images"); err != nil {
		return nil, err
	}
	return &tmdb.Images{}, nil
}

func (f *fakeCatalog) Credits(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Credits, error) {
	if err := f.count("credits"); err != nil {
		return nil, err
	}
	return &tmdb.Credits{}, nil
}

func (f *fakeCatalog) Recommendations(ctx context.Context, kind tmdb.Kind, id int) ([]tmdb.Title, error) {
	if err := f.count("recommendations"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeCatalog) Discover(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error) {
	if err := f.count("discover"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("page %d not found", page)
	}
	return &p, nil
}

func (f *fakeCatalog) Trending(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error) {
	if err := f.count("trending"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("page %d not found", page)
	}
	return &p, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	if err := f.count("search"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("page %d not found", page)
	}
	return &p, nil
}

func (f *fakeCatalog) Person(ctx context.Context, id int) (*tmdb.Person, error) {
	if err := f.count("person"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d not found", id)
	}
	return &p, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func movieTitle(id int, name string) tmdb.Title {
	return tmdb.Title{ID: id, Title: name, MediaType: string(tmdb.KindMovie)}
}

func TestMovieIsMemoized(t *testing.T) {
	cat := newFakeCatalog()
	cat.movies[7] = movieTitle(7, "Movie Seven")
	c := NewCache(cat, 0, testLogger())

	first := c.Movie(context.Background(), 7)
	require.NotNil(t, first)
	second := c.Movie(context.Background(), 7)
	require.NotNil(t, second)

	assert.Equal(t, 1, cat.callCount("movie"), "second read must be served from cache")
	assert.Same(t, first, second)
}

func TestFailedFetchIsNotCached(t *testing.T) {
	cat := newFakeCatalog()
	c := NewCache(cat, 0, testLogger())

	assert.Nil(t, c.Movie(context.Background(), 7), "missing remote entity surfaces as nil")
	assert.Equal(t, 1, cat.callCount("movie"))

	// The failure was not cached; the next call retries the fetch.
	cat.mu.Lock()
	cat.movies[7] = movieTitle(7, "Movie Seven")
	cat.mu.Unlock()

	assert.NotNil(t, c.Movie(context.Background(), 7))
	assert.Equal(t, 2, cat.callCount("movie"))
}

func TestCancelledFetchSurfacesAsNil(t *testing.T) {
	cat := newFakeCatalog()
	cat.setErr(context.Canceled)
	c := NewCache(cat, 0, testLogger())

	assert.Nil(t, c.Movie(context.Background(), 7))

	cat.setErr(nil)
	cat.mu.Lock()
	cat.movies[7] = movieTitle(7, "Movie Seven")
	cat.mu.Unlock()
	assert.NotNil(t, c.Movie(context.Background(), 7), "a cancelled fetch must not poison the cache")
}

func TestSeasonAndEpisodeCompositeKeys(t *testing.T) {
	cat := newFakeCatalog()
	cat.seasons[[2]int{1, 1}] = tmdb.Season{ID: 100, SeasonNumber: 1}
	cat.seasons[[2]int{2, 1}] = tmdb.Season{ID: 200, SeasonNumber: 1}
	c := NewCache(cat, 0, testLogger())

	a := c.Season(context.Background(), 1, 1)
	b := c.Season(context.Background(), 2, 1)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, a.ID, b.ID, "season keys include the series id")
	assert.Equal(t, 2, cat.callCount("season"))
}

func TestRefreshMovieReplacesCachedEntry(t *testing.T) {
	cat := newFakeCatalog()
	cat.movies[7] = movieTitle(7, "Old Name")
	c := NewCache(cat, 0, testLogger())

	require.Equal(t, "Old Name", c.Movie(context.Background(), 7).Title)

	cat.mu.Lock()
	cat.movies[7] = movieTitle(7, "New Name")
	cat.mu.Unlock()

	// A plain read still serves the memoized value; Refresh replaces it.
	assert.Equal(t, "Old Name", c.Movie(context.Background(), 7).Title)
	require.NotNil(t, c.RefreshMovie(context.Background(), 7))
	assert.Equal(t, "New Name", c.Movie(context.Background(), 7).Title)
}

func TestPosterURLResolution(t *testing.T) {
	cat := newFakeCatalog()
	c := NewCache(cat, 0, testLogger())

	title := movieTitle(7, "Movie Seven")
	title.PosterPath = "/abc123.jpg"

	u := c.PosterURL(&title)
	require.NotNil(t, u)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc123.jpg", u.String())

	// Memoized on second resolution.
	assert.Same(t, u, c.PosterURL(&title))

	noPoster := movieTitle(8, "No Poster")
	assert.Nil(t, c.PosterURL(&noPoster))
}
