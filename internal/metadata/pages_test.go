package metadata

import (
	"context"
	"testing"

	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titleIDs(titles []tmdb.Title) []int {
	ids := make([]int, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	return ids
}

// pagedFake builds a catalog with two discover pages: [1 2] and [2 3].
// Title 2 appears on both pages, as remote lists reshuffle between fetches.
func pagedFake() *fakeCatalog {
	cat := newFakeCatalog()
	for id, name := range map[int]string{1: "One", 2: "Two", 3: "Three"} {
		cat.movies[id] = movieTitle(id, name)
	}
	cat.pages[1] = tmdb.Page{Page: 1, Results: []tmdb.Title{cat.movies[1], cat.movies[2]}, TotalPages: 2}
	cat.pages[2] = tmdb.Page{Page: 2, Results: []tmdb.Title{cat.movies[2], cat.movies[3]}, TotalPages: 2}
	return cat
}

func TestCurrentFetchesFirstPageOnce(t *testing.T) {
	cat := pagedFake()
	c := NewCache(cat, 0, testLogger())
	list := c.DiscoverMovies()

	first := list.Current(context.Background())
	second := list.Current(context.Background())

	assert.Equal(t, []int{1, 2}, titleIDs(first))
	assert.Equal(t, titleIDs(first), titleIDs(second), "repeated reads return the same ordered list")
	assert.Equal(t, 1, cat.callCount("discover"))
}

func TestNextPageAppendsAndDeduplicates(t *testing.T) {
	cat := pagedFake()
	c := NewCache(cat, 0, testLogger())
	list := c.DiscoverMovies()

	require.Equal(t, []int{1, 2}, titleIDs(list.Current(context.Background())))
	assert.Equal(t, []int{1, 2, 3}, titleIDs(list.NextPage(context.Background())),
		"title 2 appears on both pages but is kept once")
}

func TestNextPageStopsAtEndOfList(t *testing.T) {
	cat := pagedFake()
	c := NewCache(cat, 0, testLogger())
	list := c.DiscoverMovies()

	list.Current(context.Background())
	list.NextPage(context.Background())
	fetched := cat.callCount("discover")

	assert.Equal(t, []int{1, 2, 3}, titleIDs(list.NextPage(context.Background())))
	assert.Equal(t, fetched, cat.callCount("discover"), "past the last page no fetch is attempted")
}

func TestNextPageBeforeCurrentLoadsFirstPage(t *testing.T) {
	cat := pagedFake()
	c := NewCache(cat, 0, testLogger())

	assert.Equal(t, []int{1, 2}, titleIDs(c.DiscoverMovies().NextPage(context.Background())))
}

func TestFailedPageFetchLeavesListIntact(t *testing.T) {
	cat := pagedFake()
	c := NewCache(cat, 0, testLogger())
	list := c.TrendingMovies()

	require.Equal(t, []int{1, 2}, titleIDs(list.Current(context.Background())))

	cat.setErr(assert.AnError)
	assert.Equal(t, []int{1, 2}, titleIDs(list.NextPage(context.Background())))

	cat.setErr(nil)
	assert.Equal(t, []int{1, 2, 3}, titleIDs(list.NextPage(context.Background())),
		"a failed advance is retried on the next request")
}

func TestResolveTitlesDropsFailedDetails(t *testing.T) {
	cat := newFakeCatalog()
	cat.movies[1] = movieTitle(1, "One")
	// Title 2 is listed on the page but its detail fetch fails.
	cat.pages[1] = tmdb.Page{Page: 1, Results: []tmdb.Title{cat.movies[1], movieTitle(2, "Two")}, TotalPages: 1}
	c := NewCache(cat, 0, testLogger())

	assert.Equal(t, []int{1}, titleIDs(c.DiscoverMovies().Current(context.Background())))
}

func TestPagedListsAreIndependentPerKindAndFeed(t *testing.T) {
	cat := pagedFake()
	c := NewCache(cat, 0, testLogger())

	c.DiscoverMovies().Current(context.Background())
	assert.Empty(t, c.TrendingMovies().Titles())
	assert.Empty(t, c.DiscoverSeries().Titles())
}
