package controllers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleEpisodeWatchedUpdatesAggregates(t *testing.T) {
	f := newFixture(t)
	f.catalog.addSeries(100, "The Show", "2021-01-08", map[int]int{1: 2})
	require.NoError(t, f.sync.InsertSeries(context.Background(), 100, false, 0, false))

	require.NoError(t, f.library.ToggleEpisodeWatched(episodeID(100, 1, 1)))
	s, _ := f.db.GetSeries(100)
	assert.True(t, s.StartedWatching)
	assert.False(t, s.FinishedWatching)

	require.NoError(t, f.library.ToggleEpisodeWatched(episodeID(100, 1, 2)))
	s, _ = f.db.GetSeries(100)
	assert.True(t, s.FinishedWatching)
}

func TestToggleUnknownEpisodeIsNoOp(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.library.ToggleEpisodeWatched(999))
}

func TestToggleMovieWatched(t *testing.T) {
	f := newFixture(t)
	f.catalog.movies[7] = movieStub(7, "Movie Seven", "2020-05-01")
	require.NoError(t, f.sync.InsertMovie(context.Background(), 7, false))

	require.NoError(t, f.library.ToggleMovieWatched(7))
	m, _ := f.db.GetMovie(7)
	assert.True(t, m.Watched)

	require.NoError(t, f.library.ToggleMovieWatched(7))
	m, _ = f.db.GetMovie(7)
	assert.False(t, m.Watched)
}

func TestSetSeasonWatchedMarksOnlyThatSeason(t *testing.T) {
	f := newFixture(t)
	f.catalog.addSeries(100, "The Show", "2021-01-08", map[int]int{1: 2, 2: 2})
	require.NoError(t, f.sync.InsertSeries(context.Background(), 100, false, 0, false))

	require.NoError(t, f.library.SetSeasonWatched(100, 1, true))

	for _, e := range f.db.EpisodesBySeries(100) {
		assert.Equal(t, e.SeasonNumber == 1, e.Watched)
	}
	assert.Equal(t, 2, f.db.UnwatchedCount(100))
}

func TestRemoveSeriesCascades(t *testing.T) {
	f := newFixture(t)
	f.catalog.addSeries(100, "The Show", "2021-01-08", map[int]int{1: 2})
	require.NoError(t, f.sync.InsertSeries(context.Background(), 100, false, 0, false))

	require.NoError(t, f.library.RemoveSeries(100))

	_, ok := f.db.GetSeries(100)
	assert.False(t, ok)
	assert.Empty(t, f.db.EpisodesBySeries(100))
	assert.Empty(t, f.db.AllEpisodes())
}

func TestFavoriteAndArchiveFlags(t *testing.T) {
	f := newFixture(t)
	f.catalog.addSeries(100, "The Show", "2021-01-08", map[int]int{1: 1})
	require.NoError(t, f.sync.InsertSeries(context.Background(), 100, false, 0, false))

	require.NoError(t, f.library.SetSeriesFavorite(100, true))
	require.NoError(t, f.library.SetSeriesArchived(100, true))
	s, _ := f.db.GetSeries(100)
	assert.True(t, s.IsFavorite)
	assert.True(t, s.IsArchived)

	assert.NoError(t, f.library.SetSeriesFavorite(404, true), "unknown series is a no-op")
}
