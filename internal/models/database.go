package models

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database is the watch graph store. It keeps the full graph of tracked
// movies, series and episodes in memory and persists it through bolthold.
//
// All mutations go through a single mutex (one writer at a time, never held
// across network I/O) and update the in-memory graph immediately; Save
// commits everything pending in one bbolt transaction. Until a Save succeeds
// the in-memory graph may be ahead of the durable store, which callers treat
// as best-effort.
type Database struct {
	store *bolthold.Store

	mu       sync.Mutex
	movies   map[int]*TrackedMovie
	series   map[int]*TrackedSeries
	episodes map[int]*TrackedEpisode

	dirtyMovies     map[int]struct{}
	dirtySeries     map[int]struct{}
	dirtyEpisodes   map[int]struct{}
	deletedMovies   map[int]struct{}
	deletedSeries   map[int]struct{}
	deletedEpisodes map[int]struct{}
}

// NewDatabase opens the store file and loads the persisted graph.
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &Database{
		store:           store,
		movies:          make(map[int]*TrackedMovie),
		series:          make(map[int]*TrackedSeries),
		episodes:        make(map[int]*TrackedEpisode),
		dirtyMovies:     make(map[int]struct{}),
		dirtySeries:     make(map[int]struct{}),
		dirtyEpisodes:   make(map[int]struct{}),
		deletedMovies:   make(map[int]struct{}),
		deletedSeries:   make(map[int]struct{}),
		deletedEpisodes: make(map[int]struct{}),
	}
	if err := db.load(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load watch graph: %w", err)
	}
	return db, nil
}

// Close closes the underlying store.
func (db *Database) Close() error {
	return db.store.Close()
}

func (db *Database) load() error {
	var movies []*TrackedMovie
	if err := db.store.Find(&movies, nil); err != nil {
		return err
	}
	for _, m := range movies {
		db.movies[m.ID] = m
	}

	var series []*TrackedSeries
	if err := db.store.Find(&series, nil); err != nil {
		return err
	}
	for _, s := range series {
		db.series[s.ID] = s
	}

	var episodes []*TrackedEpisode
	if err := db.store.Find(&episodes, nil); err != nil {
		return err
	}
	for _, e := range episodes {
		db.episodes[e.ID] = e
	}
	return nil
}

// Save durably commits all pending changes in a single transaction. On
// failure nothing is cleared and the same changes are retried on the next
// call.
func (db *Database) Save() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		for id := range db.deletedEpisodes {
			if err := db.store.TxDelete(tx, id, &TrackedEpisode{}); err != nil && err != bolthold.ErrNotFound {
				return err
			}
		}
		for id := range db.deletedSeries {
			if err := db.store.TxDelete(tx, id, &TrackedSeries{}); err != nil && err != bolthold.ErrNotFound {
				return err
			}
		}
		for id := range db.deletedMovies {
			if err := db.store.TxDelete(tx, id, &TrackedMovie{}); err != nil && err != bolthold.ErrNotFound {
				return err
			}
		}
		for id := range db.dirtyMovies {
			if err := db.store.TxUpsert(tx, id, db.movies[id]); err != nil {
				return err
			}
		}
		for id := range db.dirtySeries {
			if err := db.store.TxUpsert(tx, id, db.series[id]); err != nil {
				return err
			}
		}
		for id := range db.dirtyEpisodes {
			if err := db.store.TxUpsert(tx, id, db.episodes[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save watch graph: %w", err)
	}

	db.dirtyMovies = make(map[int]struct{})
	db.dirtySeries = make(map[int]struct{})
	db.dirtyEpisodes = make(map[int]struct{})
	db.deletedMovies = make(map[int]struct{})
	db.deletedSeries = make(map[int]struct{})
	db.deletedEpisodes = make(map[int]struct{})
	return nil
}

// Movie mutations

// InsertMovie adds a movie to the graph. An already tracked id is left
// untouched so a re-insert never resets watch state.
func (db *Database) InsertMovie(m *TrackedMovie) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.movies[m.ID]; ok {
		return
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	db.movies[m.ID] = m
	db.dirtyMovies[m.ID] = struct{}{}
	delete(db.deletedMovies, m.ID)
}

// DeleteMovie removes a movie from the graph.
func (db *Database) DeleteMovie(id int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.movies[id]; !ok {
		return
	}
	delete(db.movies, id)
	delete(db.dirtyMovies, id)
	db.deletedMovies[id] = struct{}{}
}

// SetMovieWatched sets the watched flag on a movie.
func (db *Database) SetMovieWatched(id int, watched bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.movies[id]
	if !ok {
		return false
	}
	m.Watched = watched
	m.UpdatedAt = time.Now()
	db.dirtyMovies[id] = struct{}{}
	return true
}

// MovieInfo carries the display fields refreshed from the remote catalog.
type MovieInfo struct {
	Title       string
	ReleaseDate *time.Time
	Status      string
	Runtime     int
	PosterPath  string
}

// UpdateMovieInfo overwrites a movie's display fields. The watched flag is
// never touched here.
func (db *Database) UpdateMovieInfo(id int, info MovieInfo) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.movies[id]
	if !ok {
		return false
	}
	m.Title = info.Title
	m.ReleaseDate = info.ReleaseDate
	m.Status = info.Status
	m.Runtime = info.Runtime
	m.PosterPath = info.PosterPath
	m.UpdatedAt = time.Now()
	db.dirtyMovies[id] = struct{}{}
	return true
}

// Series mutations

// InsertSeries adds a series shell to the graph. An already tracked id is
// left untouched.
func (db *Database) InsertSeries(s *TrackedSeries) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.series[s.ID]; ok {
		return
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	db.series[s.ID] = s
	db.dirtySeries[s.ID] = struct{}{}
	delete(db.deletedSeries, s.ID)
}

// DeleteSeries removes a series and cascades to every owned episode.
func (db *Database) DeleteSeries(id int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.series[id]; !ok {
		return
	}
	for eid, e := range db.episodes {
		if e.SeriesID != id {
			continue
		}
		delete(db.episodes, eid)
		delete(db.dirtyEpisodes, eid)
		db.deletedEpisodes[eid] = struct{}{}
	}
	delete(db.series, id)
	delete(db.dirtySeries, id)
	db.deletedSeries[id] = struct{}{}
}

// SetSeriesFavorite sets the favorite flag on a series.
func (db *Database) SetSeriesFavorite(id int, favorite bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.series[id]
	if !ok {
		return false
	}
	s.IsFavorite = favorite
	s.UpdatedAt = time.Now()
	db.dirtySeries[id] = struct{}{}
	return true
}

// SetSeriesArchived sets the archived flag on a series.
func (db *Database) SetSeriesArchived(id int, archived bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.series[id]
	if !ok {
		return false
	}
	s.IsArchived = archived
	s.UpdatedAt = time.Now()
	db.dirtySeries[id] = struct{}{}
	return true
}

// SeriesInfo carries the display fields refreshed from the remote catalog.
type SeriesInfo struct {
	Name         string
	FirstAirDate *time.Time
	LastAirDate  *time.Time
	Status       string
	PosterPath   string
}

// UpdateSeriesInfo overwrites a series' display fields. Watch state and the
// derived aggregates are never touched here.
func (db *Database) UpdateSeriesInfo(id int, info SeriesInfo) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.series[id]
	if !ok {
		return false
	}
	s.Name = info.Name
	s.FirstAirDate = info.FirstAirDate
	s.LastAirDate = info.LastAirDate
	s.Status = info.Status
	s.PosterPath = info.PosterPath
	s.UpdatedAt = time.Now()
	db.dirtySeries[id] = struct{}{}
	return true
}

// Episode mutations

// AttachEpisodes attaches episodes to their owning series and recomputes the
// series aggregates. Episodes whose (season, episode) pair already exists in
// the series are skipped, as is any episode whose id is already taken
// elsewhere in the graph (remote id reuse). Returns how many were added.
func (db *Database) AttachEpisodes(seriesID int, eps []*TrackedEpisode) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.series[seriesID]
	if !ok {
		return 0
	}

	taken := make(map[[2]int]struct{})
	for _, e := range db.episodes {
		if e.SeriesID == seriesID {
			taken[[2]int{e.SeasonNumber, e.EpisodeNumber}] = struct{}{}
		}
	}

	added := 0
	now := time.Now()
	for _, e := range eps {
		key := [2]int{e.SeasonNumber, e.EpisodeNumber}
		if _, dup := taken[key]; dup {
			continue
		}
		if _, dup := db.episodes[e.ID]; dup {
			continue
		}
		e.SeriesID = seriesID
		e.CreatedAt = now
		e.UpdatedAt = now
		db.episodes[e.ID] = e
		db.dirtyEpisodes[e.ID] = struct{}{}
		delete(db.deletedEpisodes, e.ID)
		taken[key] = struct{}{}
		added++
	}
	if added > 0 {
		db.recomputeAggregates(s)
	}
	return added
}

// ToggleEpisodeWatched flips an episode's watched flag and recomputes the
// owning series' aggregates before returning. An unknown id or an episode
// without an owner is a safe no-op for the aggregate step.
func (db *Database) ToggleEpisodeWatched(id int) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.episodes[id]
	if !ok {
		return false
	}
	e.Watched = !e.Watched
	e.UpdatedAt = time.Now()
	db.dirtyEpisodes[id] = struct{}{}
	if s, attached := db.series[e.SeriesID]; attached {
		db.recomputeAggregates(s)
	}
	return true
}

// SetEpisodeWatched sets an episode's watched flag and recomputes the owning
// series' aggregates.
func (db *Database) SetEpisodeWatched(id int, watched bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.episodes[id]
	if !ok {
		return false
	}
	if e.Watched != watched {
		e.Watched = watched
		e.UpdatedAt = time.Now()
		db.dirtyEpisodes[id] = struct{}{}
	}
	if s, attached := db.series[e.SeriesID]; attached {
		db.recomputeAggregates(s)
	}
	return true
}

// EpisodeInfo carries the display fields refreshed from the remote catalog.
type EpisodeInfo struct {
	Name    string
	AirDate *time.Time
}

// UpdateEpisodeInfo overwrites an episode's display fields, never the
// watched flag.
func (db *Database) UpdateEpisodeInfo(id int, info EpisodeInfo) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.episodes[id]
	if !ok {
		return false
	}
	e.Name = info.Name
	e.AirDate = info.AirDate
	e.UpdatedAt = time.Now()
	db.dirtyEpisodes[id] = struct{}{}
	return true
}

// recomputeAggregates rederives startedWatching and finishedWatching from the
// owned episodes. Specials (season 0) never block finished and a watched
// special alone does not mark the series started. Caller holds db.mu.
func (db *Database) recomputeAggregates(s *TrackedSeries) {
	started := false
	finished := true
	for _, e := range db.episodes {
		if e.SeriesID != s.ID {
			continue
		}
		if e.Watched && e.SeasonNumber != 0 {
			started = true
		}
		if !e.Watched && e.SeasonNumber != 0 {
			finished = false
		}
	}
	if started != s.StartedWatching || finished != s.FinishedWatching {
		s.StartedWatching = started
		s.FinishedWatching = finished
		s.UpdatedAt = time.Now()
		db.dirtySeries[s.ID] = struct{}{}
	}
}

// Read accessors. All return copies so callers never alias graph state.

// GetMovie returns a tracked movie by id.
func (db *Database) GetMovie(id int) (TrackedMovie, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.movies[id]
	if !ok {
		return TrackedMovie{}, false
	}
	return *m, true
}

// GetSeries returns a tracked series by id.
func (db *Database) GetSeries(id int) (TrackedSeries, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.series[id]
	if !ok {
		return TrackedSeries{}, false
	}
	return *s, true
}

// GetEpisode returns a tracked episode by id.
func (db *Database) GetEpisode(id int) (TrackedEpisode, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.episodes[id]
	if !ok {
		return TrackedEpisode{}, false
	}
	return *e, true
}

// AllMovies returns every tracked movie, sorted by title.
func (db *Database) AllMovies() []TrackedMovie {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]TrackedMovie, 0, len(db.movies))
	for _, m := range db.movies {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

// AllSeries returns every tracked series, sorted by name.
func (db *Database) AllSeries() []TrackedSeries {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]TrackedSeries, 0, len(db.series))
	for _, s := range db.series {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// AllEpisodes returns every tracked episode across all series.
func (db *Database) AllEpisodes() []TrackedEpisode {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]TrackedEpisode, 0, len(db.episodes))
	for _, e := range db.episodes {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EpisodesBySeries returns the episodes owned by a series, ordered by
// (season, episode).
func (db *Database) EpisodesBySeries(seriesID int) []TrackedEpisode {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []TrackedEpisode
	for _, e := range db.episodes {
		if e.SeriesID == seriesID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeasonNumber != out[j].SeasonNumber {
			return out[i].SeasonNumber < out[j].SeasonNumber
		}
		return out[i].EpisodeNumber < out[j].EpisodeNumber
	})
	return out
}

// UnwatchedCount returns how many regular (non-special) episodes of a series
// are still unwatched.
func (db *Database) UnwatchedCount(seriesID int) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for _, e := range db.episodes {
		if e.SeriesID == seriesID && !e.Watched && e.SeasonNumber != 0 {
			count++
		}
	}
	return count
}
