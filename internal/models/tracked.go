package models

import "time"

// TrackedMovie is a movie the user follows. The ID is the remote catalog id.
type TrackedMovie struct {
	ID          int `boltholdKey:"ID"`
	Title       string
	ReleaseDate *time.Time // nil when the catalog has not announced one
	Status      string
	Runtime     int
	PosterPath  string
	Watched     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackedSeries is a series the user follows. It owns its TrackedEpisodes:
// deleting the series cascades to every episode with a matching SeriesID.
//
// StartedWatching and FinishedWatching are derived from the owned episodes
// and are recomputed by the store on every episode mutation. They are never
// set directly.
type TrackedSeries struct {
	ID           int `boltholdKey:"ID"`
	Name         string
	FirstAirDate *time.Time
	LastAirDate  *time.Time
	Status       string
	PosterPath   string

	StartedWatching  bool
	FinishedWatching bool
	IsFavorite       bool
	IsArchived       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackedEpisode is one episode of a tracked series. SeriesID is zero until
// the episode is attached to its owner. The pair (SeasonNumber, EpisodeNumber)
// is unique within a series and is the merge key during refresh.
type TrackedEpisode struct {
	ID            int `boltholdKey:"ID"`
	SeriesID      int `boltholdIndex:"SeriesID"`
	SeasonNumber  int
	EpisodeNumber int
	Name          string
	AirDate       *time.Time // nil for unannounced episodes
	Watched       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MediaItem is the capability shared by everything that can be shown as a
// poster row: tracked entities, remote titles and people.
type MediaItem interface {
	MediaID() int
	DisplayName() string
	PosterImagePath() string
}

func (m *TrackedMovie) MediaID() int             { return m.ID }
func (m *TrackedMovie) DisplayName() string      { return m.Title }
func (m *TrackedMovie) PosterImagePath() string  { return m.PosterPath }
func (s *TrackedSeries) MediaID() int            { return s.ID }
func (s *TrackedSeries) DisplayName() string     { return s.Name }
func (s *TrackedSeries) PosterImagePath() string { return s.PosterPath }

// Airs reports whether the episode already has an announced air date in the
// past. Episodes with no air date, or a future one, still change remotely and
// are re-fetched during refresh.
func (e *TrackedEpisode) Airs(now time.Time) bool {
	return e.AirDate != nil && e.AirDate.Before(now)
}

// Released reports whether the movie's release date is known and in the past.
func (m *TrackedMovie) Released(now time.Time) bool {
	return m.ReleaseDate != nil && m.ReleaseDate.Before(now)
}
