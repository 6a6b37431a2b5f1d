package tmdb

import "time"

// Kind distinguishes the two title namespaces of the catalog. Movie and
// series ids live in separate id spaces and must never share a cache key.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "tv"
)

const dateLayout = "2006-01-02"

// Title is a movie or series as returned by the catalog.
type Title struct {
	ID         int    `json:"id"`
	Title      string `json:"title"` // movies
	Name       string `json:"name"`  // series
	Overview   string `json:"overview"`
	Status     string `json:"status"`
	PosterPath string `json:"poster_path"`
	MediaType  string `json:"media_type"` // set on trending/search results

	// Movie fields
	ReleaseDate string `json:"release_date"`
	Runtime     int    `json:"runtime"`

	// Series fields
	FirstAirDate    string      `json:"first_air_date"`
	LastAirDate     string      `json:"last_air_date"`
	NumberOfSeasons int         `json:"number_of_seasons"`
	Seasons         []SeasonRef `json:"seasons"`
}

// SeasonRef is the per-season summary embedded in a series Title.
type SeasonRef struct {
	SeasonNumber int `json:"season_number"`
	EpisodeCount int `json:"episode_count"`
}

// Season is a full season with its episode list.
type Season struct {
	ID           int       `json:"id"`
	SeasonNumber int       `json:"season_number"`
	Name         string    `json:"name"`
	Episodes     []Episode `json:"episodes"`
}

// Episode is a single episode of a season.
type Episode struct {
	ID            int    `json:"id"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	AirDate       string `json:"air_date"` // empty for unannounced episodes
	StillPath     string `json:"still_path"`
}

// Images holds the artwork paths for a title.
type Images struct {
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

// Image is a single piece of artwork.
type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	VoteAverage float64 `json:"vote_average"`
}

// Credits holds cast and crew for a title.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one cast entry.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

// CrewMember is one crew entry.
type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	ProfilePath string `json:"profile_path"`
}

// Person is a cast or crew member fetched on its own.
type Person struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Biography   string `json:"biography"`
	ProfilePath string `json:"profile_path"`
}

// Page is one page of a paginated title list.
type Page struct {
	Page       int     `json:"page"`
	Results    []Title `json:"results"`
	TotalPages int     `json:"total_pages"`
}

// DisplayName returns the movie title or series name, whichever is set.
func (t *Title) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// MediaID implements the media item capability set.
func (t *Title) MediaID() int { return t.ID }

// PosterImagePath implements the media item capability set.
func (t *Title) PosterImagePath() string { return t.PosterPath }

// Kind reports whether the title is a movie or a series, preferring the
// explicit media_type field set on list results.
func (t *Title) Kind() Kind {
	if t.MediaType == string(KindSeries) || (t.MediaType == "" && t.Title == "") {
		return KindSeries
	}
	return KindMovie
}

// ReleaseTime parses the movie release date, nil when unannounced.
func (t *Title) ReleaseTime() *time.Time { return parseDate(t.ReleaseDate) }

// FirstAirTime parses the series first air date, nil when unannounced.
func (t *Title) FirstAirTime() *time.Time { return parseDate(t.FirstAirDate) }

// LastAirTime parses the series last air date, nil when unannounced.
func (t *Title) LastAirTime() *time.Time { return parseDate(t.LastAirDate) }

// AirTime parses the episode air date, nil when unannounced.
func (e *Episode) AirTime() *time.Time { return parseDate(e.AirDate) }

func (p *Person) MediaID() int            { return p.ID }
func (p *Person) DisplayName() string     { return p.Name }
func (p *Person) PosterImagePath() string { return p.ProfilePath }

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
