package controllers

import (
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/sirupsen/logrus"
)

// LibraryController handles direct user actions on the watch graph. Every
// action mutates in memory and then saves; a failed save is logged and
// reported but the in-memory change stands until the next successful save.
type LibraryController struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewLibraryController creates a new library controller
func NewLibraryController(db *models.Database, logger *logrus.Logger) *LibraryController {
	return &LibraryController{db: db, logger: logger}
}

// ToggleEpisodeWatched flips an episode's watched flag. Unknown ids are a
// safe no-op.
func (c *LibraryController) ToggleEpisodeWatched(id int) error {
	if !c.db.ToggleEpisodeWatched(id) {
		c.logger.WithField("episode_id", id).Debug("Toggle on unknown episode ignored")
		return nil
	}
	return c.save()
}

// ToggleMovieWatched flips a movie's watched flag.
func (c *LibraryController) ToggleMovieWatched(id int) error {
	m, ok := c.db.GetMovie(id)
	if !ok {
		return nil
	}
	c.db.SetMovieWatched(id, !m.Watched)
	return c.save()
}

// SetSeasonWatched marks every episode of one season watched or unwatched.
func (c *LibraryController) SetSeasonWatched(seriesID, seasonNumber int, watched bool) error {
	for _, e := range c.db.EpisodesBySeries(seriesID) {
		if e.SeasonNumber == seasonNumber {
			c.db.SetEpisodeWatched(e.ID, watched)
		}
	}
	return c.save()
}

// SetSeriesFavorite sets the favorite flag on a series.
func (c *LibraryController) SetSeriesFavorite(id int, favorite bool) error {
	if !c.db.SetSeriesFavorite(id, favorite) {
		return nil
	}
	return c.save()
}

// SetSeriesArchived sets the archived flag on a series.
func (c *LibraryController) SetSeriesArchived(id int, archived bool) error {
	if !c.db.SetSeriesArchived(id, archived) {
		return nil
	}
	return c.save()
}

// RemoveMovie removes a movie from the watch graph.
func (c *LibraryController) RemoveMovie(id int) error {
	c.db.DeleteMovie(id)
	return c.save()
}

// RemoveSeries removes a series and all of its episodes.
func (c *LibraryController) RemoveSeries(id int) error {
	c.db.DeleteSeries(id)
	return c.save()
}

func (c *LibraryController) save() error {
	if err := c.db.Save(); err != nil {
		c.logger.WithError(err).Error("Failed to persist library change")
		return err
	}
	return nil
}
