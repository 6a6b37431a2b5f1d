package controllers

import (
	"context"
	"fmt"

	"github.com/dcamenisch/tvbuddy/internal/metadata"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// SyncController adopts remote titles into the watch graph
type SyncController struct {
	db       *models.Database
	metadata *metadata.Cache
	logger   *logrus.Logger
}

// NewSyncController creates a new sync controller
func NewSyncController(db *models.Database, meta *metadata.Cache, logger *logrus.Logger) *SyncController {
	return &SyncController{
		db:       db,
		metadata: meta,
		logger:   logger,
	}
}

// InsertMovie adopts a movie into the watch graph. An unresolvable id is a
// silent no-op.
func (c *SyncController) InsertMovie(ctx context.Context, id int, watched bool) error {
	title := c.metadata.Movie(ctx, id)
	if title == nil {
		c.logger.WithField("movie_id", id).Debug("Movie not resolvable, skipping insert")
		return nil
	}

	c.db.InsertMovie(&models.TrackedMovie{
		ID:          title.ID,
		Title:       title.DisplayName(),
		ReleaseDate: title.ReleaseTime(),
		Status:      title.Status,
		Runtime:     title.Runtime,
		PosterPath:  title.PosterPath,
		Watched:     watched,
	})
	if err := c.db.Save(); err != nil {
		c.logger.WithError(err).Error("Failed to persist movie")
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"movie_id": id,
		"title":    title.DisplayName(),
	}).Info("Movie added to watch graph")
	return nil
}

// InsertSeries adopts a series into the watch graph using a two-phase
// insert: the series shell is persisted immediately, then every season is
// expanded concurrently and the mapped episodes are attached and persisted
// as a second commit point. A failure during expansion leaves the shell
// adopted; a later refresh pass fills in the missing episodes.
//
// Watched seeding: an episode starts watched when it matches markEpisodeID,
// or when the bulk watched flag is set and the episode is not a special
// (season 0). markEpisodeID zero means none.
func (c *SyncController) InsertSeries(ctx context.Context, id int, watched bool, markEpisodeID int, favorite bool) error {
	title := c.metadata.Series(ctx, id)
	if title == nil {
		c.logger.WithField("series_id", id).Debug("Series not resolvable, skipping insert")
		return nil
	}

	// Phase 1: the shell is visible before any season resolves.
	c.db.InsertSeries(&models.TrackedSeries{
		ID:           title.ID,
		Name:         title.DisplayName(),
		FirstAirDate: title.FirstAirTime(),
		LastAirDate:  title.LastAirTime(),
		Status:       title.Status,
		PosterPath:   title.PosterPath,
		IsFavorite:   favorite,
	})
	if err := c.db.Save(); err != nil {
		c.logger.WithError(err).Error("Failed to persist series shell")
		return fmt.Errorf("failed to persist series shell: %w", err)
	}

	// Phase 2: expand all seasons and attach the episodes.
	remote := c.expandSeasons(ctx, title)
	episodes := make([]*models.TrackedEpisode, 0, len(remote))
	for _, re := range remote {
		episodes = append(episodes, &models.TrackedEpisode{
			ID:            re.ID,
			SeasonNumber:  re.SeasonNumber,
			EpisodeNumber: re.EpisodeNumber,
			Name:          re.Name,
			AirDate:       re.AirTime(),
			Watched:       seedWatched(re, watched, markEpisodeID),
		})
	}
	added := c.db.AttachEpisodes(id, episodes)
	if err := c.db.Save(); err != nil {
		// The shell stays adopted; refresh will retry the expansion.
		c.logger.WithError(err).Error("Failed to persist series episodes")
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"series_id": id,
		"name":      title.DisplayName(),
		"episodes":  added,
	}).Info("Series added to watch graph")
	return nil
}

// expandSeasons resolves every season of a series concurrently and flattens
// the episode lists. A season that fails to resolve contributes nothing; the
// siblings are unaffected.
func (c *SyncController) expandSeasons(ctx context.Context, title *tmdb.Title) []tmdb.Episode {
	results := make([][]tmdb.Episode, len(title.Seasons))

	var wg conc.WaitGroup
	for i := range title.Seasons {
		i := i
		number := title.Seasons[i].SeasonNumber
		wg.Go(func() {
			if season := c.metadata.Season(ctx, title.ID, number); season != nil {
				results[i] = season.Episodes
			}
		})
	}
	wg.Wait()

	var flat []tmdb.Episode
	for _, eps := range results {
		flat = append(flat, eps...)
	}
	return flat
}

func seedWatched(e tmdb.Episode, bulk bool, markEpisodeID int) bool {
	if markEpisodeID != 0 && e.ID == markEpisodeID {
		return true
	}
	return bulk && e.SeasonNumber != 0
}
