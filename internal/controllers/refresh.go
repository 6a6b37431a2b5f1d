package controllers

import (
	"context"
	"time"

	"github.com/dcamenisch/tvbuddy/internal/metadata"
	"github.com/dcamenisch/tvbuddy/internal/models"
	"github.com/sirupsen/logrus"
)

// RefreshController reconciles the watch graph against the remote catalog.
// A single entity failing to fetch never aborts the pass; only a failed
// persist does.
type RefreshController struct {
	db       *models.Database
	metadata *metadata.Cache
	state    *RefreshState
	logger   *logrus.Logger
}

// NewRefreshController creates a new refresh controller
func NewRefreshController(db *models.Database, meta *metadata.Cache, state *RefreshState, logger *logrus.Logger) *RefreshController {
	return &RefreshController{
		db:       db,
		metadata: meta,
		state:    state,
		logger:   logger,
	}
}

// RefreshAll runs one full reconciliation pass: unreleased movies, all
// tracked series (season reconcile only on a remote schedule change) and
// episodes that have not aired yet. Persists once at the end and records the
// completion time on success.
func (c *RefreshController) RefreshAll(ctx context.Context) error {
	c.logger.Info("Starting catalog refresh")
	now := time.Now()

	c.refreshMovies(ctx, now)
	c.refreshSeries(ctx)
	c.refreshUpcomingEpisodes(ctx, now)

	if err := c.db.Save(); err != nil {
		c.logger.WithError(err).Error("Failed to persist refresh results")
		return err
	}
	c.state.MarkCompleted(time.Now())
	c.logger.Info("Catalog refresh completed")
	return nil
}

// refreshMovies re-fetches every movie whose release date is unknown or in
// the future and overwrites its display fields. Watched flags are never
// touched.
func (c *RefreshController) refreshMovies(ctx context.Context, now time.Time) {
	for _, m := range c.db.AllMovies() {
		if m.Released(now) {
			continue
		}
		title := c.metadata.RefreshMovie(ctx, m.ID)
		if title == nil {
			continue
		}
		c.db.UpdateMovieInfo(m.ID, models.MovieInfo{
			Title:       title.DisplayName(),
			ReleaseDate: title.ReleaseTime(),
			Status:      title.Status,
			Runtime:     title.Runtime,
			PosterPath:  title.PosterPath,
		})
	}
}

// refreshSeries re-fetches every tracked series and reconciles its seasons
// only when the remote last air date is strictly newer than the stored one.
func (c *RefreshController) refreshSeries(ctx context.Context) {
	for _, s := range c.db.AllSeries() {
		title := c.metadata.RefreshSeries(ctx, s.ID)
		if title == nil {
			continue
		}

		remoteLast := title.LastAirTime()
		scheduleChanged := remoteLast != nil && (s.LastAirDate == nil || remoteLast.After(*s.LastAirDate))

		c.db.UpdateSeriesInfo(s.ID, models.SeriesInfo{
			Name:         title.DisplayName(),
			FirstAirDate: title.FirstAirTime(),
			LastAirDate:  remoteLast,
			Status:       title.Status,
			PosterPath:   title.PosterPath,
		})

		if !scheduleChanged {
			continue
		}

		added := 0
		for _, ref := range title.Seasons {
			season := c.metadata.RefreshSeason(ctx, s.ID, ref.SeasonNumber)
			if season == nil {
				continue
			}

			existing := make(map[[2]int]struct{})
			for _, e := range c.db.EpisodesBySeries(s.ID) {
				existing[[2]int{e.SeasonNumber, e.EpisodeNumber}] = struct{}{}
			}

			var fresh []*models.TrackedEpisode
			for _, re := range season.Episodes {
				if _, ok := existing[[2]int{re.SeasonNumber, re.EpisodeNumber}]; ok {
					continue
				}
				fresh = append(fresh, &models.TrackedEpisode{
					ID:            re.ID,
					SeasonNumber:  re.SeasonNumber,
					EpisodeNumber: re.EpisodeNumber,
					Name:          re.Name,
					AirDate:       re.AirTime(),
					Watched:       false,
				})
			}
			added += c.db.AttachEpisodes(s.ID, fresh)
		}
		if added > 0 {
			c.logger.WithFields(logrus.Fields{
				"series_id": s.ID,
				"name":      s.Name,
				"episodes":  added,
			}).Info("New episodes discovered")
		}
	}
}

// refreshUpcomingEpisodes re-fetches every episode whose air date is unknown
// or in the future and overwrites its display fields.
func (c *RefreshController) refreshUpcomingEpisodes(ctx context.Context, now time.Time) {
	for _, e := range c.db.AllEpisodes() {
		if e.Airs(now) {
			continue
		}
		remote := c.metadata.RefreshEpisode(ctx, e.SeriesID, e.SeasonNumber, e.EpisodeNumber)
		if remote == nil {
			continue
		}
		c.db.UpdateEpisodeInfo(e.ID, models.EpisodeInfo{
			Name:    remote.Name,
			AirDate: remote.AirTime(),
		})
	}
}
