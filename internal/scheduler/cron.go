package scheduler

import (
	"context"
	"fmt"

	"github.com/dcamenisch/tvbuddy/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages the periodic catalog refresh
type Scheduler struct {
	cron        *cron.Cron
	refreshCtrl *controllers.RefreshController
	intervalHrs int
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(refreshCtrl *controllers.RefreshController, intervalHours int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		refreshCtrl: refreshCtrl,
		intervalHrs: intervalHours,
		logger:      logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	spec := fmt.Sprintf("@every %dh", s.intervalHrs)
	_, err := s.cron.AddFunc(spec, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("interval_hours", s.intervalHrs).Info("Scheduler started")

	// Run an initial refresh immediately
	go s.runRefresh()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runRefresh executes the refresh job
func (s *Scheduler) runRefresh() {
	s.logger.Info("Running scheduled refresh")
	ctx := context.Background()

	if err := s.refreshCtrl.RefreshAll(ctx); err != nil {
		s.logger.WithError(err).Error("Refresh job failed")
	} else {
		s.logger.Info("Refresh job completed successfully")
	}
}
