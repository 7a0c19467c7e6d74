// Package scheduler runs the engine's background maintenance jobs:
// sweeping expired cache rows, refreshing drift statuses and reloading
// the ratings snapshot. Nothing here runs on the prediction path.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/cache"
	"github.com/yourusername/match-oracle/internal/calibration"
	"github.com/yourusername/match-oracle/internal/ratings"
)

const jobTimeout = 2 * time.Minute

// Scheduler owns the maintenance cron
type Scheduler struct {
	cron      *cron.Cron
	store     cache.Store
	drift     *calibration.DriftMonitor
	ratings   *ratings.Store
	logger    *logrus.Logger
	mu        sync.Mutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates the maintenance scheduler. Any dependency may be
// nil; its jobs are simply not scheduled.
func NewScheduler(store cache.Store, drift *calibration.DriftMonitor, ratingsStore *ratings.Store, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		store:   store,
		drift:   drift,
		ratings: ratingsStore,
		logger:  logger,
	}
}

// ScheduleCacheSweep schedules bulk deletion of expired cache rows
func (s *Scheduler) ScheduleCacheSweep(cronExpression string) error {
	if s.store == nil {
		return nil
	}
	return s.add(cronExpression, "cache_sweep", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		deleted, err := s.store.Sweep(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Cache sweep failed")
			return
		}
		s.logger.WithField("deleted", deleted).Info("Cache sweep completed")
	})
}

// ScheduleDriftRefresh schedules re-reading of the drift source
func (s *Scheduler) ScheduleDriftRefresh(cronExpression string) error {
	if s.drift == nil {
		return nil
	}
	return s.add(cronExpression, "drift_refresh", func() {
		s.drift.Refresh()
		s.logger.Debug("Drift statuses invalidated")
	})
}

// ScheduleRatingsReload schedules re-reading of the ratings snapshot
func (s *Scheduler) ScheduleRatingsReload(cronExpression string) error {
	if s.ratings == nil {
		return nil
	}
	return s.add(cronExpression, "ratings_reload", func() {
		if err := s.ratings.Reload(); err != nil {
			s.logger.WithError(err).Warn("Ratings reload failed, keeping previous snapshot")
		}
	})
}

func (s *Scheduler) add(cronExpression, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}
	s.jobIDs = append(s.jobIDs, entryID)

	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"cron": cronExpression,
	}).Info("Maintenance job scheduled")
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Maintenance scheduler started")
	return nil
}

// Stop waits for running jobs and stops the cron loop
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Maintenance scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// NextRun returns the earliest next execution across all jobs
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if !entry.Valid() {
			continue
		}
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}
