// Package jobs runs the scheduled maintenance work: the nightly retention
// sweep over old sightings and the periodic eviction of abandoned report
// sessions.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
)

// Scheduler owns the cron instance.
type Scheduler struct {
	cron      *cron.Cron
	sightings *sightings.Service
	cfg       *config.Config
}

func NewScheduler(sgt *sightings.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sightings: sgt,
		cfg:       cfg,
	}
}

// Start registers the jobs and starts the cron loop.
// Retention runs nightly at 04:00; session sweep every minute.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("0 4 * * *", func() { s.retentionSweep(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("* * * * *", s.sessionSweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Info("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
}

func (s *Scheduler) retentionSweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.Retention)
	removed, err := s.sightings.PruneExpired(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("retention sweep failed")
		return
	}
	log.WithFields(log.Fields{
		"removed": removed,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("retention sweep done")
}

func (s *Scheduler) sessionSweep() {
	if removed := s.sightings.SweepSessions(); removed > 0 {
		log.WithField("removed", removed).Debug("expired report sessions evicted")
	}
}
