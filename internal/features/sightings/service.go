// Package sightings — service.go drives the report flow end to end.
package sightings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/zones"
	"parkwatch.sg/telegram-bot/internal/metrics"
)

// Dispatcher broadcasts an accepted sighting to its zone subscribers.
// Implemented by the alerts package and wired in at startup.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *Sighting) DispatchSummary
}

// nearZoneMaxM is how far a shared GPS point may sit from the nearest zone
// centroid before the flow warns that coverage there is poor.
const nearZoneMaxM = 2000.0

// LocationResult is the outcome of attaching a GPS point to a draft.
type LocationResult struct {
	Zone      string
	DistanceM float64
	// FarFromZone is set when the point is further than nearZoneMaxM from
	// every zone centroid; the report still proceeds with the nearest zone.
	FarFromZone bool
}

// SubmitResult is the outcome of a confirmed report.
type SubmitResult struct {
	Sighting *Sighting
	Summary  DispatchSummary
	// Rejection is set instead of Sighting when validation refused the draft.
	Rejection *Rejection
}

// Service owns the session store, the validator and sighting persistence.
type Service struct {
	repo       *Repository
	sessions   *SessionStore
	validator  *Validator
	dispatcher Dispatcher
	cfg        *config.Config
}

func NewService(repo *Repository, sessions *SessionStore, validator *Validator, cfg *config.Config) *Service {
	return &Service{repo: repo, sessions: sessions, validator: validator, cfg: cfg}
}

// SetDispatcher wires the alert dispatcher in after construction. The alerts
// package renders from sightings, so the dependency has to point this way.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// StartReport opens a fresh session for the actor, replacing any live one.
func (s *Service) StartReport(actorID int64) *Session {
	return s.sessions.Begin(actorID)
}

// Session returns the actor's live session, or nil.
func (s *Service) Session(actorID int64) *Session {
	return s.sessions.Get(actorID)
}

// Cancel ends the actor's session. Returns false when there was none.
func (s *Service) Cancel(actorID int64) bool {
	if s.sessions.Get(actorID) == nil {
		return false
	}
	s.sessions.End(actorID)
	return true
}

// SetLocationGPS attaches a shared GPS point to the draft and resolves it to
// the nearest zone.
func (s *Service) SetLocationGPS(actorID int64, lat, lng float64) (*LocationResult, error) {
	zone, dist := zones.Nearest(lat, lng)
	if zone == "" {
		return nil, fmt.Errorf("no zones configured")
	}

	res := &LocationResult{Zone: zone, DistanceM: dist, FarFromZone: dist > nearZoneMaxM}
	err := s.sessions.Advance(actorID, func(sess *Session) error {
		if sess.State != StateAwaitingLocation {
			return common.ErrWrongState
		}
		sess.Draft.Zone = zone
		sess.Draft.Lat = &lat
		sess.Draft.Lng = &lng
		sess.State = StateAwaitingDescription
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetZone attaches a manually picked zone to the draft. The zone name is
// canonicalized; an unknown zone is rejected.
func (s *Service) SetZone(actorID int64, zone string) error {
	canonical := zones.Canonical(zone)
	if canonical == "" {
		return fmt.Errorf("unknown zone %q", zone)
	}
	return s.sessions.Advance(actorID, func(sess *Session) error {
		if sess.State != StateAwaitingLocation {
			return common.ErrWrongState
		}
		sess.Draft.Zone = canonical
		sess.Draft.Lat = nil
		sess.Draft.Lng = nil
		sess.State = StateAwaitingDescription
		return nil
	})
}

// SetDescription attaches sanitized free text to the draft. Text that
// sanitizes to empty is treated like a skip.
func (s *Service) SetDescription(actorID int64, text string) error {
	clean := SanitizeDescription(text, s.cfg.DescriptionMaxLength)
	return s.sessions.Advance(actorID, func(sess *Session) error {
		if sess.State != StateAwaitingDescription {
			return common.ErrWrongState
		}
		if clean != "" {
			sess.Draft.Description = &clean
		}
		sess.State = StateAwaitingConfirmation
		return nil
	})
}

// SkipDescription moves to confirmation without a description.
func (s *Service) SkipDescription(actorID int64) error {
	return s.sessions.Advance(actorID, func(sess *Session) error {
		if sess.State != StateAwaitingDescription {
			return common.ErrWrongState
		}
		sess.Draft.Description = nil
		sess.State = StateAwaitingConfirmation
		return nil
	})
}

// Confirm validates the draft, persists it on acceptance and fans the alert
// out to the zone's subscribers. On rejection the session stays at the
// confirmation step with its draft intact; only acceptance (or an explicit
// /cancel, or the TTL) ends it.
func (s *Service) Confirm(ctx context.Context, actorID int64, actorName string) (*SubmitResult, error) {
	var draft Draft
	err := s.sessions.Advance(actorID, func(sess *Session) error {
		if sess.State != StateAwaitingConfirmation {
			return common.ErrWrongState
		}
		draft = sess.Draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	rej, err := s.validator.Validate(ctx, actorID, &draft)
	if err != nil {
		return nil, fmt.Errorf("validate draft: %w", err)
	}
	if rej != nil {
		metrics.ReportsRejected.WithLabelValues(string(rej.Reason)).Inc()
		log.WithFields(log.Fields{
			"user_id": actorID,
			"zone":    draft.Zone,
			"reason":  rej.Reason,
		}).Info("report rejected")
		return &SubmitResult{Rejection: rej}, nil
	}

	err = s.sessions.Advance(actorID, func(sess *Session) error {
		if sess.State != StateAwaitingConfirmation {
			return common.ErrWrongState
		}
		sess.State = StateSubmitted
		return nil
	})
	if err != nil {
		return nil, err
	}

	sighting, err := s.repo.Create(ctx, uuid.NewString(), actorID, actorName, draft, time.Now())
	if err != nil {
		return nil, fmt.Errorf("persist sighting: %w", err)
	}
	metrics.ReportsAccepted.Inc()
	log.WithFields(log.Fields{
		"sighting_id": sighting.ID,
		"zone":        sighting.Zone,
		"user_id":     actorID,
	}).Info("sighting accepted")

	var summary DispatchSummary
	if s.dispatcher != nil {
		summary = s.dispatcher.Dispatch(ctx, sighting)
	}
	return &SubmitResult{Sighting: sighting, Summary: summary}, nil
}

// Recent returns the still-active sightings in the given zones, newest first.
func (s *Service) Recent(ctx context.Context, zoneList []string) ([]*Sighting, error) {
	since := time.Now().Add(-s.cfg.SightingExpiry)
	return s.repo.RecentForZones(ctx, zoneList, since)
}

// Get loads one sighting.
func (s *Service) Get(ctx context.Context, id string) (*Sighting, error) {
	return s.repo.Get(ctx, id)
}

// Flagged returns community-flagged sightings for the admin review queue.
func (s *Service) Flagged(ctx context.Context, limit int) ([]*Sighting, error) {
	return s.repo.Flagged(ctx, limit)
}

// Delete removes a sighting (admin) and returns the removed row.
func (s *Service) Delete(ctx context.Context, id string) (*Sighting, error) {
	return s.repo.Delete(ctx, id)
}

// PruneExpired deletes sightings past the retention cutoff.
func (s *Service) PruneExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.PruneExpired(ctx, cutoff)
}

// CountSince counts all sightings at or after since (admin stats).
func (s *Service) CountSince(ctx context.Context, since time.Time) (int, error) {
	return s.repo.CountSince(ctx, since)
}

// TopZonesSince lists the busiest zones at or after since (admin stats).
func (s *Service) TopZonesSince(ctx context.Context, since time.Time, limit int) ([]ZoneStat, error) {
	return s.repo.TopZonesSince(ctx, since, limit)
}

// ByReporter returns a reporter's sightings, newest first (admin lookup).
func (s *Service) ByReporter(ctx context.Context, reporterID int64, limit int) ([]*Sighting, error) {
	return s.repo.ByReporter(ctx, reporterID, limit)
}

// RecentInZone returns a zone's sightings at or after since (admin lookup).
func (s *Service) RecentInZone(ctx context.Context, zone string, since time.Time) ([]*Sighting, error) {
	return s.repo.RecentByZone(ctx, zone, since)
}

// SweepSessions evicts expired sessions; run from the scheduler.
func (s *Service) SweepSessions() int {
	return s.sessions.SweepExpired()
}
