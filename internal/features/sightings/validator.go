// Package sightings — validator.go gates drafts before persistence.
package sightings

import (
	"context"
	"time"

	"parkwatch.sg/telegram-bot/internal/config"
)

// validatorStore is the slice of the repository the validator needs.
type validatorStore interface {
	CountByReporterSince(ctx context.Context, reporterID int64, since time.Time) (int, error)
	OldestByReporterSince(ctx context.Context, reporterID int64, since time.Time) (time.Time, error)
	RecentByZone(ctx context.Context, zone string, since time.Time) ([]*Sighting, error)
}

// Validator applies the rate-limit and duplicate checks to a draft.
// Rate is checked first; a draft never gets both rejections.
type Validator struct {
	store validatorStore
	cfg   *config.Config
	now   func() time.Time
}

func NewValidator(store validatorStore, cfg *config.Config) *Validator {
	return &Validator{store: store, cfg: cfg, now: time.Now}
}

// Validate returns nil when the draft may be persisted, or a Rejection
// explaining the refusal. An error means a storage failure, not a rejection.
func (v *Validator) Validate(ctx context.Context, reporterID int64, d *Draft) (*Rejection, error) {
	now := v.now()

	if rej, err := v.checkRate(ctx, reporterID, now); rej != nil || err != nil {
		return rej, err
	}
	return v.checkDuplicate(ctx, d, now)
}

func (v *Validator) checkRate(ctx context.Context, reporterID int64, now time.Time) (*Rejection, error) {
	windowStart := now.Add(-v.cfg.RateWindow)
	count, err := v.store.CountByReporterSince(ctx, reporterID, windowStart)
	if err != nil {
		return nil, err
	}
	if count < v.cfg.MaxReportsPerWindow {
		return nil, nil
	}

	// Full window: the reporter may retry once the oldest counted report
	// ages out of it.
	oldest, err := v.store.OldestByReporterSince(ctx, reporterID, windowStart)
	if err != nil {
		return nil, err
	}
	wait := time.Duration(0)
	if !oldest.IsZero() {
		wait = oldest.Add(v.cfg.RateWindow).Sub(now)
		if wait < 0 {
			wait = 0
		}
	}
	return &Rejection{
		Reason:       RejectRateLimited,
		Wait:         wait,
		MaxPerWindow: v.cfg.MaxReportsPerWindow,
		Window:       v.cfg.RateWindow,
	}, nil
}

// checkDuplicate scans the zone's recent sightings. With GPS on both sides a
// match needs distance <= DuplicateRadiusM; when either side lacks a
// coordinate any same-zone report inside the window matches, and the
// rejection carries a hint to share GPS next time.
func (v *Validator) checkDuplicate(ctx context.Context, d *Draft, now time.Time) (*Rejection, error) {
	since := now.Add(-v.cfg.DuplicateWindow)
	recent, err := v.store.RecentByZone(ctx, d.Zone, since)
	if err != nil {
		return nil, err
	}

	for _, prev := range recent {
		age := int(now.Sub(prev.ReportedAt).Minutes())
		if d.HasGPS() && prev.HasGPS() {
			dist := HaversineMeters(*d.Lat, *d.Lng, *prev.Lat, *prev.Lng)
			if dist <= float64(v.cfg.DuplicateRadiusM) {
				return &Rejection{
					Reason:     RejectDuplicate,
					DistanceM:  dist,
					AgeMinutes: age,
					Zone:       prev.Zone,
				}, nil
			}
			continue
		}
		return &Rejection{
			Reason:     RejectDuplicate,
			AgeMinutes: age,
			Zone:       prev.Zone,
			GPSHint:    true,
		}, nil
	}
	return nil, nil
}
