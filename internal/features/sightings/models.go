// Package sightings implements the report pipeline: the per-reporter draft
// session, the duplicate/rate validator, and persistence of accepted
// sightings. models.go describes the data carried through that pipeline.
package sightings

import (
	"fmt"
	"time"
)

// Sighting is one accepted report, as stored in the sightings table.
// The reporter badge is a snapshot taken at report time and never updated.
type Sighting struct {
	ID                string    `db:"id"`
	Zone              string    `db:"zone"`
	Description       *string   `db:"description"`
	ReportedAt        time.Time `db:"reported_at"`
	ReporterID        int64     `db:"reporter_id"`
	ReporterName      string    `db:"reporter_name"`
	ReporterBadge     string    `db:"reporter_badge"`
	Lat               *float64  `db:"lat"`
	Lng               *float64  `db:"lng"`
	FeedbackPositive  int       `db:"feedback_positive"`
	FeedbackNegative  int       `db:"feedback_negative"`
	Flagged           bool      `db:"flagged"`
}

// HasGPS reports whether the sighting carries a coordinate.
func (s *Sighting) HasGPS() bool {
	return s.Lat != nil && s.Lng != nil
}

// Draft is a report being assembled by a session, before validation.
type Draft struct {
	Zone        string
	Description *string
	Lat         *float64
	Lng         *float64
}

// HasGPS reports whether the draft carries a coordinate.
func (d *Draft) HasGPS() bool {
	return d.Lat != nil && d.Lng != nil
}

// RejectReason classifies why the validator refused a draft.
type RejectReason string

const (
	RejectRateLimited RejectReason = "rate_limited"
	RejectDuplicate   RejectReason = "duplicate"
)

// Rejection carries a validator refusal and the detail needed to explain it.
// Rate is checked before duplicates, so the first reason wins.
type Rejection struct {
	Reason RejectReason

	// Rate limit detail: wait until the oldest counted report leaves the window.
	Wait         time.Duration
	MaxPerWindow int
	Window       time.Duration

	// Duplicate detail.
	DistanceM  float64 // both sides had GPS
	AgeMinutes int
	Zone       string
	// GPSHint is set when the match fell back to zone-level because a
	// coordinate was missing; the caller should nudge the actor to share GPS.
	GPSHint bool
}

// Message renders the user-facing rejection text.
func (r *Rejection) Message() string {
	switch r.Reason {
	case RejectRateLimited:
		waitMins := int(r.Wait.Minutes()) + 1
		if waitMins < 1 {
			waitMins = 1
		}
		return fmt.Sprintf(
			"⚠️ Rate limit reached.\n\nYou can submit up to %d reports per %s.\nPlease try again in ~%d minute(s).",
			r.MaxPerWindow, windowNoun(r.Window), waitMins)
	case RejectDuplicate:
		if r.GPSHint {
			return fmt.Sprintf(
				"⚠️ Duplicate report.\n\nA warden was already reported in %s %d minute(s) ago.\n\n"+
					"\U0001f4a1 Tip: Share your GPS location next time to report multiple wardens in the same zone.\n\n"+
					"Check /recent for current sightings.",
				r.Zone, r.AgeMinutes)
		}
		return fmt.Sprintf(
			"⚠️ Duplicate report.\n\nA warden was already reported nearby (%dm away) in %s %d minute(s) ago.\n\n"+
				"Check /recent for current sightings.",
			int(r.DistanceM), r.Zone, r.AgeMinutes)
	}
	return "⚠️ Report rejected."
}

// windowNoun renders a rate window for the rejection text ("hour",
// "30 minutes", "2 hours").
func windowNoun(d time.Duration) string {
	switch {
	case d <= 0 || d == time.Hour:
		return "hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d == time.Minute:
		return "minute"
	default:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
}

// DispatchSummary is the per-broadcast outcome handed back to the reporter.
type DispatchSummary struct {
	Attempted int
	Delivered int
	Pruned    int
}
