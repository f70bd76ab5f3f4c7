// Package reporters manages the people who submit sightings: registration,
// lifetime report counts, warnings, and the trust signals derived from them.
// models.go describes the users table rows and the derived reputation values.
package reporters

import "time"

// Reporter is a row in the users table. Created on first interaction.
type Reporter struct {
	TelegramID  int64     `db:"telegram_id"`
	Username    string    `db:"username"`
	ReportCount int       `db:"report_count"`
	Warnings    int       `db:"warnings"`
	CreatedAt   time.Time `db:"created_at"`
}

// Badge tiers by lifetime report count. The badge stored on a sighting is a
// snapshot taken at report time and never changes afterwards.
const (
	BadgeNew     = "\U0001f195 New"
	BadgeRegular = "⭐ Regular"
	BadgeTrusted = "⭐⭐ Trusted"
	BadgeVeteran = "\U0001f3c6 Veteran"
)

// BadgeFor returns the badge for a lifetime report count.
func BadgeFor(reportCount int) string {
	switch {
	case reportCount >= 51:
		return BadgeVeteran
	case reportCount >= 11:
		return BadgeTrusted
	case reportCount >= 3:
		return BadgeRegular
	default:
		return BadgeNew
	}
}

// Accuracy is the positive-feedback ratio over a reporter's full history.
type Accuracy struct {
	Score    float64 // positive / (positive + negative); 0 when no feedback
	Positive int
	Negative int
}

// Total returns the total feedback count behind the score.
func (a Accuracy) Total() int {
	return a.Positive + a.Negative
}

// Indicator returns the display glyph for an accuracy score, or "" when there
// is not enough feedback to show anything (noisy early signal).
func (a Accuracy) Indicator(minFeedback int) string {
	if a.Total() < minFeedback {
		return ""
	}
	switch {
	case a.Score >= 0.8:
		return "✅"
	case a.Score >= 0.5:
		return "⚠️"
	default:
		return "❌"
	}
}
