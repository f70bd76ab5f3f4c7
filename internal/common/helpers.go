// Package common holds shared utilities: Singapore-time formatting and small
// display helpers used across handlers.
package common

import (
	"fmt"
	"time"
)

// SGT is the display timezone for all user-facing timestamps (UTC+8).
var SGT = time.FixedZone("SGT", 8*60*60)

// FormatClockSGT formats a timestamp as "03:04 PM SGT" for alert messages.
func FormatClockSGT(t time.Time) string {
	return t.In(SGT).Format("03:04 PM") + " SGT"
}

// FormatDateTimeSGT formats a timestamp as "2006-01-02 03:04 PM SGT".
func FormatDateTimeSGT(t time.Time) string {
	return t.In(SGT).Format("2006-01-02 03:04 PM") + " SGT"
}

// FormatShortSGT formats a timestamp as "01/02 03:04 PM" for compact lists.
func FormatShortSGT(t time.Time) string {
	return t.In(SGT).Format("01/02 03:04 PM")
}

// MinutesAgo returns whole minutes elapsed since t, never negative.
func MinutesAgo(t time.Time) int {
	m := int(time.Since(t).Minutes())
	if m < 0 {
		return 0
	}
	return m
}

// Pluralize returns "n word" or "n words" for English display strings.
func Pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
