// Package alerts renders accepted sightings into subscriber notifications and
// fans them out. render.go builds the message; the same renderer is reused
// when feedback votes refresh an already-delivered alert, so the text always
// reflects the stored counters.
package alerts

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
)

// RenderAlert builds the alert text for a sighting. accuracyIndicator is the
// reporter's trust glyph, "" when they have too little feedback history.
func RenderAlert(s *sightings.Sighting, accuracyIndicator string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\U0001f6a8 WARDEN ALERT — %s\n\n", s.Zone)
	if s.Flagged {
		b.WriteString("⚠️ This report was flagged by the community.\n\n")
	}
	if s.Description != nil {
		fmt.Fprintf(&b, "\U0001f4dd %s\n", *s.Description)
	}
	fmt.Fprintf(&b, "\U0001f550 %s (%d min ago)\n",
		common.FormatClockSGT(s.ReportedAt), common.MinutesAgo(s.ReportedAt))
	fmt.Fprintf(&b, "Reported by: %s %s", s.ReporterBadge, s.ReporterName)
	if accuracyIndicator != "" {
		fmt.Fprintf(&b, " %s", accuracyIndicator)
	}
	b.WriteString("\n\nWas this report accurate?")
	return b.String()
}

// FeedbackKeyboard builds the vote buttons, with live counts on the labels.
func FeedbackKeyboard(s *sightings.Sighting) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("\U0001f44d Accurate (%d)", s.FeedbackPositive),
				"feedback_pos_"+s.ID),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("\U0001f44e Not there (%d)", s.FeedbackNegative),
				"feedback_neg_"+s.ID),
		),
	)
}
