// Package reporters — handlers.go: /mystats.
package reporters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
)

type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleMyStats shows the caller their report count, badge and accuracy.
func (h *Handler) HandleMyStats(ctx context.Context, chatID, userID int64) {
	rep, err := h.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			h.send(chatID, "No stats yet — send your first report with /report!")
			return
		}
		log.WithError(err).Error("failed to read reporter")
		h.send(chatID, "Sorry, something went wrong. Please try again.")
		return
	}

	acc, err := h.service.Accuracy(ctx, userID)
	if err != nil {
		log.WithError(err).Error("failed to compute accuracy")
		h.send(chatID, "Sorry, something went wrong. Please try again.")
		return
	}

	var b strings.Builder
	b.WriteString("\U0001f4ca Your ParkWatch stats:\n\n")
	fmt.Fprintf(&b, "Reports submitted: %d\n", rep.ReportCount)
	fmt.Fprintf(&b, "Badge: %s\n", BadgeFor(rep.ReportCount))
	if ind := h.service.AccuracyIndicator(acc); ind != "" {
		fmt.Fprintf(&b, "Accuracy: %s %.0f%% (\U0001f44d %d / \U0001f44e %d)\n",
			ind, acc.Score*100, acc.Positive, acc.Negative)
	} else if acc.Total() > 0 {
		fmt.Fprintf(&b, "Accuracy: gathering feedback (%d vote(s) so far)\n", acc.Total())
	} else {
		b.WriteString("Accuracy: no feedback yet\n")
	}
	b.WriteString("\nKeep reporting to earn your next badge!")
	h.send(chatID, b.String())
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
