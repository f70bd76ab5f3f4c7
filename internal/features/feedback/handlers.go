// Package feedback — handlers.go routes the 👍/👎 buttons under alerts.
package feedback

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/alerts"
	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
)

type Handler struct {
	service   *Service
	reporters *reporters.Service
	bot       *tgbotapi.BotAPI
}

func NewHandler(service *Service, rep *reporters.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, reporters: rep, bot: bot}
}

// HandleCallback routes feedback button callbacks. Returns true when the
// callback belonged to this handler.
func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) bool {
	var (
		sightingID string
		accurate   bool
	)
	switch {
	case strings.HasPrefix(cb.Data, "feedback_pos_"):
		sightingID = strings.TrimPrefix(cb.Data, "feedback_pos_")
		accurate = true
	case strings.HasPrefix(cb.Data, "feedback_neg_"):
		sightingID = strings.TrimPrefix(cb.Data, "feedback_neg_")
		accurate = false
	default:
		return false
	}

	res, err := h.service.Vote(ctx, sightingID, cb.From.ID, accurate)
	if err != nil {
		h.answer(cb, voteErrorToast(err))
		return true
	}

	if !res.Changed {
		h.answer(cb, "Already counted \U0001f44c")
		return true
	}
	if accurate {
		h.answer(cb, "\U0001f44d Thanks for confirming!")
	} else {
		h.answer(cb, "\U0001f44e Noted, thanks!")
	}

	// Re-render the alert from the stored state so every copy of the message
	// a voter touches shows the same counters.
	h.refresh(ctx, cb, sightingID)
	return true
}

func (h *Handler) refresh(ctx context.Context, cb *tgbotapi.CallbackQuery, sightingID string) {
	s, err := h.service.Sighting(ctx, sightingID)
	if err != nil {
		log.WithError(err).WithField("sighting_id", sightingID).Debug("failed to reload sighting")
		return
	}
	indicator := ""
	if acc, err := h.reporters.Accuracy(ctx, s.ReporterID); err == nil {
		indicator = h.reporters.AccuracyIndicator(acc)
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID,
		alerts.RenderAlert(s, indicator))
	kb := alerts.FeedbackKeyboard(s)
	edit.ReplyMarkup = &kb
	if _, err := h.bot.Send(edit); err != nil {
		log.WithError(err).Debug("failed to refresh alert message")
	}
}

func voteErrorToast(err error) string {
	switch {
	case errors.Is(err, common.ErrSelfVote):
		return "You can't vote on your own report"
	case errors.Is(err, common.ErrFeedbackClosed):
		return "⏱ Voting has closed for this sighting"
	case errors.Is(err, common.ErrSightingNotFound):
		return "This sighting is no longer available"
	default:
		log.WithError(err).Error("failed to apply vote")
		return "Something went wrong, try again"
	}
}

func (h *Handler) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.WithError(err).Debug("failed to answer callback")
	}
}
