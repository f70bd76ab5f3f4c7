// Package subscriptions — handlers.go drives the zone-selection keyboards for
// /start, /subscribe, /myzones and /unsubscribe.
package subscriptions

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/features/zones"
)

// Handler handles subscription commands and keyboard callbacks.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleStart greets a new user and opens the region keyboard.
func (h *Handler) HandleStart(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID,
		"Welcome to ParkWatch SG! \U0001f697\n\n"+
			"I'll alert you when parking wardens are spotted nearby.\n\n"+
			"To get started, which areas do you want alerts for?")
	msg.ReplyMarkup = regionKeyboard()
	h.send(msg)
}

// HandleSubscribe opens the region keyboard to add more zones.
func (h *Handler) HandleSubscribe(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Which areas do you want to add?")
	msg.ReplyMarkup = regionKeyboard()
	h.send(msg)
}

// HandleMyZones lists the user's current subscriptions.
func (h *Handler) HandleMyZones(ctx context.Context, chatID, userID int64) {
	subs, err := h.service.ZonesOf(ctx, userID)
	if err != nil {
		log.WithError(err).Error("failed to fetch subscriptions")
		h.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	if len(subs) == 0 {
		h.send(tgbotapi.NewMessage(chatID, "You're not subscribed to any zones yet.\nUse /start to select zones."))
		return
	}
	var b strings.Builder
	b.WriteString("\U0001f4cd Your subscribed zones:\n\n")
	for _, z := range subs {
		fmt.Fprintf(&b, "• %s\n", z)
	}
	b.WriteString("\nUse /subscribe to add more.\nUse /unsubscribe to remove zones.")
	h.send(tgbotapi.NewMessage(chatID, b.String()))
}

// HandleUnsubscribe opens the removal keyboard.
func (h *Handler) HandleUnsubscribe(ctx context.Context, chatID, userID int64) {
	subs, err := h.service.ZonesOf(ctx, userID)
	if err != nil {
		log.WithError(err).Error("failed to fetch subscriptions")
		h.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	if len(subs) == 0 {
		h.send(tgbotapi.NewMessage(chatID, "You're not subscribed to any zones yet.\nUse /start to select zones first."))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, z := range subs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ "+z, "unsub_"+z)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("\U0001f5d1 Unsubscribe from ALL", "unsub_all")))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Done", "unsub_done")))

	msg := tgbotapi.NewMessage(chatID,
		fmt.Sprintf("\U0001f4cd Your subscribed zones (%d):\n\nTap a zone to unsubscribe:", len(subs)))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.send(msg)
}

// HandleCallback routes subscription keyboard callbacks. Returns true when
// the callback belonged to this handler.
func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) bool {
	data := cb.Data
	switch {
	case strings.HasPrefix(data, "region_"):
		h.showRegionZones(ctx, cb, strings.TrimPrefix(data, "region_"))
	case data == "zone_done":
		h.finishSelection(ctx, cb)
	case strings.HasPrefix(data, "zone_"):
		h.toggleZone(ctx, cb, strings.TrimPrefix(data, "zone_"))
	case data == "back_to_regions":
		h.backToRegions(cb)
	case strings.HasPrefix(data, "unsub_"):
		h.handleUnsub(ctx, cb, strings.TrimPrefix(data, "unsub_"))
	default:
		return false
	}
	return true
}

func (h *Handler) showRegionZones(ctx context.Context, cb *tgbotapi.CallbackQuery, regionKey string) {
	h.answer(cb, "")
	region := zones.RegionByKey(regionKey)
	if region == nil {
		return
	}
	kb, err := h.zoneKeyboard(ctx, region, cb.From.ID)
	if err != nil {
		log.WithError(err).Error("failed to build zone keyboard")
		return
	}
	h.edit(cb, fmt.Sprintf("Select zones in %s:\n\n(Tap to subscribe/unsubscribe, then tap Done)", region.Name), &kb)
}

func (h *Handler) toggleZone(ctx context.Context, cb *tgbotapi.CallbackQuery, zone string) {
	userID := cb.From.ID
	subscribed, err := h.service.Toggle(ctx, userID, zone)
	if err != nil {
		log.WithError(err).WithField("zone", zone).Error("failed to toggle subscription")
		h.answer(cb, "Something went wrong, try again")
		return
	}
	if subscribed {
		h.answer(cb, "✅ Subscribed to "+zone)
	} else {
		h.answer(cb, "❌ Unsubscribed from "+zone)
	}

	// Rebuild the keyboard so the tick marks stay current.
	region := zones.RegionOf(zone)
	if region == nil {
		return
	}
	kb, err := h.zoneKeyboard(ctx, region, userID)
	if err != nil {
		log.WithError(err).Error("failed to rebuild zone keyboard")
		return
	}
	h.edit(cb, fmt.Sprintf("Select zones in %s:\n\n(Tap to subscribe/unsubscribe, then tap Done)", region.Name), &kb)
}

func (h *Handler) finishSelection(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	h.answer(cb, "")
	subs, err := h.service.ZonesOf(ctx, cb.From.ID)
	if err != nil {
		log.WithError(err).Error("failed to fetch subscriptions")
		return
	}
	if len(subs) == 0 {
		h.edit(cb, "You're not subscribed to any zones yet.\nUse /start to select zones.", nil)
		return
	}
	h.edit(cb, fmt.Sprintf(
		"✅ Subscribed to %d zone(s): %s\n\nUse /subscribe to modify zones.\nUse /report to report a warden sighting.",
		len(subs), strings.Join(subs, ", ")), nil)
}

func (h *Handler) backToRegions(cb *tgbotapi.CallbackQuery) {
	h.answer(cb, "")
	kb := regionKeyboard()
	h.edit(cb, "Which areas do you want alerts for?", &kb)
}

func (h *Handler) handleUnsub(ctx context.Context, cb *tgbotapi.CallbackQuery, target string) {
	h.answer(cb, "")
	userID := cb.From.ID

	switch target {
	case "done":
		subs, err := h.service.ZonesOf(ctx, userID)
		if err != nil {
			log.WithError(err).Error("failed to fetch subscriptions")
			return
		}
		if len(subs) == 0 {
			h.edit(cb, "You've unsubscribed from all zones.\nUse /start to subscribe again.", nil)
			return
		}
		h.edit(cb, fmt.Sprintf("✅ Done! You're subscribed to %d zone(s):\n%s",
			len(subs), strings.Join(subs, ", ")), nil)
	case "all":
		if err := h.service.Clear(ctx, userID); err != nil {
			log.WithError(err).Error("failed to clear subscriptions")
			return
		}
		h.edit(cb, "\U0001f5d1 Unsubscribed from all zones.\n\nUse /start to subscribe to new zones.", nil)
	default:
		if err := h.service.Remove(ctx, userID, target); err != nil {
			log.WithError(err).WithField("zone", target).Error("failed to remove subscription")
			return
		}
		// Refresh the removal keyboard in place.
		h.HandleUnsubscribe(ctx, cb.Message.Chat.ID, userID)
	}
}

// zoneKeyboard builds the zone toggle keyboard for a region, marking the
// zones the user is already subscribed to.
func (h *Handler) zoneKeyboard(ctx context.Context, region *zones.Region, userID int64) (tgbotapi.InlineKeyboardMarkup, error) {
	subs, err := h.service.ZonesOf(ctx, userID)
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, err
	}
	subscribed := make(map[string]bool, len(subs))
	for _, z := range subs {
		subscribed[z] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, z := range region.Zones {
		label := z
		if subscribed[z] {
			label = "✅ " + z
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "zone_"+z)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀ Back to regions", "back_to_regions")))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Done", "zone_done")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

func regionKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, region := range zones.Regions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(region.Name, "region_"+region.Key)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", msg.ChatID).Error("failed to send message")
	}
}

func (h *Handler) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.WithError(err).Debug("failed to answer callback")
	}
}

func (h *Handler) edit(cb *tgbotapi.CallbackQuery, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	if kb != nil {
		edit.ReplyMarkup = kb
	}
	if _, err := h.bot.Send(edit); err != nil {
		log.WithError(err).Debug("failed to edit message")
	}
}
