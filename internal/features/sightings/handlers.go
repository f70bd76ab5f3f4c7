// Package sightings — handlers.go: the /report conversation and /recent.
package sightings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/subscriptions"
	"parkwatch.sg/telegram-bot/internal/features/zones"
)

// Handler drives the report conversation over Telegram.
type Handler struct {
	service   *Service
	reporters *reporters.Service
	subs      *subscriptions.Service
	bot       *tgbotapi.BotAPI
}

func NewHandler(service *Service, rep *reporters.Service, subs *subscriptions.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, reporters: rep, subs: subs, bot: bot}
}

// HandleReport starts the flow: ask for a location.
func (h *Handler) HandleReport(ctx context.Context, chatID, userID int64) {
	h.service.StartReport(userID)

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001f4cd Share GPS location", "report_location")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001f5fa Pick a zone", "report_manual")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "report_cancel")),
	)
	msg := tgbotapi.NewMessage(chatID,
		"\U0001f6a8 Reporting a warden sighting.\n\nWhere did you spot them?\n\n"+
			"Share your GPS location (most accurate), or pick a zone manually.")
	msg.ReplyMarkup = kb
	h.send(msg)
}

// HandleCancel aborts a live session.
func (h *Handler) HandleCancel(ctx context.Context, chatID, userID int64) {
	if h.service.Cancel(userID) {
		h.send(tgbotapi.NewMessage(chatID, "Report cancelled."))
		return
	}
	h.send(tgbotapi.NewMessage(chatID, "Nothing to cancel."))
}

// HandleLocation consumes a shared GPS point while a session awaits one.
// Returns true when the location belonged to a report session.
func (h *Handler) HandleLocation(ctx context.Context, msg *tgbotapi.Message) bool {
	sess := h.service.Session(msg.From.ID)
	if sess == nil || sess.State != StateAwaitingLocation {
		return false
	}

	res, err := h.service.SetLocationGPS(msg.From.ID, msg.Location.Latitude, msg.Location.Longitude)
	if err != nil {
		h.sessionError(msg.Chat.ID, err)
		return true
	}

	text := fmt.Sprintf("\U0001f4cd Got it — nearest zone: %s", res.Zone)
	if res.FarFromZone {
		text += fmt.Sprintf(
			"\n\n⚠️ That's %.1f km from the zone centre, so coverage there may be thin. The report will still go out to %s subscribers.",
			res.DistanceM/1000, res.Zone)
	}
	h.send(tgbotapi.NewMessage(msg.Chat.ID, text))
	h.askDescription(msg.Chat.ID)
	return true
}

// HandleText consumes free text while a session awaits a description.
// Returns true when the text belonged to a report session.
func (h *Handler) HandleText(ctx context.Context, msg *tgbotapi.Message) bool {
	sess := h.service.Session(msg.From.ID)
	if sess == nil || sess.State != StateAwaitingDescription {
		return false
	}
	if err := h.service.SetDescription(msg.From.ID, msg.Text); err != nil {
		h.sessionError(msg.Chat.ID, err)
		return true
	}
	h.askConfirmation(ctx, msg.Chat.ID, msg.From.ID)
	return true
}

// HandleCallback routes report keyboard callbacks. Returns true when the
// callback belonged to this handler.
func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) bool {
	data := cb.Data
	switch {
	case data == "report_location":
		h.answer(cb, "")
		h.edit(cb, "\U0001f4cd Use the attachment menu to share your location.", nil)
	case data == "report_manual":
		h.answer(cb, "")
		kb := reportRegionKeyboard()
		h.edit(cb, "Which region?", &kb)
	case strings.HasPrefix(data, "report_region_"):
		h.showReportZones(cb, strings.TrimPrefix(data, "report_region_"))
	case data == "report_back_to_regions":
		h.answer(cb, "")
		kb := reportRegionKeyboard()
		h.edit(cb, "Which region?", &kb)
	case strings.HasPrefix(data, "report_zone_"):
		h.pickZone(ctx, cb, strings.TrimPrefix(data, "report_zone_"))
	case data == "report_skip_description":
		h.skipDescription(ctx, cb)
	case data == "report_confirm":
		h.confirm(ctx, cb)
	case data == "report_cancel":
		h.answer(cb, "")
		h.service.Cancel(cb.From.ID)
		h.edit(cb, "Report cancelled.", nil)
	default:
		return false
	}
	return true
}

func (h *Handler) showReportZones(cb *tgbotapi.CallbackQuery, regionKey string) {
	h.answer(cb, "")
	region := zones.RegionByKey(regionKey)
	if region == nil {
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, z := range region.Zones {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(z, "report_zone_"+z)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀ Back", "report_back_to_regions")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.edit(cb, fmt.Sprintf("Which zone in %s?", region.Name), &kb)
}

func (h *Handler) pickZone(ctx context.Context, cb *tgbotapi.CallbackQuery, zone string) {
	h.answer(cb, "")
	if err := h.service.SetZone(cb.From.ID, zone); err != nil {
		h.sessionErrorEdit(cb, err)
		return
	}
	h.edit(cb, "\U0001f4cd Zone: "+zone, nil)
	h.askDescription(cb.Message.Chat.ID)
}

func (h *Handler) askDescription(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", "report_skip_description")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "report_cancel")),
	)
	msg := tgbotapi.NewMessage(chatID,
		"Any details? (e.g. \"2 wardens near the market\")\n\nType a short description or skip.")
	msg.ReplyMarkup = kb
	h.send(msg)
}

func (h *Handler) skipDescription(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	h.answer(cb, "")
	if err := h.service.SkipDescription(cb.From.ID); err != nil {
		h.sessionErrorEdit(cb, err)
		return
	}
	h.askConfirmation(ctx, cb.Message.Chat.ID, cb.From.ID)
}

func (h *Handler) askConfirmation(ctx context.Context, chatID, userID int64) {
	sess := h.service.Session(userID)
	if sess == nil {
		h.send(tgbotapi.NewMessage(chatID, "⏱ Session expired. Start again with /report."))
		return
	}

	var b strings.Builder
	b.WriteString("\U0001f4cb Confirm your report:\n\n")
	fmt.Fprintf(&b, "\U0001f4cd Zone: %s\n", sess.Draft.Zone)
	if sess.Draft.Description != nil {
		fmt.Fprintf(&b, "\U0001f4dd Details: %s\n", *sess.Draft.Description)
	}
	b.WriteString("\nSend the alert to subscribers?")

	kb := confirmKeyboard()
	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ReplyMarkup = kb
	h.send(msg)
}

func (h *Handler) confirm(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	h.answer(cb, "")
	userID := cb.From.ID

	res, err := h.service.Confirm(ctx, userID, displayName(cb.From))
	if err != nil {
		if errors.Is(err, common.ErrNoSession) || errors.Is(err, common.ErrWrongState) {
			h.edit(cb, "⏱ Session expired. Start again with /report.", nil)
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("failed to submit report")
		h.edit(cb, "Sorry, something went wrong. Please try again.", nil)
		return
	}
	if res.Rejection != nil {
		// The draft survives a rejection: leave the confirm/cancel keyboard
		// in place so the reporter can retry once the reason has passed.
		kb := confirmKeyboard()
		h.edit(cb, res.Rejection.Message(), &kb)
		return
	}

	s := res.Sighting
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Report sent to %d subscriber(s) in %s!\n\n", res.Summary.Delivered, s.Zone)
	fmt.Fprintf(&b, "%s — thanks for keeping drivers informed.", s.ReporterBadge)
	if acc, err := h.reporters.Accuracy(ctx, userID); err == nil && acc.Total() >= 1 {
		fmt.Fprintf(&b, "\nYour report accuracy: %.0f%% (%d votes)", acc.Score*100, acc.Total())
	}
	h.edit(cb, b.String(), nil)
}

// HandleRecent lists still-active sightings in the caller's subscribed zones.
func (h *Handler) HandleRecent(ctx context.Context, chatID, userID int64) {
	zoneList, err := h.subs.ZonesOf(ctx, userID)
	if err != nil {
		log.WithError(err).Error("failed to fetch subscriptions")
		h.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	if len(zoneList) == 0 {
		h.send(tgbotapi.NewMessage(chatID, "You're not subscribed to any zones yet.\nUse /start to select zones."))
		return
	}

	recent, err := h.service.Recent(ctx, zoneList)
	if err != nil {
		log.WithError(err).Error("failed to fetch recent sightings")
		h.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	if len(recent) == 0 {
		h.send(tgbotapi.NewMessage(chatID,
			"✅ All clear! No warden sightings in your zones in the last 30 minutes."))
		return
	}

	var b strings.Builder
	b.WriteString("\U0001f6a8 Recent sightings in your zones:\n\n")
	for _, s := range recent {
		mins := common.MinutesAgo(s.ReportedAt)
		fmt.Fprintf(&b, "%s %s — %d min ago (%s)\n", urgencyGlyph(mins), s.Zone, mins, s.ReporterBadge)
		if s.Description != nil {
			fmt.Fprintf(&b, "   \U0001f4dd %s\n", *s.Description)
		}
	}
	h.send(tgbotapi.NewMessage(chatID, b.String()))
}

// urgencyGlyph grades a sighting's age: hot, warm, cooling.
func urgencyGlyph(mins int) string {
	switch {
	case mins <= 5:
		return "\U0001f534"
	case mins <= 15:
		return "\U0001f7e1"
	default:
		return "\U0001f7e2"
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Send alert", "report_confirm")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "report_cancel")),
	)
}

func reportRegionKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, region := range zones.Regions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(region.Name, "report_region_"+region.Key)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "report_cancel")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) sessionError(chatID int64, err error) {
	if errors.Is(err, common.ErrNoSession) {
		h.send(tgbotapi.NewMessage(chatID, "⏱ Session expired. Start again with /report."))
		return
	}
	log.WithError(err).Error("report session error")
	h.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
}

func (h *Handler) sessionErrorEdit(cb *tgbotapi.CallbackQuery, err error) {
	if errors.Is(err, common.ErrNoSession) {
		h.edit(cb, "⏱ Session expired. Start again with /report.", nil)
		return
	}
	log.WithError(err).Error("report session error")
	h.edit(cb, "Sorry, something went wrong. Please try again.", nil)
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
