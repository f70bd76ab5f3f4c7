// Package moderation — handlers.go implements the /admin command suite.
// The bot router only delivers /admin to users on the admin allowlist; the
// optional password session is enforced here.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/feedback"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
	"parkwatch.sg/telegram-bot/internal/features/subscriptions"
	"parkwatch.sg/telegram-bot/internal/features/zones"
)

const adminHelp = `🛠 Admin commands:

/admin stats — platform overview
/admin user <@name|id> — reporter profile
/admin zone <zone> — zone activity (24h)
/admin review — flagged sightings & low-accuracy reporters
/admin ban <@name|id> [reason] — ban a user
/admin unban <@name|id> — lift a ban
/admin banlist — active bans
/admin warn <@name|id> [reason] — warn (escalates to auto-ban)
/admin delete <sighting-id> — remove a sighting
/admin log — recent admin actions`

type Handler struct {
	service   *Service
	reporters *reporters.Service
	sightings *sightings.Service
	subs      *subscriptions.Service
	votes     *feedback.Service
	cfg       *config.Config
	bot       *tgbotapi.BotAPI
}

func NewHandler(service *Service, rep *reporters.Service, sgt *sightings.Service,
	subs *subscriptions.Service, votes *feedback.Service, cfg *config.Config, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service, reporters: rep, sightings: sgt,
		subs: subs, votes: votes, cfg: cfg, bot: bot,
	}
}

// HandleAdmin dispatches /admin subcommands.
func (h *Handler) HandleAdmin(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	adminID := msg.From.ID
	args := strings.Fields(msg.CommandArguments())

	sub := ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	if sub == "login" {
		h.login(chatID, adminID, args[1:])
		return
	}
	if sub == "" || sub == "help" {
		h.send(chatID, adminHelp)
		return
	}
	if !h.service.LoggedIn(adminID) {
		h.send(chatID, "\U0001f512 Please authenticate first: /admin login <password>")
		return
	}

	switch sub {
	case "stats":
		h.stats(ctx, chatID)
	case "user":
		h.userProfile(ctx, chatID, args[1:])
	case "zone":
		h.zoneActivity(ctx, chatID, strings.Join(args[1:], " "))
	case "review":
		h.review(ctx, chatID)
	case "ban":
		h.ban(ctx, chatID, adminID, args[1:])
	case "unban":
		h.unban(ctx, chatID, adminID, args[1:])
	case "banlist":
		h.banList(ctx, chatID)
	case "warn":
		h.warn(ctx, chatID, adminID, args[1:])
	case "delete":
		h.deleteSighting(ctx, chatID, adminID, args[1:])
	case "log":
		h.auditLog(ctx, chatID)
	default:
		h.send(chatID, "Unknown subcommand. Try /admin help")
	}
}

func (h *Handler) login(chatID, adminID int64, args []string) {
	if !h.service.RequiresLogin() {
		h.send(chatID, "No admin password is configured; you're already in.")
		return
	}
	if len(args) != 1 {
		h.send(chatID, "Usage: /admin login <password>")
		return
	}
	err := h.service.Login(adminID, args[0])
	switch {
	case err == nil:
		h.send(chatID, "✅ Authenticated. Session valid for 30 minutes.")
	case errors.Is(err, common.ErrWrongPassword):
		h.send(chatID, "❌ Wrong password.")
	case errors.Is(err, common.ErrTooManyAttempts):
		h.send(chatID, "\U0001f6d1 Too many attempts. Try again later.")
	default:
		log.WithError(err).Error("admin login failed")
		h.send(chatID, "Something went wrong, try again.")
	}
}

func (h *Handler) stats(ctx context.Context, chatID int64) {
	dayAgo := time.Now().Add(-24 * time.Hour)

	users, err := h.reporters.CountUsers(ctx)
	if err != nil {
		h.fail(chatID, err, "failed to count users")
		return
	}
	totalSubs, distinctSubs, err := h.subs.Counts(ctx)
	if err != nil {
		h.fail(chatID, err, "failed to count subscriptions")
		return
	}
	reports, err := h.sightings.CountSince(ctx, dayAgo)
	if err != nil {
		h.fail(chatID, err, "failed to count sightings")
		return
	}
	voteCount, err := h.votes.CountSince(ctx, dayAgo)
	if err != nil {
		h.fail(chatID, err, "failed to count votes")
		return
	}
	bans, err := h.service.CountBans(ctx)
	if err != nil {
		h.fail(chatID, err, "failed to count bans")
		return
	}
	topReport, err := h.sightings.TopZonesSince(ctx, dayAgo, 5)
	if err != nil {
		h.fail(chatID, err, "failed to rank zones")
		return
	}
	topSubs, err := h.subs.TopZones(ctx, 5)
	if err != nil {
		h.fail(chatID, err, "failed to rank subscribed zones")
		return
	}

	var b strings.Builder
	b.WriteString("\U0001f4ca Platform stats:\n\n")
	fmt.Fprintf(&b, "Users: %d (%d subscribed)\n", users, distinctSubs)
	fmt.Fprintf(&b, "Subscriptions: %d\n", totalSubs)
	fmt.Fprintf(&b, "Reports (24h): %d\n", reports)
	fmt.Fprintf(&b, "Votes (24h): %d\n", voteCount)
	fmt.Fprintf(&b, "Active bans: %d\n", bans)
	if len(topReport) > 0 {
		b.WriteString("\nBusiest zones (24h):\n")
		for _, zs := range topReport {
			fmt.Fprintf(&b, "• %s — %s\n", zs.Zone, common.Pluralize(zs.Count, "report"))
		}
	}
	if len(topSubs) > 0 {
		b.WriteString("\nMost subscribed zones:\n")
		for _, zc := range topSubs {
			fmt.Fprintf(&b, "• %s — %s\n", zc.Zone, common.Pluralize(zc.Count, "subscriber"))
		}
	}
	h.send(chatID, b.String())
}

func (h *Handler) userProfile(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /admin user <@name|id>")
		return
	}
	rep, err := h.resolveTarget(ctx, args[0])
	if err != nil {
		h.targetError(chatID, err)
		return
	}

	acc, err := h.reporters.Accuracy(ctx, rep.TelegramID)
	if err != nil {
		h.fail(chatID, err, "failed to compute accuracy")
		return
	}
	ban, err := h.service.BanOf(ctx, rep.TelegramID)
	if err != nil && !errors.Is(err, common.ErrNotBanned) {
		h.fail(chatID, err, "failed to check ban state")
		return
	}
	recent, err := h.sightings.ByReporter(ctx, rep.TelegramID, 5)
	if err != nil {
		h.fail(chatID, err, "failed to list sightings")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\U0001f464 %s (id %d)\n\n", displayHandle(rep), rep.TelegramID)
	fmt.Fprintf(&b, "Joined: %s\n", common.FormatDateTimeSGT(rep.CreatedAt))
	fmt.Fprintf(&b, "Reports: %d — %s\n", rep.ReportCount, reporters.BadgeFor(rep.ReportCount))
	fmt.Fprintf(&b, "Warnings: %d/%d\n", rep.Warnings, h.cfg.MaxWarnings)
	if acc.Total() > 0 {
		fmt.Fprintf(&b, "Accuracy: %.0f%% (\U0001f44d %d / \U0001f44e %d)\n", acc.Score*100, acc.Positive, acc.Negative)
	} else {
		b.WriteString("Accuracy: no feedback yet\n")
	}
	if ban != nil {
		fmt.Fprintf(&b, "Status: \U0001f6ab BANNED — %s\n", ban.Reason)
	}
	if len(recent) > 0 {
		b.WriteString("\nLatest reports:\n")
		for _, s := range recent {
			flag := ""
			if s.Flagged {
				flag = " ⚠️"
			}
			fmt.Fprintf(&b, "• %s %s (\U0001f44d %d/\U0001f44e %d)%s\n",
				common.FormatShortSGT(s.ReportedAt), s.Zone, s.FeedbackPositive, s.FeedbackNegative, flag)
		}
	}
	h.send(chatID, b.String())
}

func (h *Handler) zoneActivity(ctx context.Context, chatID int64, zone string) {
	if zone == "" {
		h.send(chatID, "Usage: /admin zone <zone>")
		return
	}
	canonical := zones.Canonical(zone)
	if canonical == "" {
		h.send(chatID, fmt.Sprintf("Unknown zone %q.", zone))
		return
	}

	recent, err := h.sightings.RecentInZone(ctx, canonical, time.Now().Add(-24*time.Hour))
	if err != nil {
		h.fail(chatID, err, "failed to list zone sightings")
		return
	}
	subscribers, err := h.subs.SubscribersOf(ctx, canonical)
	if err != nil {
		h.fail(chatID, err, "failed to list zone subscribers")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\U0001f4cd %s — last 24h\n\n", canonical)
	fmt.Fprintf(&b, "Subscribers: %d\n", len(subscribers))
	fmt.Fprintf(&b, "Reports: %d\n", len(recent))
	for _, s := range recent {
		flag := ""
		if s.Flagged {
			flag = " ⚠️"
		}
		fmt.Fprintf(&b, "• %s by %s (\U0001f44d %d/\U0001f44e %d)%s\n",
			common.FormatShortSGT(s.ReportedAt), s.ReporterName, s.FeedbackPositive, s.FeedbackNegative, flag)
	}
	h.send(chatID, b.String())
}

func (h *Handler) review(ctx context.Context, chatID int64) {
	queue, err := h.service.Review(ctx)
	if err != nil {
		h.fail(chatID, err, "failed to build review queue")
		return
	}
	if len(queue.Flagged) == 0 && len(queue.LowAccuracy) == 0 {
		h.send(chatID, "✅ Review queue is empty.")
		return
	}

	var b strings.Builder
	b.WriteString("\U0001f50e Review queue:\n")
	if len(queue.Flagged) > 0 {
		b.WriteString("\n⚠️ Flagged sightings:\n")
		for _, s := range queue.Flagged {
			fmt.Fprintf(&b, "• %s — %s by %s (\U0001f44d %d/\U0001f44e %d)\n  id: %s\n",
				common.FormatShortSGT(s.ReportedAt), s.Zone, s.ReporterName,
				s.FeedbackPositive, s.FeedbackNegative, s.ID)
		}
	}
	if len(queue.LowAccuracy) > 0 {
		b.WriteString("\n\U0001f4c9 Low-accuracy reporters:\n")
		for _, lr := range queue.LowAccuracy {
			fmt.Fprintf(&b, "• %s (id %d) — %.0f%% over %s\n",
				lr.Username, lr.TelegramID, lr.Score*100,
				common.Pluralize(lr.Positive+lr.Negative, "vote"))
		}
	}
	h.send(chatID, b.String())
}

func (h *Handler) ban(ctx context.Context, chatID, adminID int64, args []string) {
	if len(args) < 1 {
		h.send(chatID, "Usage: /admin ban <@name|id> [reason]")
		return
	}
	rep, err := h.resolveTarget(ctx, args[0])
	if err != nil {
		h.targetError(chatID, err)
		return
	}
	reason := strings.Join(args[1:], " ")
	if reason == "" {
		reason = "unspecified"
	}

	if err := h.service.Ban(ctx, adminID, rep, reason); err != nil {
		if errors.Is(err, common.ErrAlreadyBanned) {
			h.send(chatID, "Already banned.")
			return
		}
		h.fail(chatID, err, "failed to ban user")
		return
	}
	h.send(chatID, fmt.Sprintf("\U0001f6ab Banned %s (id %d).\nReason: %s", displayHandle(rep), rep.TelegramID, reason))
}

func (h *Handler) unban(ctx context.Context, chatID, adminID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /admin unban <@name|id>")
		return
	}
	rep, err := h.resolveTarget(ctx, args[0])
	if err != nil {
		h.targetError(chatID, err)
		return
	}
	if err := h.service.Unban(ctx, adminID, rep.TelegramID); err != nil {
		if errors.Is(err, common.ErrNotBanned) {
			h.send(chatID, "That user is not banned.")
			return
		}
		h.fail(chatID, err, "failed to unban user")
		return
	}
	h.send(chatID, fmt.Sprintf("✅ Unbanned %s (id %d). Warnings reset.", displayHandle(rep), rep.TelegramID))
}

func (h *Handler) banList(ctx context.Context, chatID int64) {
	bans, err := h.service.BanList(ctx, 20)
	if err != nil {
		h.fail(chatID, err, "failed to list bans")
		return
	}
	if len(bans) == 0 {
		h.send(chatID, "No active bans.")
		return
	}
	var b strings.Builder
	b.WriteString("\U0001f6ab Active bans:\n\n")
	for _, ban := range bans {
		fmt.Fprintf(&b, "• %s (id %d) — %s\n  since %s\n",
			ban.Username, ban.TelegramID, ban.Reason, common.FormatDateTimeSGT(ban.BannedAt))
	}
	h.send(chatID, b.String())
}

func (h *Handler) warn(ctx context.Context, chatID, adminID int64, args []string) {
	if len(args) < 1 {
		h.send(chatID, "Usage: /admin warn <@name|id> [reason]")
		return
	}
	rep, err := h.resolveTarget(ctx, args[0])
	if err != nil {
		h.targetError(chatID, err)
		return
	}
	reason := strings.Join(args[1:], " ")
	if reason == "" {
		reason = "unspecified"
	}

	count, autoBanned, err := h.service.Warn(ctx, adminID, rep, reason)
	if err != nil {
		h.fail(chatID, err, "failed to warn user")
		return
	}
	if autoBanned {
		h.send(chatID, fmt.Sprintf(
			"⚠️ Warning %d/%d issued to %s — threshold reached, user auto-banned.",
			count, h.cfg.MaxWarnings, displayHandle(rep)))
		return
	}
	h.send(chatID, fmt.Sprintf("⚠️ Warning %d/%d issued to %s.", count, h.cfg.MaxWarnings, displayHandle(rep)))
}

func (h *Handler) deleteSighting(ctx context.Context, chatID, adminID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /admin delete <sighting-id>")
		return
	}
	deleted, err := h.service.DeleteSighting(ctx, adminID, args[0])
	if err != nil {
		if errors.Is(err, common.ErrSightingNotFound) {
			h.send(chatID, "No sighting with that id.")
			return
		}
		h.fail(chatID, err, "failed to delete sighting")
		return
	}
	h.send(chatID, fmt.Sprintf("\U0001f5d1 Deleted sighting %s (%s, by %s).",
		deleted.ID, deleted.Zone, deleted.ReporterName))
}

func (h *Handler) auditLog(ctx context.Context, chatID int64) {
	entries, err := h.service.RecentAudit(ctx, 15)
	if err != nil {
		h.fail(chatID, err, "failed to read audit log")
		return
	}
	if len(entries) == 0 {
		h.send(chatID, "Audit log is empty.")
		return
	}
	var b strings.Builder
	b.WriteString("\U0001f4dc Recent admin actions:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s %s → %d by %d\n", common.FormatShortSGT(e.CreatedAt), e.Action, e.TargetID, e.AdminID)
		if e.Detail != "" {
			fmt.Fprintf(&b, "  %s\n", e.Detail)
		}
	}
	h.send(chatID, b.String())
}

// resolveTarget accepts "@username" or a numeric telegram id.
func (h *Handler) resolveTarget(ctx context.Context, token string) (*reporters.Reporter, error) {
	if strings.HasPrefix(token, "@") {
		return h.reporters.GetByUsername(ctx, token)
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, common.ErrUserNotFound
	}
	return h.reporters.Get(ctx, id)
}

func (h *Handler) targetError(chatID int64, err error) {
	if errors.Is(err, common.ErrUserNotFound) {
		h.send(chatID, "No such user. Use @username or a numeric id.")
		return
	}
	h.fail(chatID, err, "failed to resolve target user")
}

func displayHandle(rep *reporters.Reporter) string {
	if rep.Username != "" {
		return "@" + rep.Username
	}
	return strconv.FormatInt(rep.TelegramID, 10)
}

func (h *Handler) fail(chatID int64, err error, msg string) {
	log.WithError(err).Error(msg)
	h.send(chatID, "Something went wrong, try again.")
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
