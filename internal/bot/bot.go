// Package bot runs the Telegram long-poll loop and routes updates to the
// feature handlers.
package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/bot/middleware"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/feedback"
	"parkwatch.sg/telegram-bot/internal/features/moderation"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
	"parkwatch.sg/telegram-bot/internal/features/subscriptions"
	"parkwatch.sg/telegram-bot/internal/metrics"
)

const helpText = `🚗 ParkWatch SG — crowd-sourced warden alerts

/start — choose your alert zones
/subscribe — add more zones
/myzones — list your zones
/unsubscribe — remove zones
/report — report a warden sighting
/cancel — abort a report in progress
/recent — active sightings in your zones
/mystats — your report count, badge & accuracy
/help — this message

Alerts carry 👍/👎 buttons — vote on reports you can verify, it keeps the signal honest.`

// Bot wires the update loop to the feature handlers.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	reporters    *reporters.Service
	reporterH    *reporters.Handler
	subsH        *subscriptions.Handler
	sightingsH   *sightings.Handler
	feedbackH    *feedback.Handler
	adminH       *moderation.Handler
	handleUpdate middleware.HandlerFunc
}

// New assembles the bot with its middleware chain.
func New(api *tgbotapi.BotAPI, cfg *config.Config, rep *reporters.Service,
	repH *reporters.Handler, subsH *subscriptions.Handler, sgtH *sightings.Handler,
	fbH *feedback.Handler, admH *moderation.Handler, mod *moderation.Service) *Bot {

	b := &Bot{
		api:        api,
		cfg:        cfg,
		reporters:  rep,
		reporterH:  repH,
		subsH:      subsH,
		sightingsH: sgtH,
		feedbackH:  fbH,
		adminH:     admH,
	}
	b.handleUpdate = middleware.Chain(b.route,
		middleware.Recovery(),
		middleware.Logger(),
		middleware.BanGate(mod, api),
	)
	return b
}

// Run polls for updates until the context is cancelled. At most
// BOT_MAX_INFLIGHT updates are processed concurrently; the loop blocks when
// the cap is reached rather than spawning unboundedly under flood.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	inflight := make(chan struct{}, b.cfg.BotMaxInflight)
	var wg sync.WaitGroup

	log.WithField("max_inflight", b.cfg.BotMaxInflight).Info("bot update loop started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			wg.Wait()
			log.Info("bot update loop stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				wg.Wait()
				return nil
			}
			inflight <- struct{}{}
			wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer func() {
					<-inflight
					wg.Done()
				}()
				metrics.UpdatesHandled.Inc()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// route dispatches one update after the middleware chain let it through.
func (b *Bot) route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.routeMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.routeCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) routeMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	b.ensureUser(ctx, msg.From)

	if msg.IsCommand() {
		b.routeCommand(ctx, msg)
		return
	}
	if msg.Location != nil {
		if !b.sightingsH.HandleLocation(ctx, msg) {
			b.reply(msg.Chat.ID, "Share a location while reporting with /report.")
		}
		return
	}
	if msg.Text != "" {
		if !b.sightingsH.HandleText(ctx, msg) {
			b.reply(msg.Chat.ID, "I didn't catch that. Try /help for the command list.")
		}
	}
}

func (b *Bot) routeCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.subsH.HandleStart(ctx, chatID)
	case "subscribe":
		b.subsH.HandleSubscribe(ctx, chatID)
	case "myzones":
		b.subsH.HandleMyZones(ctx, chatID, userID)
	case "unsubscribe":
		b.subsH.HandleUnsubscribe(ctx, chatID, userID)
	case "report":
		b.sightingsH.HandleReport(ctx, chatID, userID)
	case "cancel":
		b.sightingsH.HandleCancel(ctx, chatID, userID)
	case "recent":
		b.sightingsH.HandleRecent(ctx, chatID, userID)
	case "mystats":
		b.reporterH.HandleMyStats(ctx, chatID, userID)
	case "help":
		b.reply(chatID, helpText)
	case "admin":
		if !b.cfg.IsAdmin(userID) {
			// Same reply as an unknown command: /admin stays invisible.
			b.reply(chatID, "Unknown command. Try /help")
			return
		}
		b.adminH.HandleAdmin(ctx, msg)
	default:
		b.reply(chatID, "Unknown command. Try /help")
	}
}

func (b *Bot) routeCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	b.ensureUser(ctx, cb.From)

	if b.subsH.HandleCallback(ctx, cb) {
		return
	}
	if b.sightingsH.HandleCallback(ctx, cb) {
		return
	}
	if b.feedbackH.HandleCallback(ctx, cb) {
		return
	}
	// Stale button from an old message shape; just stop the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.WithError(err).Debug("failed to answer unknown callback")
	}
}

// ensureUser registers the actor on first contact and keeps their username
// current. Registration failure is logged, not fatal: most handlers survive
// a missing row.
func (b *Bot) ensureUser(ctx context.Context, u *tgbotapi.User) {
	if err := b.reporters.Ensure(ctx, u.ID, u.UserName); err != nil {
		log.WithError(err).WithField("user_id", u.ID).Error("failed to ensure user")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
