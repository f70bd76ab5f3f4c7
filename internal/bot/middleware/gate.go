package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// BanChecker answers whether a user is currently banned.
type BanChecker interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// Sender is the slice of the Telegram client the gate needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// BanGate silently drops updates from banned users, telling them once per
// interaction why nothing happens. /start stays open so a banned user who is
// later unbanned can re-onboard. Storage errors fail open: a database blip
// must not mute every user.
func BanGate(checker BanChecker, bot Sender) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, update tgbotapi.Update) {
			actor := actorOf(update)
			if actor == nil || isStart(update) {
				next(ctx, update)
				return
			}

			banned, err := checker.IsBanned(ctx, actor.ID)
			if err != nil {
				log.WithError(err).WithField("user_id", actor.ID).Error("ban check failed")
				next(ctx, update)
				return
			}
			if !banned {
				next(ctx, update)
				return
			}

			switch {
			case update.CallbackQuery != nil:
				if _, err := bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "\U0001f6ab You are banned from ParkWatch.")); err != nil {
					log.WithError(err).Debug("failed to answer callback")
				}
			case update.Message != nil:
				msg := tgbotapi.NewMessage(update.Message.Chat.ID,
					"\U0001f6ab You are banned from ParkWatch and cannot use the bot.")
				if _, err := bot.Send(msg); err != nil {
					log.WithError(err).Debug("failed to notify banned user")
				}
			}
		}
	}
}

func isStart(update tgbotapi.Update) bool {
	return update.Message != nil && update.Message.IsCommand() &&
		update.Message.Command() == "start"
}
