package middleware

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Logger logs every handled update with its latency.
func Logger() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, update tgbotapi.Update) {
			start := time.Now()
			next(ctx, update)

			fields := log.Fields{
				"update_id": update.UpdateID,
				"took":      time.Since(start).String(),
			}
			if actor := actorOf(update); actor != nil {
				fields["user_id"] = actor.ID
			}
			switch {
			case update.Message != nil && update.Message.IsCommand():
				fields["command"] = update.Message.Command()
			case update.CallbackQuery != nil:
				fields["callback"] = update.CallbackQuery.Data
			}
			log.WithFields(fields).Debug("update handled")
		}
	}
}
