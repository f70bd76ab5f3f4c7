package middleware

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Recovery keeps a panicking handler from taking the whole update loop down.
func Recovery() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"panic": r,
						"stack": string(debug.Stack()),
					}).Error("recovered from panic in update handler")
				}
			}()
			next(ctx, update)
		}
	}
}
