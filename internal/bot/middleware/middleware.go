// Package middleware wraps update handling with the cross-cutting layers:
// panic recovery, request logging and the ban/admin gate.
package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandlerFunc processes one Telegram update.
type HandlerFunc func(ctx context.Context, update tgbotapi.Update)

// Middleware decorates a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain applies middlewares outermost-first.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// actorOf extracts the acting user from an update, nil when there is none.
func actorOf(update tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	case update.EditedMessage != nil:
		return update.EditedMessage.From
	}
	return nil
}
