// Package alerts — dispatcher.go fans an accepted sighting out to the zone's
// subscribers with bounded concurrency.
package alerts

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
	"parkwatch.sg/telegram-bot/internal/metrics"
)

// Sender is the slice of the Telegram client the dispatcher needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SubscriberSource lists and prunes a zone's recipients.
type SubscriberSource interface {
	SubscribersOf(ctx context.Context, zone string) ([]int64, error)
	Clear(ctx context.Context, userID int64) error
}

// TrustSource supplies the reporter's accuracy glyph for rendering.
type TrustSource interface {
	Accuracy(ctx context.Context, userID int64) (reporters.Accuracy, error)
	AccuracyIndicator(a reporters.Accuracy) string
}

// Dispatcher broadcasts alerts. One failed recipient never aborts the batch:
// permanently unreachable chats (blocked bot, deactivated account) are pruned
// from subscriptions, transient failures are logged and skipped.
type Dispatcher struct {
	bot       Sender
	subs      SubscriberSource
	reporters TrustSource
	workers   int
}

func NewDispatcher(bot Sender, subs SubscriberSource, rep TrustSource, workers int) *Dispatcher {
	return &Dispatcher{bot: bot, subs: subs, reporters: rep, workers: workers}
}

// Dispatch sends the alert to every subscriber of the sighting's zone except
// the reporter. It always returns a full summary; delivery failures are
// absorbed, not propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, s *sightings.Sighting) sightings.DispatchSummary {
	recipients, err := d.subs.SubscribersOf(ctx, s.Zone)
	if err != nil {
		log.WithError(err).WithField("zone", s.Zone).Error("failed to list subscribers")
		return sightings.DispatchSummary{}
	}

	indicator := ""
	if acc, err := d.reporters.Accuracy(ctx, s.ReporterID); err == nil {
		indicator = d.reporters.AccuracyIndicator(acc)
	}
	text := RenderAlert(s, indicator)
	kb := FeedbackKeyboard(s)

	var (
		mu      sync.Mutex
		summary sightings.DispatchSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, chatID := range recipients {
		if chatID == s.ReporterID {
			continue
		}
		chatID := chatID
		summary.Attempted++

		g.Go(func() error {
			msg := tgbotapi.NewMessage(chatID, text)
			msg.ReplyMarkup = kb
			_, err := d.bot.Send(msg)
			switch {
			case err == nil:
				metrics.AlertsDelivered.Inc()
				mu.Lock()
				summary.Delivered++
				mu.Unlock()
			case isUnreachable(err):
				// The chat is gone for good; stop addressing it.
				if clearErr := d.subs.Clear(gctx, chatID); clearErr != nil {
					log.WithError(clearErr).WithField("chat_id", chatID).Error("failed to prune subscriber")
				} else {
					metrics.AlertsPruned.Inc()
					mu.Lock()
					summary.Pruned++
					mu.Unlock()
					log.WithField("chat_id", chatID).Info("pruned unreachable subscriber")
				}
			default:
				log.WithError(err).WithField("chat_id", chatID).Warn("alert delivery failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	log.WithFields(log.Fields{
		"sighting_id": s.ID,
		"zone":        s.Zone,
		"attempted":   summary.Attempted,
		"delivered":   summary.Delivered,
		"pruned":      summary.Pruned,
	}).Info("alert dispatched")
	return summary
}

// isUnreachable reports whether a send error means the chat will never accept
// messages again (403: bot blocked, user deactivated, chat deleted).
func isUnreachable(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == 403
	}
	return false
}
