// Package app wires the application together: database, feature services,
// the Telegram bot, the scheduler and the health server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/alerts"
	"parkwatch.sg/telegram-bot/internal/bot"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db/postgres"
	"parkwatch.sg/telegram-bot/internal/features/feedback"
	"parkwatch.sg/telegram-bot/internal/features/moderation"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
	"parkwatch.sg/telegram-bot/internal/features/subscriptions"
	"parkwatch.sg/telegram-bot/internal/health"
	"parkwatch.sg/telegram-bot/internal/jobs"
)

const shutdownTimeout = 5 * time.Second

// Run starts every component and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(ctx, pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	api.Debug = cfg.AppEnv == "development"
	log.WithField("username", api.Self.UserName).Info("authorized on Telegram")

	// Repositories and services.
	reporterRepo := reporters.NewRepository(pool)
	reporterSvc := reporters.NewService(reporterRepo, cfg)

	subsRepo := subscriptions.NewRepository(pool)
	subsSvc := subscriptions.NewService(subsRepo)

	sightingRepo := sightings.NewRepository(pool)
	sessions := sightings.NewSessionStore(cfg.SessionTTL)
	validator := sightings.NewValidator(sightingRepo, cfg)
	sightingSvc := sightings.NewService(sightingRepo, sessions, validator, cfg)

	dispatcher := alerts.NewDispatcher(api, subsSvc, reporterSvc, cfg.BroadcastWorkers)
	sightingSvc.SetDispatcher(dispatcher)

	feedbackRepo := feedback.NewRepository(pool)
	feedbackSvc := feedback.NewService(feedbackRepo, sightingSvc, cfg)

	modRepo := moderation.NewRepository(pool)
	modSvc := moderation.NewService(modRepo, reporterSvc, sightingSvc, cfg)

	// Handlers.
	reporterH := reporters.NewHandler(reporterSvc, api)
	subsH := subscriptions.NewHandler(subsSvc, api)
	sightingsH := sightings.NewHandler(sightingSvc, reporterSvc, subsSvc, api)
	feedbackH := feedback.NewHandler(feedbackSvc, reporterSvc, api)
	adminH := moderation.NewHandler(modSvc, reporterSvc, sightingSvc, subsSvc, feedbackSvc, cfg, api)

	// Background work.
	scheduler := jobs.NewScheduler(sightingSvc, cfg)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer scheduler.Stop()

	if cfg.HealthEnabled {
		hs := health.NewServer(cfg.HealthPort, pool)
		go hs.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			hs.Stop(shutdownCtx)
		}()
	}

	b := bot.New(api, cfg, reporterSvc, reporterH, subsH, sightingsH, feedbackH, adminH, modSvc)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot: %w", err)
	}
	return nil
}
