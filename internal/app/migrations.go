// Package app — migrations.go holds the ordered schema migrations.
package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/db/postgres"
)

var migrations = []string{
	// 1: users
	`CREATE TABLE IF NOT EXISTS users (
		telegram_id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		report_count INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// 2: subscriptions
	`CREATE TABLE IF NOT EXISTS subscriptions (
		telegram_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
		zone_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (telegram_id, zone_name)
	)`,

	// 3: sightings
	`CREATE TABLE IF NOT EXISTS sightings (
		id UUID PRIMARY KEY,
		zone TEXT NOT NULL,
		description TEXT,
		reported_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reporter_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
		reporter_name TEXT NOT NULL DEFAULT '',
		reporter_badge TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		feedback_positive INTEGER NOT NULL DEFAULT 0,
		feedback_negative INTEGER NOT NULL DEFAULT 0,
		flagged BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_sightings_zone_time ON sightings (zone, reported_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sightings_reporter_time ON sightings (reporter_id, reported_at DESC)`,

	// 4: feedback
	`CREATE TABLE IF NOT EXISTS feedback (
		sighting_id UUID NOT NULL REFERENCES sightings(id) ON DELETE CASCADE,
		voter_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
		accurate BOOLEAN NOT NULL,
		voted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (sighting_id, voter_id)
	)`,

	// 5: banned_users
	`CREATE TABLE IF NOT EXISTS banned_users (
		telegram_id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		banned_by BIGINT NOT NULL,
		banned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// 6: admin_actions
	`CREATE TABLE IF NOT EXISTS admin_actions (
		id BIGSERIAL PRIMARY KEY,
		action TEXT NOT NULL,
		admin_id BIGINT NOT NULL,
		target_id BIGINT NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_admin_actions_time ON admin_actions (created_at DESC)`,
}

// runMigrations applies the pending schema migrations in order.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}
	for i, sql := range migrations {
		version := i + 1
		if err := postgres.ExecMigrationSQL(ctx, pool, version, sql); err != nil {
			return err
		}
	}
	log.WithField("versions", len(migrations)).Info("schema migrations applied")
	return nil
}
