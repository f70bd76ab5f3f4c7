// Package reporters — repository.go runs all queries against the users table
// plus the feedback aggregates derived from sightings.
package reporters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkwatch.sg/telegram-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Ensure creates the user row if missing and refreshes the username if it
// changed. Never touches report_count or warnings.
func (r *Repository) Ensure(ctx context.Context, userID int64, username string) error {
	query := `
		INSERT INTO users (telegram_id, username) VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
	`
	if _, err := r.db.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// Get returns the user row; common.ErrUserNotFound when missing.
func (r *Repository) Get(ctx context.Context, userID int64) (*Reporter, error) {
	query := `
		SELECT telegram_id, username, report_count, warnings, created_at
		FROM users WHERE telegram_id = $1
	`
	var rep Reporter
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&rep.TelegramID, &rep.Username, &rep.ReportCount, &rep.Warnings, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read user %d: %w", userID, err)
	}
	return &rep, nil
}

// GetByUsername looks a user up by @username (leading @ optional).
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Reporter, error) {
	username = strings.TrimPrefix(username, "@")
	query := `
		SELECT telegram_id, username, report_count, warnings, created_at
		FROM users WHERE LOWER(username) = LOWER($1)
	`
	var rep Reporter
	err := r.db.QueryRow(ctx, query, username).Scan(
		&rep.TelegramID, &rep.Username, &rep.ReportCount, &rep.Warnings, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read user %q: %w", username, err)
	}
	return &rep, nil
}

// Accuracy sums feedback over the user's FULL sighting history, not a recent
// window. Score is 0 when there is no feedback at all.
func (r *Repository) Accuracy(ctx context.Context, userID int64) (Accuracy, error) {
	query := `
		SELECT COALESCE(SUM(feedback_positive), 0), COALESCE(SUM(feedback_negative), 0)
		FROM sightings WHERE reporter_id = $1
	`
	var a Accuracy
	if err := r.db.QueryRow(ctx, query, userID).Scan(&a.Positive, &a.Negative); err != nil {
		return Accuracy{}, fmt.Errorf("failed to aggregate accuracy: %w", err)
	}
	if total := a.Total(); total > 0 {
		a.Score = float64(a.Positive) / float64(total)
	}
	return a, nil
}

// IncrementWarnings bumps the warning counter and returns the new value.
func (r *Repository) IncrementWarnings(ctx context.Context, userID int64) (int, error) {
	query := `UPDATE users SET warnings = warnings + 1 WHERE telegram_id = $1 RETURNING warnings`
	var count int
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to increment warnings: %w", err)
	}
	return count, nil
}

// ResetWarnings zeroes the warning counter (on unban).
func (r *Repository) ResetWarnings(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET warnings = 0 WHERE telegram_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to reset warnings: %w", err)
	}
	return nil
}

// CountUsers returns the number of registered users (admin dashboard).
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
