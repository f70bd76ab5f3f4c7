// Package moderation — repository.go runs the banned_users and admin_actions
// queries.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkwatch.sg/telegram-bot/internal/common"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IsBanned reports whether the user is currently banned.
func (r *Repository) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM banned_users WHERE telegram_id = $1)`, userID).Scan(&banned)
	return banned, err
}

// Ban inserts the ban, clears the target's subscriptions and writes the audit
// entry in one transaction. A banned user must stop receiving alerts the
// moment the ban lands. Returns common.ErrAlreadyBanned on repeat.
func (r *Repository) Ban(ctx context.Context, targetID int64, username, reason string, adminID int64, action string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO banned_users (telegram_id, username, reason, banned_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO NOTHING`,
		targetID, username, reason, adminID)
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlreadyBanned
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM subscriptions WHERE telegram_id = $1`, targetID); err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO admin_actions (action, admin_id, target_id, detail)
		VALUES ($1, $2, $3, $4)`, action, adminID, targetID, reason); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Unban removes the ban, resets the target's warnings and writes the audit
// entry in one transaction. Returns common.ErrNotBanned when there was no ban.
func (r *Repository) Unban(ctx context.Context, targetID, adminID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM banned_users WHERE telegram_id = $1`, targetID)
	if err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotBanned
	}

	// A clean slate: old warnings must not feed the next escalation.
	if _, err := tx.Exec(ctx,
		`UPDATE users SET warnings = 0 WHERE telegram_id = $1`, targetID); err != nil {
		return fmt.Errorf("reset warnings: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO admin_actions (action, admin_id, target_id, detail)
		VALUES ($1, $2, $3, '')`, ActionUnban, adminID, targetID); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// BanList returns current bans, newest first.
func (r *Repository) BanList(ctx context.Context, limit int) ([]Ban, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT telegram_id, username, reason, banned_by, banned_at
		FROM banned_users
		ORDER BY banned_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query bans: %w", err)
	}
	defer rows.Close()

	var out []Ban
	for rows.Next() {
		var b Ban
		if err := rows.Scan(&b.TelegramID, &b.Username, &b.Reason, &b.BannedBy, &b.BannedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBan returns the ban row for a user, common.ErrNotBanned when absent.
func (r *Repository) GetBan(ctx context.Context, userID int64) (*Ban, error) {
	var b Ban
	err := r.pool.QueryRow(ctx, `
		SELECT telegram_id, username, reason, banned_by, banned_at
		FROM banned_users WHERE telegram_id = $1`, userID).Scan(
		&b.TelegramID, &b.Username, &b.Reason, &b.BannedBy, &b.BannedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotBanned
		}
		return nil, fmt.Errorf("read ban: %w", err)
	}
	return &b, nil
}

// Audit writes a standalone audit entry.
func (r *Repository) Audit(ctx context.Context, action string, adminID, targetID int64, detail string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_actions (action, admin_id, target_id, detail)
		VALUES ($1, $2, $3, $4)`, action, adminID, targetID, detail)
	if err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}

// RecentAudit returns the latest audit entries, newest first.
func (r *Repository) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, admin_id, target_id, detail, created_at
		FROM admin_actions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.AdminID, &e.TargetID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LowAccuracyReporters lists reporters whose full-history accuracy is below
// maxScore with at least minVotes total votes, worst first.
func (r *Repository) LowAccuracyReporters(ctx context.Context, maxScore float64, minVotes, limit int) ([]LowAccuracyReporter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.telegram_id, u.username,
		       COALESCE(SUM(s.feedback_positive), 0) AS pos,
		       COALESCE(SUM(s.feedback_negative), 0) AS neg
		FROM users u
		JOIN sightings s ON s.reporter_id = u.telegram_id
		GROUP BY u.telegram_id, u.username
		HAVING COALESCE(SUM(s.feedback_positive), 0) + COALESCE(SUM(s.feedback_negative), 0) >= $2
		   AND COALESCE(SUM(s.feedback_positive), 0)::float /
		       (COALESCE(SUM(s.feedback_positive), 0) + COALESCE(SUM(s.feedback_negative), 0)) < $1
		ORDER BY COALESCE(SUM(s.feedback_positive), 0)::float /
		       (COALESCE(SUM(s.feedback_positive), 0) + COALESCE(SUM(s.feedback_negative), 0)) ASC
		LIMIT $3`, maxScore, minVotes, limit)
	if err != nil {
		return nil, fmt.Errorf("query low-accuracy reporters: %w", err)
	}
	defer rows.Close()

	var out []LowAccuracyReporter
	for rows.Next() {
		var lr LowAccuracyReporter
		if err := rows.Scan(&lr.TelegramID, &lr.Username, &lr.Positive, &lr.Negative); err != nil {
			return nil, err
		}
		if total := lr.Positive + lr.Negative; total > 0 {
			lr.Score = float64(lr.Positive) / float64(total)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

// CountBans returns the number of active bans (admin stats).
func (r *Repository) CountBans(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM banned_users`).Scan(&n)
	return n, err
}
