// Package subscriptions manages (user, zone) alert subscriptions.
// repository.go runs all queries against the subscriptions table.
package subscriptions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Add subscribes a user to a zone. Idempotent: the (telegram_id, zone_name)
// primary key makes repeats a no-op.
func (r *Repository) Add(ctx context.Context, userID int64, zone string) error {
	query := `
		INSERT INTO subscriptions (telegram_id, zone_name) VALUES ($1, $2)
		ON CONFLICT (telegram_id, zone_name) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID, zone); err != nil {
		return fmt.Errorf("failed to add subscription: %w", err)
	}
	return nil
}

// Remove unsubscribes a user from a single zone.
func (r *Repository) Remove(ctx context.Context, userID int64, zone string) error {
	query := `DELETE FROM subscriptions WHERE telegram_id = $1 AND zone_name = $2`
	if _, err := r.db.Exec(ctx, query, userID, zone); err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}
	return nil
}

// Clear removes every subscription of a user. Used on ban and when a
// recipient turns out to be unreachable.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE telegram_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear subscriptions: %w", err)
	}
	return nil
}

// ZonesOf returns the zone names a user is subscribed to, sorted.
func (r *Repository) ZonesOf(ctx context.Context, userID int64) ([]string, error) {
	query := `SELECT zone_name FROM subscriptions WHERE telegram_id = $1 ORDER BY zone_name`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var zones []string
	for rows.Next() {
		var z string
		if err := rows.Scan(&z); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// SubscribersOf returns the telegram ids subscribed to a zone (for broadcast).
func (r *Repository) SubscribersOf(ctx context.Context, zone string) ([]int64, error) {
	query := `SELECT telegram_id FROM subscriptions WHERE zone_name = $1`
	rows, err := r.db.Query(ctx, query, zone)
	if err != nil {
		return nil, fmt.Errorf("failed to query zone subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Counts returns (total subscription rows, distinct subscribers).
func (r *Repository) Counts(ctx context.Context) (int, int, error) {
	var total, distinct int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT telegram_id) FROM subscriptions`,
	).Scan(&total, &distinct)
	return total, distinct, err
}

// TopZones returns the most-subscribed zones with their subscriber counts.
func (r *Repository) TopZones(ctx context.Context, limit int) ([]ZoneCount, error) {
	query := `
		SELECT zone_name, COUNT(*) AS subs
		FROM subscriptions GROUP BY zone_name
		ORDER BY subs DESC LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top zones: %w", err)
	}
	defer rows.Close()

	var out []ZoneCount
	for rows.Next() {
		var zc ZoneCount
		if err := rows.Scan(&zc.Zone, &zc.Count); err != nil {
			return nil, err
		}
		out = append(out, zc)
	}
	return out, rows.Err()
}

// ZoneCount pairs a zone name with a count for dashboard listings.
type ZoneCount struct {
	Zone  string
	Count int
}
