// Package sightings — repository.go: persistence for accepted sightings.
package sightings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sightingColumns = `id, zone, description, reported_at, reporter_id, reporter_name,
	reporter_badge, lat, lng, feedback_positive, feedback_negative, flagged`

func scanSighting(row pgx.Row) (*Sighting, error) {
	var s Sighting
	err := row.Scan(&s.ID, &s.Zone, &s.Description, &s.ReportedAt, &s.ReporterID,
		&s.ReporterName, &s.ReporterBadge, &s.Lat, &s.Lng,
		&s.FeedbackPositive, &s.FeedbackNegative, &s.Flagged)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSightingNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create persists an accepted sighting and bumps the reporter's report count
// in the same transaction. The badge stored on the sighting is derived from
// the count AFTER the increment, so the row that pushes a reporter over a
// badge threshold already carries the new badge.
func (r *Repository) Create(ctx context.Context, id string, reporterID int64, reporterName string, d Draft, reportedAt time.Time) (*Sighting, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	err = tx.QueryRow(ctx, `
		UPDATE users SET report_count = report_count + 1
		WHERE telegram_id = $1
		RETURNING report_count`, reporterID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("increment report count: %w", err)
	}

	badge := reporters.BadgeFor(count)
	row := tx.QueryRow(ctx, `
		INSERT INTO sightings (id, zone, description, reported_at, reporter_id, reporter_name, reporter_badge, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+sightingColumns,
		id, d.Zone, d.Description, reportedAt, reporterID, reporterName, badge, d.Lat, d.Lng)
	s, err := scanSighting(row)
	if err != nil {
		return nil, fmt.Errorf("insert sighting: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s, nil
}

// Get loads one sighting by id.
func (r *Repository) Get(ctx context.Context, id string) (*Sighting, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sightingColumns+` FROM sightings WHERE id = $1`, id)
	return scanSighting(row)
}

// RecentByZone returns the sightings in a zone reported at or after since,
// newest first.
func (r *Repository) RecentByZone(ctx context.Context, zone string, since time.Time) ([]*Sighting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sightingColumns+`
		FROM sightings
		WHERE zone = $1 AND reported_at >= $2
		ORDER BY reported_at DESC`, zone, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSightings(rows)
}

// RecentForZones returns the sightings in any of the given zones reported at
// or after since, newest first. Used by /recent against the caller's
// subscribed zones.
func (r *Repository) RecentForZones(ctx context.Context, zoneList []string, since time.Time) ([]*Sighting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sightingColumns+`
		FROM sightings
		WHERE zone = ANY($1) AND reported_at >= $2
		ORDER BY reported_at DESC`, zoneList, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSightings(rows)
}

// CountByReporterSince counts the reporter's sightings at or after since.
func (r *Repository) CountByReporterSince(ctx context.Context, reporterID int64, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM sightings
		WHERE reporter_id = $1 AND reported_at >= $2`, reporterID, since).Scan(&n)
	return n, err
}

// OldestByReporterSince returns the timestamp of the reporter's oldest
// sighting at or after since, used to compute the rate-limit wait. The zero
// time is returned when the reporter has none in the window.
func (r *Repository) OldestByReporterSince(ctx context.Context, reporterID int64, since time.Time) (time.Time, error) {
	var t *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT MIN(reported_at) FROM sightings
		WHERE reporter_id = $1 AND reported_at >= $2`, reporterID, since).Scan(&t)
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}

// Delete removes a sighting and returns the removed row for the audit log.
func (r *Repository) Delete(ctx context.Context, id string) (*Sighting, error) {
	row := r.pool.QueryRow(ctx,
		`DELETE FROM sightings WHERE id = $1 RETURNING `+sightingColumns, id)
	return scanSighting(row)
}

// PruneExpired deletes sightings older than the cutoff, cascading their
// feedback rows, and returns how many were removed.
func (r *Repository) PruneExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sightings WHERE reported_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Flag marks a sighting as community-flagged. One-way: once set it stays.
func (r *Repository) Flag(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sightings SET flagged = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrSightingNotFound
	}
	return nil
}

// Flagged returns community-flagged sightings newest first, for the admin
// review queue.
func (r *Repository) Flagged(ctx context.Context, limit int) ([]*Sighting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sightingColumns+`
		FROM sightings
		WHERE flagged = TRUE
		ORDER BY reported_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSightings(rows)
}

// CountSince counts all sightings at or after since (admin stats).
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sightings WHERE reported_at >= $1`, since).Scan(&n)
	return n, err
}

// ZoneStat is a zone with its report volume over a period.
type ZoneStat struct {
	Zone  string
	Count int
}

// TopZonesSince lists the busiest zones at or after since (admin stats).
func (r *Repository) TopZonesSince(ctx context.Context, since time.Time, limit int) ([]ZoneStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT zone, COUNT(*) AS n
		FROM sightings
		WHERE reported_at >= $1
		GROUP BY zone
		ORDER BY n DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ZoneStat
	for rows.Next() {
		var zs ZoneStat
		if err := rows.Scan(&zs.Zone, &zs.Count); err != nil {
			return nil, err
		}
		out = append(out, zs)
	}
	return out, rows.Err()
}

// ByReporter returns the reporter's sightings newest first (admin /admin user).
func (r *Repository) ByReporter(ctx context.Context, reporterID int64, limit int) ([]*Sighting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sightingColumns+`
		FROM sightings
		WHERE reporter_id = $1
		ORDER BY reported_at DESC
		LIMIT $2`, reporterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSightings(rows)
}

func collectSightings(rows pgx.Rows) ([]*Sighting, error) {
	var out []*Sighting
	for rows.Next() {
		var s Sighting
		err := rows.Scan(&s.ID, &s.Zone, &s.Description, &s.ReportedAt, &s.ReporterID,
			&s.ReporterName, &s.ReporterBadge, &s.Lat, &s.Lng,
			&s.FeedbackPositive, &s.FeedbackNegative, &s.Flagged)
		if err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
