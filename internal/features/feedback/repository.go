// Package feedback records accuracy votes on sightings and keeps the
// denormalized counters on the sighting row consistent with them.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkwatch.sg/telegram-bot/internal/common"
)

// VoteResult is the sighting's feedback state after a vote was applied.
type VoteResult struct {
	Positive int
	Negative int
	Flagged  bool
	// Changed is false when the vote repeated the voter's current choice
	// and nothing moved.
	Changed bool
	// JustFlagged is set on the vote that tripped the auto-flag threshold.
	JustFlagged bool
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ApplyVote records one voter's verdict on a sighting inside a single
// transaction. The sighting row is locked first so concurrent votes serialize;
// a changed vote moves a counter from one side to the other, a repeated vote
// is a no-op. Crossing the auto-flag threshold (>= minVotes total and a
// negative share above negRatio) sets the one-way flagged bit in the same
// transaction.
func (r *Repository) ApplyVote(ctx context.Context, sightingID string, voterID int64, accurate bool, minVotes int, negRatio float64) (*VoteResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		reporterID int64
		pos, neg   int
		flagged    bool
	)
	err = tx.QueryRow(ctx, `
		SELECT reporter_id, feedback_positive, feedback_negative, flagged
		FROM sightings WHERE id = $1
		FOR UPDATE`, sightingID).Scan(&reporterID, &pos, &neg, &flagged)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSightingNotFound
		}
		return nil, fmt.Errorf("lock sighting: %w", err)
	}
	if reporterID == voterID {
		return nil, common.ErrSelfVote
	}

	var prior *bool
	err = tx.QueryRow(ctx, `
		SELECT accurate FROM feedback
		WHERE sighting_id = $1 AND voter_id = $2`, sightingID, voterID).Scan(&prior)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("read prior vote: %w", err)
	}

	after, changed, justFlagged := applyVote(
		tally{Positive: pos, Negative: neg, Flagged: flagged},
		prior, accurate, minVotes, negRatio)

	if !changed {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return &VoteResult{Positive: pos, Negative: neg, Flagged: flagged}, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO feedback (sighting_id, voter_id, accurate)
		VALUES ($1, $2, $3)
		ON CONFLICT (sighting_id, voter_id) DO UPDATE SET accurate = EXCLUDED.accurate, voted_at = NOW()`,
		sightingID, voterID, accurate)
	if err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE sightings
		SET feedback_positive = $2, feedback_negative = $3, flagged = $4
		WHERE id = $1`, sightingID, after.Positive, after.Negative, after.Flagged)
	if err != nil {
		return nil, fmt.Errorf("update counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &VoteResult{
		Positive:    after.Positive,
		Negative:    after.Negative,
		Flagged:     after.Flagged,
		Changed:     true,
		JustFlagged: justFlagged,
	}, nil
}

// CountSince counts votes cast at or after since (admin stats).
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback WHERE voted_at >= $1`, since).Scan(&n)
	return n, err
}
