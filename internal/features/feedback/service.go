// Package feedback — service.go enforces the voting window around the
// transactional vote application.
package feedback

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
	"parkwatch.sg/telegram-bot/internal/metrics"
)

type Service struct {
	repo      *Repository
	sightings *sightings.Service
	cfg       *config.Config
}

func NewService(repo *Repository, sgt *sightings.Service, cfg *config.Config) *Service {
	return &Service{repo: repo, sightings: sgt, cfg: cfg}
}

// Vote records a voter's verdict on a sighting. Votes are accepted only
// within the feedback window after the report; after that the buttons are
// decorative and return common.ErrFeedbackClosed.
func (s *Service) Vote(ctx context.Context, sightingID string, voterID int64, accurate bool) (*VoteResult, error) {
	sighting, err := s.sightings.Get(ctx, sightingID)
	if err != nil {
		return nil, err
	}
	if time.Since(sighting.ReportedAt) > s.cfg.FeedbackWindow {
		return nil, common.ErrFeedbackClosed
	}

	res, err := s.repo.ApplyVote(ctx, sightingID, voterID, accurate,
		s.cfg.FlagMinVotes, s.cfg.FlagNegativeRatio)
	if err != nil {
		return nil, err
	}
	if res.Changed {
		polarity := "negative"
		if accurate {
			polarity = "positive"
		}
		metrics.FeedbackVotes.WithLabelValues(polarity).Inc()
	}
	if res.JustFlagged {
		log.WithFields(log.Fields{
			"sighting_id": sightingID,
			"positive":    res.Positive,
			"negative":    res.Negative,
		}).Warn("sighting auto-flagged by community feedback")
	}
	return res, nil
}

// Sighting reloads the sighting for message re-rendering after a vote.
func (s *Service) Sighting(ctx context.Context, id string) (*sightings.Sighting, error) {
	return s.sightings.Get(ctx, id)
}

// CountSince counts votes cast at or after since (admin stats).
func (s *Service) CountSince(ctx context.Context, since time.Time) (int, error) {
	return s.repo.CountSince(ctx, since)
}
