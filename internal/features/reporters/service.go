// Package reporters — service.go exposes the reputation reads handlers need.
package reporters

import (
	"context"

	"parkwatch.sg/telegram-bot/internal/config"
)

// Service wraps the repository with config-aware reputation logic.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Ensure registers the user on first contact and keeps the username current.
func (s *Service) Ensure(ctx context.Context, userID int64, username string) error {
	return s.repo.Ensure(ctx, userID, username)
}

// Get returns the user row.
func (s *Service) Get(ctx context.Context, userID int64) (*Reporter, error) {
	return s.repo.Get(ctx, userID)
}

// GetByUsername returns the user row for an @username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*Reporter, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Accuracy recomputes the full-history accuracy on every call; nothing is
// cached beyond the single response.
func (s *Service) Accuracy(ctx context.Context, userID int64) (Accuracy, error) {
	return s.repo.Accuracy(ctx, userID)
}

// AccuracyIndicator returns the display glyph for a reporter, "" when there
// is not enough feedback yet.
func (s *Service) AccuracyIndicator(a Accuracy) string {
	return a.Indicator(s.cfg.AccuracyMinFeedback)
}

// IncrementWarnings bumps the warning counter and returns the new value.
func (s *Service) IncrementWarnings(ctx context.Context, userID int64) (int, error) {
	return s.repo.IncrementWarnings(ctx, userID)
}

// CountUsers returns the number of registered users.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.repo.CountUsers(ctx)
}
