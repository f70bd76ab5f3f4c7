// Package subscriptions — service.go holds subscription business logic.
package subscriptions

import "context"

// Service manages zone subscriptions.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Toggle flips a user's subscription to a zone. Returns true when the call
// ended with the user subscribed.
func (s *Service) Toggle(ctx context.Context, userID int64, zone string) (bool, error) {
	zones, err := s.repo.ZonesOf(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, z := range zones {
		if z == zone {
			return false, s.repo.Remove(ctx, userID, zone)
		}
	}
	return true, s.repo.Add(ctx, userID, zone)
}

// ZonesOf returns the user's subscribed zones, sorted.
func (s *Service) ZonesOf(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.ZonesOf(ctx, userID)
}

// SubscribersOf returns the zone's subscriber ids.
func (s *Service) SubscribersOf(ctx context.Context, zone string) ([]int64, error) {
	return s.repo.SubscribersOf(ctx, zone)
}

// Remove unsubscribes a user from one zone.
func (s *Service) Remove(ctx context.Context, userID int64, zone string) error {
	return s.repo.Remove(ctx, userID, zone)
}

// Clear removes every subscription of a user.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.repo.Clear(ctx, userID)
}

// Counts returns (total subscription rows, distinct subscribers).
func (s *Service) Counts(ctx context.Context) (int, int, error) {
	return s.repo.Counts(ctx)
}

// TopZones returns the most-subscribed zones.
func (s *Service) TopZones(ctx context.Context, limit int) ([]ZoneCount, error) {
	return s.repo.TopZones(ctx, limit)
}
