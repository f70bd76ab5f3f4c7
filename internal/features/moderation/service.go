// Package moderation — service.go: ban/warn escalation, the review queue and
// optional admin password sessions.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
)

const (
	loginSessionTTL  = 30 * time.Minute
	maxLoginAttempts = 5
	attemptWindow    = 15 * time.Minute
)

// moderationStore is the slice of the repository the service needs. The
// interface keeps the escalation logic testable without a database.
type moderationStore interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
	GetBan(ctx context.Context, userID int64) (*Ban, error)
	Ban(ctx context.Context, targetID int64, username, reason string, adminID int64, action string) error
	Unban(ctx context.Context, targetID, adminID int64) error
	Audit(ctx context.Context, action string, adminID, targetID int64, detail string) error
	BanList(ctx context.Context, limit int) ([]Ban, error)
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)
	LowAccuracyReporters(ctx context.Context, maxScore float64, minVotes, limit int) ([]LowAccuracyReporter, error)
	CountBans(ctx context.Context) (int, error)
}

// warningCounter bumps a reporter's warning count and returns the new total.
type warningCounter interface {
	IncrementWarnings(ctx context.Context, userID int64) (int, error)
}

// sightingAdmin is the slice of the sightings service moderation touches.
type sightingAdmin interface {
	Flagged(ctx context.Context, limit int) ([]*sightings.Sighting, error)
	Delete(ctx context.Context, id string) (*sightings.Sighting, error)
}

// Service owns moderation decisions. When ADMIN_PASSWORD_HASH is set, admins
// additionally authenticate with /admin login before moderation commands are
// accepted; sessions are in-memory and expire on restart.
type Service struct {
	repo      moderationStore
	reporters warningCounter
	sightings sightingAdmin
	cfg       *config.Config

	mu       sync.Mutex
	sessions map[int64]time.Time
	attempts map[int64][]time.Time
}

func NewService(repo moderationStore, rep warningCounter, sgt sightingAdmin, cfg *config.Config) *Service {
	return &Service{
		repo:      repo,
		reporters: rep,
		sightings: sgt,
		cfg:       cfg,
		sessions:  make(map[int64]time.Time),
		attempts:  make(map[int64][]time.Time),
	}
}

// RequiresLogin reports whether a password layer is configured on top of the
// admin id allowlist.
func (s *Service) RequiresLogin() bool {
	return s.cfg.AdminPasswordHash != ""
}

// Login verifies the admin password and opens a session. Failed attempts are
// throttled per user.
func (s *Service) Login(userID int64, password string) error {
	if !s.RequiresLogin() {
		return nil
	}

	s.mu.Lock()
	now := time.Now()
	recent := s.attempts[userID][:0]
	for _, t := range s.attempts[userID] {
		if now.Sub(t) < attemptWindow {
			recent = append(recent, t)
		}
	}
	s.attempts[userID] = recent
	if len(recent) >= maxLoginAttempts {
		s.mu.Unlock()
		return common.ErrTooManyAttempts
	}
	s.mu.Unlock()

	ok, err := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.attempts[userID] = append(s.attempts[userID], now)
		return common.ErrWrongPassword
	}
	delete(s.attempts, userID)
	s.sessions[userID] = now.Add(loginSessionTTL)
	return nil
}

// LoggedIn reports whether the admin has a live password session. Always true
// when no password layer is configured.
func (s *Service) LoggedIn(userID int64) bool {
	if !s.RequiresLogin() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.sessions[userID]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(s.sessions, userID)
		return false
	}
	return true
}

// IsBanned reports whether the user is banned.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return s.repo.IsBanned(ctx, userID)
}

// BanOf returns the user's ban row, common.ErrNotBanned when there is none.
func (s *Service) BanOf(ctx context.Context, userID int64) (*Ban, error) {
	return s.repo.GetBan(ctx, userID)
}

// Ban bans a user by direct admin decision. Clearing the target's
// subscriptions and writing the audit entry happen in the same transaction.
func (s *Service) Ban(ctx context.Context, adminID int64, target *reporters.Reporter, reason string) error {
	if err := s.repo.Ban(ctx, target.TelegramID, target.Username, reason, adminID, ActionBan); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"target_id": target.TelegramID,
		"reason":    reason,
	}).Warn("user banned")
	return nil
}

// Unban lifts a ban and resets the target's warnings.
func (s *Service) Unban(ctx context.Context, adminID, targetID int64) error {
	if err := s.repo.Unban(ctx, targetID, adminID); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"target_id": targetID,
	}).Info("user unbanned")
	return nil
}

// Warn issues a warning. When MAX_WARNINGS is reached the ban lands
// automatically and the audit log records auto_ban rather than ban.
// Returns the new warning count and whether an auto-ban fired.
func (s *Service) Warn(ctx context.Context, adminID int64, target *reporters.Reporter, reason string) (int, bool, error) {
	count, err := s.reporters.IncrementWarnings(ctx, target.TelegramID)
	if err != nil {
		return 0, false, err
	}
	if err := s.repo.Audit(ctx, ActionWarn, adminID, target.TelegramID, reason); err != nil {
		return count, false, err
	}

	if s.cfg.MaxWarnings == 0 || count < s.cfg.MaxWarnings {
		return count, false, nil
	}

	autoReason := fmt.Sprintf("reached %d warnings (last: %s)", count, reason)
	err = s.repo.Ban(ctx, target.TelegramID, target.Username, autoReason, adminID, ActionAutoBan)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyBanned) {
			return count, false, nil
		}
		return count, false, err
	}
	log.WithFields(log.Fields{
		"target_id": target.TelegramID,
		"warnings":  count,
	}).Warn("auto-ban after warning threshold")
	return count, true, nil
}

// DeleteSighting removes a sighting by admin decision and audits it.
func (s *Service) DeleteSighting(ctx context.Context, adminID int64, sightingID string) (*sightings.Sighting, error) {
	deleted, err := s.sightings.Delete(ctx, sightingID)
	if err != nil {
		return nil, err
	}
	detail := fmt.Sprintf("sighting %s in %s", deleted.ID, deleted.Zone)
	if err := s.repo.Audit(ctx, ActionDeleteSighting, adminID, deleted.ReporterID, detail); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// ReviewQueue bundles what needs admin eyes: community-flagged sightings and
// reporters whose accuracy collapsed.
type ReviewQueue struct {
	Flagged     []*sightings.Sighting
	LowAccuracy []LowAccuracyReporter
}

// Review builds the current review queue.
func (s *Service) Review(ctx context.Context) (*ReviewQueue, error) {
	flagged, err := s.sightings.Flagged(ctx, 10)
	if err != nil {
		return nil, err
	}
	lowAcc, err := s.repo.LowAccuracyReporters(ctx, s.cfg.LowAccuracyMax, s.cfg.LowAccuracyMinVotes, 10)
	if err != nil {
		return nil, err
	}
	return &ReviewQueue{Flagged: flagged, LowAccuracy: lowAcc}, nil
}

// BanList returns current bans.
func (s *Service) BanList(ctx context.Context, limit int) ([]Ban, error) {
	return s.repo.BanList(ctx, limit)
}

// RecentAudit returns the latest audit entries.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	return s.repo.RecentAudit(ctx, limit)
}

// CountBans returns the number of active bans.
func (s *Service) CountBans(ctx context.Context) (int, error) {
	return s.repo.CountBans(ctx)
}
