// Package moderation covers bans, warnings, the audit log and the admin
// review queue. models.go describes the banned_users and admin_actions rows.
package moderation

import "time"

// Ban is a row in banned_users.
type Ban struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	Reason     string    `db:"reason"`
	BannedBy   int64     `db:"banned_by"`
	BannedAt   time.Time `db:"banned_at"`
}

// Audit actions. auto_ban is distinct from ban so the log shows which bans
// came from warning escalation rather than a direct admin decision.
const (
	ActionBan            = "ban"
	ActionAutoBan        = "auto_ban"
	ActionUnban          = "unban"
	ActionWarn           = "warn"
	ActionDeleteSighting = "delete_sighting"
)

// AuditEntry is a row in admin_actions.
type AuditEntry struct {
	ID        int64     `db:"id"`
	Action    string    `db:"action"`
	AdminID   int64     `db:"admin_id"`
	TargetID  int64     `db:"target_id"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}

// LowAccuracyReporter is a review-queue entry: a reporter whose full-history
// accuracy fell below the threshold with enough votes to mean something.
type LowAccuracyReporter struct {
	TelegramID int64
	Username   string
	Positive   int
	Negative   int
	Score      float64
}
