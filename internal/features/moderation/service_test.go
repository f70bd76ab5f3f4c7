package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/reporters"
)

type banCall struct {
	targetID int64
	reason   string
	action   string
}

// fakeModStore records ban and audit writes; the embedded interface covers
// the methods the tests never reach.
type fakeModStore struct {
	moderationStore
	bans   []banCall
	audits []string
	banErr error
}

func (f *fakeModStore) Ban(ctx context.Context, targetID int64, username, reason string, adminID int64, action string) error {
	if f.banErr != nil {
		return f.banErr
	}
	f.bans = append(f.bans, banCall{targetID: targetID, reason: reason, action: action})
	return nil
}

func (f *fakeModStore) Audit(ctx context.Context, action string, adminID, targetID int64, detail string) error {
	f.audits = append(f.audits, action)
	return nil
}

type fakeWarnings struct{ count int }

func (f *fakeWarnings) IncrementWarnings(ctx context.Context, userID int64) (int, error) {
	f.count++
	return f.count, nil
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	svc := NewService(nil, nil, nil, &config.Config{})

	assert.False(t, svc.RequiresLogin())
	assert.True(t, svc.LoggedIn(1))
	assert.NoError(t, svc.Login(1, "anything"))
}

func TestLoginAndSession(t *testing.T) {
	salt := []byte("0123456789abcdef")
	cfg := &config.Config{AdminPasswordHash: encodeHash("hunter2", salt)}
	svc := NewService(nil, nil, nil, cfg)

	assert.True(t, svc.RequiresLogin())
	assert.False(t, svc.LoggedIn(1))

	assert.ErrorIs(t, svc.Login(1, "wrong"), common.ErrWrongPassword)
	assert.False(t, svc.LoggedIn(1))

	require.NoError(t, svc.Login(1, "hunter2"))
	assert.True(t, svc.LoggedIn(1))
	// Sessions are per admin.
	assert.False(t, svc.LoggedIn(2))
}

func TestLoginThrottle(t *testing.T) {
	salt := []byte("0123456789abcdef")
	cfg := &config.Config{AdminPasswordHash: encodeHash("hunter2", salt)}
	svc := NewService(nil, nil, nil, cfg)

	for i := 0; i < maxLoginAttempts; i++ {
		assert.ErrorIs(t, svc.Login(7, "wrong"), common.ErrWrongPassword)
	}
	// Even the right password bounces while throttled.
	assert.ErrorIs(t, svc.Login(7, "hunter2"), common.ErrTooManyAttempts)

	// Another admin is unaffected.
	assert.ErrorIs(t, svc.Login(8, "wrong"), common.ErrWrongPassword)
}

func TestWarnBelowThreshold(t *testing.T) {
	store := &fakeModStore{}
	warnings := &fakeWarnings{}
	svc := NewService(store, warnings, nil, &config.Config{MaxWarnings: 3})

	count, autoBanned, err := svc.Warn(context.Background(), 1, &reporters.Reporter{TelegramID: 9}, "spam")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, autoBanned)
	assert.Empty(t, store.bans)
	assert.Equal(t, []string{ActionWarn}, store.audits)
}

// Reaching the maximum triggers exactly one automatic ban, attributed to
// escalation rather than a direct admin decision.
func TestWarnEscalatesAtThreshold(t *testing.T) {
	store := &fakeModStore{}
	warnings := &fakeWarnings{count: 2}
	svc := NewService(store, warnings, nil, &config.Config{MaxWarnings: 3})

	count, autoBanned, err := svc.Warn(context.Background(), 1, &reporters.Reporter{TelegramID: 9, Username: "niner"}, "spam again")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.True(t, autoBanned)

	require.Len(t, store.bans, 1)
	assert.Equal(t, ActionAutoBan, store.bans[0].action)
	assert.Equal(t, int64(9), store.bans[0].targetID)
	assert.Contains(t, store.bans[0].reason, "3 warnings")
	// The warning itself is still audited separately from the ban.
	assert.Equal(t, []string{ActionWarn}, store.audits)
}

// MAX_WARNINGS=0 disables escalation no matter how high the count climbs.
func TestWarnNeverEscalatesWhenDisabled(t *testing.T) {
	store := &fakeModStore{}
	warnings := &fakeWarnings{count: 41}
	svc := NewService(store, warnings, nil, &config.Config{MaxWarnings: 0})

	count, autoBanned, err := svc.Warn(context.Background(), 1, &reporters.Reporter{TelegramID: 9}, "spam")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.False(t, autoBanned)
	assert.Empty(t, store.bans)
}

// Warning an already-banned user past the threshold is not an error and does
// not report a fresh auto-ban.
func TestWarnAlreadyBannedTarget(t *testing.T) {
	store := &fakeModStore{banErr: common.ErrAlreadyBanned}
	warnings := &fakeWarnings{count: 2}
	svc := NewService(store, warnings, nil, &config.Config{MaxWarnings: 3})

	count, autoBanned, err := svc.Warn(context.Background(), 1, &reporters.Reporter{TelegramID: 9}, "spam")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.False(t, autoBanned)
}

func TestManualBanUsesBanAction(t *testing.T) {
	store := &fakeModStore{}
	svc := NewService(store, nil, nil, &config.Config{})

	require.NoError(t, svc.Ban(context.Background(), 1, &reporters.Reporter{TelegramID: 9}, "abuse"))
	require.Len(t, store.bans, 1)
	assert.Equal(t, ActionBan, store.bans[0].action)
}
