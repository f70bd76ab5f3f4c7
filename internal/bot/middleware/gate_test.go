package middleware

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBanChecker struct {
	banned map[int64]bool
	err    error
}

func (f *fakeBanChecker) IsBanned(ctx context.Context, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.banned[userID], nil
}

type fakeGateSender struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
}

func (f *fakeGateSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeGateSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func commandUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}}
}

func gateHarness(checker BanChecker) (HandlerFunc, *fakeGateSender, *int) {
	sender := &fakeGateSender{}
	calls := 0
	next := func(ctx context.Context, update tgbotapi.Update) { calls++ }
	return BanGate(checker, sender)(next), sender, &calls
}

func TestBanGateBlocksBannedUser(t *testing.T) {
	checker := &fakeBanChecker{banned: map[int64]bool{7: true}}
	h, sender, calls := gateHarness(checker)

	h(context.Background(), commandUpdate(7, "/report"))

	assert.Equal(t, 0, *calls)
	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "banned")
}

// /start must pass the gate even for a banned user, so re-onboarding after an
// unban is always possible.
func TestBanGateAllowsStartForBannedUser(t *testing.T) {
	checker := &fakeBanChecker{banned: map[int64]bool{7: true}}
	h, sender, calls := gateHarness(checker)

	h(context.Background(), commandUpdate(7, "/start"))

	assert.Equal(t, 1, *calls)
	assert.Empty(t, sender.sent)
}

func TestBanGateAnswersBannedCallback(t *testing.T) {
	checker := &fakeBanChecker{banned: map[int64]bool{7: true}}
	h, sender, calls := gateHarness(checker)

	h(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 7},
		Data: "zone_Bugis",
	}})

	assert.Equal(t, 0, *calls)
	assert.Len(t, sender.requested, 1)
}

func TestBanGatePassesCleanUser(t *testing.T) {
	checker := &fakeBanChecker{banned: map[int64]bool{7: true}}
	h, sender, calls := gateHarness(checker)

	h(context.Background(), commandUpdate(8, "/report"))

	assert.Equal(t, 1, *calls)
	assert.Empty(t, sender.sent)
}

// A storage failure fails open rather than muting everyone.
func TestBanGateFailsOpenOnStoreError(t *testing.T) {
	checker := &fakeBanChecker{err: errors.New("connection refused")}
	h, _, calls := gateHarness(checker)

	h(context.Background(), commandUpdate(7, "/report"))

	assert.Equal(t, 1, *calls)
}
