package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/features/reporters"
	"parkwatch.sg/telegram-bot/internal/features/sightings"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []int64
	blocked map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked[msg.ChatID] {
		return tgbotapi.Message{}, &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	}
	f.sent = append(f.sent, msg.ChatID)
	return tgbotapi.Message{}, nil
}

type fakeSubs struct {
	mu          sync.Mutex
	subscribers []int64
	cleared     []int64
}

func (f *fakeSubs) SubscribersOf(ctx context.Context, zone string) ([]int64, error) {
	return f.subscribers, nil
}

func (f *fakeSubs) Clear(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeTrust struct{}

func (fakeTrust) Accuracy(ctx context.Context, userID int64) (reporters.Accuracy, error) {
	return reporters.Accuracy{Score: 0.9, Positive: 9, Negative: 1}, nil
}

func (fakeTrust) AccuracyIndicator(a reporters.Accuracy) string { return "✅" }

func testSighting() *sightings.Sighting {
	desc := "2 wardens near the market"
	return &sightings.Sighting{
		ID:            "00000000-0000-0000-0000-000000000001",
		Zone:          "Bugis",
		Description:   &desc,
		ReportedAt:    time.Now().Add(-2 * time.Minute),
		ReporterID:    99,
		ReporterName:  "alice",
		ReporterBadge: "⭐ Regular",
	}
}

func TestDispatchDeliversAndPrunes(t *testing.T) {
	sender := &fakeSender{blocked: map[int64]bool{2: true, 4: true}}
	subs := &fakeSubs{subscribers: []int64{1, 2, 3, 4, 5, 99}}

	d := NewDispatcher(sender, subs, fakeTrust{}, 4)
	summary := d.Dispatch(context.Background(), testSighting())

	// The reporter is excluded; the two blocked chats are pruned, not fatal.
	assert.Equal(t, 5, summary.Attempted)
	assert.Equal(t, 3, summary.Delivered)
	assert.Equal(t, 2, summary.Pruned)
	assert.ElementsMatch(t, []int64{1, 3, 5}, sender.sent)
	assert.ElementsMatch(t, []int64{2, 4}, subs.cleared)
}

func TestDispatchNoSubscribers(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, &fakeSubs{}, fakeTrust{}, 4)

	summary := d.Dispatch(context.Background(), testSighting())
	assert.Equal(t, sightings.DispatchSummary{}, summary)
	assert.Empty(t, sender.sent)
}

func TestRenderAlert(t *testing.T) {
	s := testSighting()
	text := RenderAlert(s, "✅")

	assert.Contains(t, text, "WARDEN ALERT — Bugis")
	assert.Contains(t, text, "2 wardens near the market")
	assert.Contains(t, text, "⭐ Regular alice ✅")
	assert.Contains(t, text, "Was this report accurate?")
	assert.NotContains(t, text, "flagged")
}

func TestRenderAlertFlagged(t *testing.T) {
	s := testSighting()
	s.Flagged = true
	assert.Contains(t, RenderAlert(s, ""), "flagged by the community")
}

func TestFeedbackKeyboard(t *testing.T) {
	s := testSighting()
	s.FeedbackPositive = 3
	s.FeedbackNegative = 1

	kb := FeedbackKeyboard(s)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)

	pos := kb.InlineKeyboard[0][0]
	neg := kb.InlineKeyboard[0][1]
	assert.Contains(t, pos.Text, "(3)")
	assert.Equal(t, "feedback_pos_"+s.ID, *pos.CallbackData)
	assert.Contains(t, neg.Text, "(1)")
	assert.Equal(t, "feedback_neg_"+s.ID, *neg.CallbackData)
}
