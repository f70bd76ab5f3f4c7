package sightings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/config"
)

type fakeStore struct {
	count  int
	oldest time.Time
	recent []*Sighting
}

func (f *fakeStore) CountByReporterSince(ctx context.Context, reporterID int64, since time.Time) (int, error) {
	return f.count, nil
}

func (f *fakeStore) OldestByReporterSince(ctx context.Context, reporterID int64, since time.Time) (time.Time, error) {
	return f.oldest, nil
}

func (f *fakeStore) RecentByZone(ctx context.Context, zone string, since time.Time) ([]*Sighting, error) {
	return f.recent, nil
}

func validatorCfg() *config.Config {
	return &config.Config{
		MaxReportsPerWindow: 3,
		RateWindow:          time.Hour,
		DuplicateWindow:     5 * time.Minute,
		DuplicateRadiusM:    200,
	}
}

func newTestValidator(store *fakeStore, now time.Time) *Validator {
	v := NewValidator(store, validatorCfg())
	v.now = func() time.Time { return now }
	return v
}

func ptr[T any](v T) *T { return &v }

func TestValidateAcceptsCleanDraft(t *testing.T) {
	now := time.Now()
	v := newTestValidator(&fakeStore{count: 0}, now)

	rej, err := v.Validate(context.Background(), 1, &Draft{Zone: "Bugis"})
	require.NoError(t, err)
	assert.Nil(t, rej)
}

func TestValidateRateLimit(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		count:  3,
		oldest: now.Add(-40 * time.Minute),
	}
	v := newTestValidator(store, now)

	rej, err := v.Validate(context.Background(), 1, &Draft{Zone: "Bugis"})
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectRateLimited, rej.Reason)
	assert.Equal(t, 3, rej.MaxPerWindow)
	assert.Equal(t, time.Hour, rej.Window)
	// The oldest counted report ages out 20 minutes from now.
	assert.InDelta(t, (20 * time.Minute).Seconds(), rej.Wait.Seconds(), 1)
}

func TestValidateRateCheckedBeforeDuplicate(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		count:  3,
		oldest: now.Add(-10 * time.Minute),
		recent: []*Sighting{{Zone: "Bugis", ReportedAt: now.Add(-time.Minute)}},
	}
	v := newTestValidator(store, now)

	rej, err := v.Validate(context.Background(), 1, &Draft{Zone: "Bugis"})
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectRateLimited, rej.Reason)
}

func TestValidateDuplicateWithGPS(t *testing.T) {
	now := time.Now()
	prev := &Sighting{
		Zone:       "Bugis",
		ReportedAt: now.Add(-2 * time.Minute),
		Lat:        ptr(1.3009),
		Lng:        ptr(103.8559),
	}
	v := newTestValidator(&fakeStore{recent: []*Sighting{prev}}, now)

	// ~111m north of the previous report: inside the 200m radius.
	draft := &Draft{Zone: "Bugis", Lat: ptr(1.3019), Lng: ptr(103.8559)}
	rej, err := v.Validate(context.Background(), 1, draft)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectDuplicate, rej.Reason)
	assert.False(t, rej.GPSHint)
	assert.InDelta(t, 111, rej.DistanceM, 5)
	assert.Equal(t, 2, rej.AgeMinutes)
}

func TestValidateGPSOutsideRadiusAccepted(t *testing.T) {
	now := time.Now()
	prev := &Sighting{
		Zone:       "Bugis",
		ReportedAt: now.Add(-2 * time.Minute),
		Lat:        ptr(1.3009),
		Lng:        ptr(103.8559),
	}
	v := newTestValidator(&fakeStore{recent: []*Sighting{prev}}, now)

	// ~550m away: two wardens in the same zone are both worth knowing about.
	draft := &Draft{Zone: "Bugis", Lat: ptr(1.3059), Lng: ptr(103.8559)}
	rej, err := v.Validate(context.Background(), 1, draft)
	require.NoError(t, err)
	assert.Nil(t, rej)
}

func TestValidateZoneFallbackWithoutGPS(t *testing.T) {
	now := time.Now()
	prev := &Sighting{Zone: "Bugis", ReportedAt: now.Add(-3 * time.Minute)}
	v := newTestValidator(&fakeStore{recent: []*Sighting{prev}}, now)

	// Neither side has coordinates: any same-zone report in the window matches
	// and the rejection nudges the reporter to share GPS next time.
	rej, err := v.Validate(context.Background(), 1, &Draft{Zone: "Bugis"})
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectDuplicate, rej.Reason)
	assert.True(t, rej.GPSHint)
	assert.Equal(t, 3, rej.AgeMinutes)
}

func TestValidateMixedGPSFallsBackToZone(t *testing.T) {
	now := time.Now()
	prev := &Sighting{
		Zone:       "Bugis",
		ReportedAt: now.Add(-1 * time.Minute),
		Lat:        ptr(1.3009),
		Lng:        ptr(103.8559),
	}
	v := newTestValidator(&fakeStore{recent: []*Sighting{prev}}, now)

	rej, err := v.Validate(context.Background(), 1, &Draft{Zone: "Bugis"})
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.True(t, rej.GPSHint)
}

func TestRejectionMessages(t *testing.T) {
	rate := &Rejection{Reason: RejectRateLimited, Wait: 19*time.Minute + 30*time.Second, MaxPerWindow: 3, Window: time.Hour}
	assert.Contains(t, rate.Message(), "3 reports per hour")
	assert.Contains(t, rate.Message(), "20 minute")

	dup := &Rejection{Reason: RejectDuplicate, DistanceM: 111.4, AgeMinutes: 2, Zone: "Bugis"}
	assert.Contains(t, dup.Message(), "111m away")
	assert.Contains(t, dup.Message(), "Bugis")

	hint := &Rejection{Reason: RejectDuplicate, AgeMinutes: 3, Zone: "Bugis", GPSHint: true}
	assert.Contains(t, hint.Message(), "GPS")
}

// The rate-limit text follows the configured window rather than assuming an
// hour.
func TestRejectionMessageRendersConfiguredWindow(t *testing.T) {
	halfHour := &Rejection{Reason: RejectRateLimited, Wait: 5 * time.Minute, MaxPerWindow: 5, Window: 30 * time.Minute}
	assert.Contains(t, halfHour.Message(), "5 reports per 30 minutes")

	twoHours := &Rejection{Reason: RejectRateLimited, Wait: 5 * time.Minute, MaxPerWindow: 10, Window: 2 * time.Hour}
	assert.Contains(t, twoHours.Message(), "10 reports per 2 hours")
}

// A validator over a shorter-than-default window stamps that window on the
// rejection it returns.
func TestValidateRateLimitCarriesWindow(t *testing.T) {
	now := time.Now()
	cfg := validatorCfg()
	cfg.RateWindow = 30 * time.Minute
	cfg.MaxReportsPerWindow = 2
	store := &fakeStore{count: 2, oldest: now.Add(-10 * time.Minute)}
	v := NewValidator(store, cfg)
	v.now = func() time.Time { return now }

	rej, err := v.Validate(context.Background(), 1, &Draft{Zone: "Bugis"})
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, 30*time.Minute, rej.Window)
	assert.Contains(t, rej.Message(), "2 reports per 30 minutes")
}
