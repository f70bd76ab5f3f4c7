package sightings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
)

func newFlowService() *Service {
	cfg := &config.Config{
		SessionTTL:           time.Minute,
		DescriptionMaxLength: 100,
	}
	return NewService(nil, NewSessionStore(cfg.SessionTTL), nil, cfg)
}

func TestReportFlowManualZone(t *testing.T) {
	svc := newFlowService()

	sess := svc.StartReport(42)
	assert.Equal(t, StateAwaitingLocation, sess.State)

	require.NoError(t, svc.SetZone(42, "bugis"))
	sess = svc.Session(42)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingDescription, sess.State)
	// The zone name is canonicalized.
	assert.Equal(t, "Bugis", sess.Draft.Zone)
	assert.False(t, sess.Draft.HasGPS())

	require.NoError(t, svc.SetDescription(42, "  2 wardens <b>here</b> "))
	sess = svc.Session(42)
	assert.Equal(t, StateAwaitingConfirmation, sess.State)
	require.NotNil(t, sess.Draft.Description)
	assert.Equal(t, "2 wardens here", *sess.Draft.Description)
}

func TestReportFlowGPS(t *testing.T) {
	svc := newFlowService()
	svc.StartReport(42)

	// On the Tanjong Pagar centroid.
	res, err := svc.SetLocationGPS(42, 1.2764, 103.8460)
	require.NoError(t, err)
	assert.Equal(t, "Tanjong Pagar", res.Zone)
	assert.False(t, res.FarFromZone)

	sess := svc.Session(42)
	assert.True(t, sess.Draft.HasGPS())
	assert.Equal(t, StateAwaitingDescription, sess.State)

	require.NoError(t, svc.SkipDescription(42))
	assert.Nil(t, svc.Session(42).Draft.Description)
}

func TestReportFlowGPSFarFromAnyZone(t *testing.T) {
	svc := newFlowService()
	svc.StartReport(42)

	// Tuas, far west of every centroid: nearest zone still resolves but the
	// caller gets a distance warning.
	res, err := svc.SetLocationGPS(42, 1.2966, 103.6366)
	require.NoError(t, err)
	assert.True(t, res.FarFromZone)
	assert.Greater(t, res.DistanceM, nearZoneMaxM)
}

func TestReportFlowRejectsUnknownZone(t *testing.T) {
	svc := newFlowService()
	svc.StartReport(42)

	assert.Error(t, svc.SetZone(42, "Atlantis"))
	// The session is untouched and still usable.
	assert.Equal(t, StateAwaitingLocation, svc.Session(42).State)
}

func TestReportFlowWrongState(t *testing.T) {
	svc := newFlowService()
	svc.StartReport(42)

	// Description before location.
	assert.ErrorIs(t, svc.SetDescription(42, "text"), common.ErrWrongState)

	require.NoError(t, svc.SetZone(42, "Bugis"))
	// Location after the zone is set.
	_, err := svc.SetLocationGPS(42, 1.3, 103.8)
	assert.ErrorIs(t, err, common.ErrWrongState)
}

func TestReportFlowCancel(t *testing.T) {
	svc := newFlowService()

	assert.False(t, svc.Cancel(42))
	svc.StartReport(42)
	assert.True(t, svc.Cancel(42))
	assert.Nil(t, svc.Session(42))
}

// A validator rejection must not consume the session: the draft stays at the
// confirmation step so the reporter can retry, cancel, or let the TTL evict it.
func TestConfirmRejectionKeepsSession(t *testing.T) {
	cfg := &config.Config{
		SessionTTL:           time.Minute,
		DescriptionMaxLength: 100,
		MaxReportsPerWindow:  3,
		RateWindow:           time.Hour,
		DuplicateWindow:      5 * time.Minute,
		DuplicateRadiusM:     200,
	}
	now := time.Now()
	v := NewValidator(&fakeStore{count: 3, oldest: now.Add(-40 * time.Minute)}, cfg)
	v.now = func() time.Time { return now }
	svc := NewService(nil, NewSessionStore(cfg.SessionTTL), v, cfg)

	svc.StartReport(42)
	require.NoError(t, svc.SetZone(42, "Bugis"))
	require.NoError(t, svc.SkipDescription(42))

	res, err := svc.Confirm(context.Background(), 42, "tester")
	require.NoError(t, err)
	require.NotNil(t, res.Rejection)
	assert.Equal(t, RejectRateLimited, res.Rejection.Reason)

	sess := svc.Session(42)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingConfirmation, sess.State)
	assert.Equal(t, "Bugis", sess.Draft.Zone)

	// A second confirm reaches the validator again instead of failing on a
	// missing session.
	res, err = svc.Confirm(context.Background(), 42, "tester")
	require.NoError(t, err)
	require.NotNil(t, res.Rejection)
}

func TestEmptyDescriptionTreatedAsSkip(t *testing.T) {
	svc := newFlowService()
	svc.StartReport(42)
	require.NoError(t, svc.SetZone(42, "Bugis"))

	require.NoError(t, svc.SetDescription(42, "<br/>  "))
	sess := svc.Session(42)
	assert.Equal(t, StateAwaitingConfirmation, sess.State)
	assert.Nil(t, sess.Draft.Description)
}
