package sightings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
)

func TestSessionLifecycle(t *testing.T) {
	st := NewSessionStore(time.Minute)

	s := st.Begin(42)
	assert.Equal(t, StateAwaitingLocation, s.State)
	require.NotNil(t, st.Get(42))
	assert.Equal(t, 1, st.Len())

	err := st.Advance(42, func(s *Session) error {
		s.Draft.Zone = "Bugis"
		s.State = StateAwaitingDescription
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDescription, st.Get(42).State)
	assert.Equal(t, "Bugis", st.Get(42).Draft.Zone)

	st.End(42)
	assert.Nil(t, st.Get(42))
	assert.ErrorIs(t, st.Advance(42, func(*Session) error { return nil }), common.ErrNoSession)
}

func TestSessionBeginReplacesLiveSession(t *testing.T) {
	st := NewSessionStore(time.Minute)

	st.Begin(7)
	require.NoError(t, st.Advance(7, func(s *Session) error {
		s.Draft.Zone = "Katong"
		s.State = StateAwaitingConfirmation
		return nil
	}))

	// A second /report starts over, discarding the half-built draft.
	fresh := st.Begin(7)
	assert.Equal(t, StateAwaitingLocation, fresh.State)
	assert.Equal(t, "", fresh.Draft.Zone)
	assert.Equal(t, 1, st.Len())
}

func TestSessionExpiry(t *testing.T) {
	st := NewSessionStore(10 * time.Millisecond)
	st.Begin(42)
	time.Sleep(20 * time.Millisecond)

	assert.Nil(t, st.Get(42))
	assert.ErrorIs(t, st.Advance(42, func(*Session) error { return nil }), common.ErrNoSession)
}

func TestSessionTerminalStateEnds(t *testing.T) {
	st := NewSessionStore(time.Minute)
	st.Begin(42)

	err := st.Advance(42, func(s *Session) error {
		s.State = StateSubmitted
		return nil
	})
	require.NoError(t, err)

	// The terminal transition evicted the session.
	assert.Nil(t, st.Get(42))
}

func TestSessionSweepExpired(t *testing.T) {
	st := NewSessionStore(10 * time.Millisecond)
	st.Begin(1)
	st.Begin(2)
	time.Sleep(20 * time.Millisecond)
	st.Begin(3)

	assert.Equal(t, 2, st.SweepExpired())
	assert.Equal(t, 1, st.Len())
	assert.NotNil(t, st.Get(3))
}

func TestSessionGetReturnsCopy(t *testing.T) {
	st := NewSessionStore(time.Minute)
	st.Begin(42)

	got := st.Get(42)
	got.Draft.Zone = "Orchard"
	assert.Equal(t, "", st.Get(42).Draft.Zone)
}
