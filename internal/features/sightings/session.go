// Package sightings — session.go: the per-reporter draft session.
//
// One session exists per actor while a report is in progress. Sessions live
// in an in-memory TTL store keyed by actor id; an expired session stops
// accepting transitions and is evicted lazily on access plus by a periodic
// sweep. Storage is behind Begin/Get/Advance/End so the state machine logic
// does not care how sessions are kept.
package sightings

import (
	"sync"
	"time"

	"parkwatch.sg/telegram-bot/internal/common"
)

// SessionState is a step of the report flow.
type SessionState int

const (
	StateAwaitingLocation SessionState = iota
	StateAwaitingDescription
	StateAwaitingConfirmation
	StateSubmitted
	StateCancelled
	StateTimedOut
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingLocation:
		return "awaiting_location"
	case StateAwaitingDescription:
		return "awaiting_description"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are accepted.
func (s SessionState) Terminal() bool {
	return s == StateSubmitted || s == StateCancelled || s == StateTimedOut
}

// Session is one in-progress report.
type Session struct {
	ActorID   int64
	State     SessionState
	Draft     Draft
	ExpiresAt time.Time
}

// SessionStore keeps at most one live session per actor.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]*Session
}

// NewSessionStore creates a store with the given inactivity TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[int64]*Session),
	}
}

// Begin starts a fresh session for the actor. A live session for the same
// actor is replaced: a second /report never runs concurrently with the first.
func (st *SessionStore) Begin(actorID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &Session{
		ActorID:   actorID,
		State:     StateAwaitingLocation,
		ExpiresAt: time.Now().Add(st.ttl),
	}
	st.sessions[actorID] = s
	copy := *s
	return &copy
}

// Get returns a copy of the actor's live session, or nil when there is none
// or it has expired (expired sessions are evicted on the spot).
func (st *SessionStore) Get(actorID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[actorID]
	if !ok {
		return nil
	}
	if time.Now().After(s.ExpiresAt) {
		delete(st.sessions, actorID)
		return nil
	}
	copy := *s
	return &copy
}

// Advance applies fn to the actor's live session under the store lock and
// refreshes the inactivity deadline. Returns common.ErrNoSession when the
// session is missing, expired or already terminal; fn errors pass through
// without touching the deadline.
func (st *SessionStore) Advance(actorID int64, fn func(*Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[actorID]
	if !ok {
		return common.ErrNoSession
	}
	if time.Now().After(s.ExpiresAt) {
		delete(st.sessions, actorID)
		return common.ErrNoSession
	}
	if s.State.Terminal() {
		return common.ErrNoSession
	}

	if err := fn(s); err != nil {
		return err
	}
	if s.State.Terminal() {
		delete(st.sessions, actorID)
		return nil
	}
	s.ExpiresAt = time.Now().Add(st.ttl)
	return nil
}

// End discards the actor's session, if any.
func (st *SessionStore) End(actorID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, actorID)
}

// SweepExpired evicts every expired session and returns how many were
// removed. Run periodically so abandoned sessions release their slot.
func (st *SessionStore) SweepExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, s := range st.sessions {
		if now.After(s.ExpiresAt) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions (for health reporting).
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
