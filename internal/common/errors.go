// Package common — errors.go defines the sentinel errors shared by all
// modules of the bot. Handlers match them with errors.Is to pick the right
// user-facing reply.
package common

import "errors"

// Validation rejections — recoverable, surfaced verbatim to the actor.
var (
	// ErrRateLimited — actor is at the accepted-reports cap for the window.
	ErrRateLimited = errors.New("rate limit reached")
	// ErrDuplicate — a matching sighting already exists in the window.
	ErrDuplicate = errors.New("duplicate report")
)

// Feedback contract violations.
var (
	// ErrSelfVote — a reporter tried to rate their own sighting.
	ErrSelfVote = errors.New("cannot rate your own sighting")
	// ErrSightingNotFound — vote or lookup on a missing/expired sighting.
	ErrSightingNotFound = errors.New("sighting not found")
	// ErrFeedbackClosed — the feedback window for the sighting has passed.
	ErrFeedbackClosed = errors.New("feedback window has closed")
)

// Moderation errors.
var (
	// ErrBanned — the actor is banned; all mutating operations are rejected.
	ErrBanned = errors.New("account restricted")
	// ErrNotBanned — unban target has no active ban.
	ErrNotBanned = errors.New("user is not banned")
	// ErrAlreadyBanned — ban target already has an active ban.
	ErrAlreadyBanned = errors.New("user is already banned")
	// ErrUserNotFound — target user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Admin auth errors.
var (
	// ErrNotAdmin — user is not in the admin set.
	ErrNotAdmin = errors.New("not an admin")
	// ErrWrongPassword — admin login with a bad password.
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts — admin login attempt limit reached.
	ErrTooManyAttempts = errors.New("too many login attempts, wait an hour")
	// ErrSessionExpired — admin session missing or expired.
	ErrSessionExpired = errors.New("session expired, log in again")
)

// Report session errors.
var (
	// ErrNoSession — a flow step arrived without a live report session.
	ErrNoSession = errors.New("no report in progress")
	// ErrWrongState — event does not apply to the session's current state.
	ErrWrongState = errors.New("unexpected input for the current step")
)
