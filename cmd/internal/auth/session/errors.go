package session

import "errors"

var (
	// ErrTooManySessions is returned when creating a session would exceed
	// the per-login concurrency cap. Maps to admission-control rejection
	// (HTTP 429) at the API boundary.
	ErrTooManySessions = errors.New("too many concurrent sessions")

	// ErrSessionNotFound is returned when no record exists for the given
	// (login, fingerprint) pair.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRefreshTokenMismatch is returned when the presented refresh token
	// does not verify against the stored hash.
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")

	// ErrRefreshTokenExpired is returned when the record's expiry window has
	// elapsed.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrConfig is returned for invalid store configuration.
	ErrConfig = errors.New("invalid session config")
)
