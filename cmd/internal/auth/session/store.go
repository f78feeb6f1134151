package session

import "context"

// Store abstracts persistence for refresh-session state.
//
// Implementations must keep per-field operations atomic; callers rely on
// that for rotation safety (see package doc).
type Store interface {
	// Put upserts the record for (login, fingerprint); last write wins,
	// records are replaced whole, never merged.
	//
	// With enforceCap, creating a session for a previously unseen
	// fingerprint fails with ErrTooManySessions once the login already
	// holds MaxSessions fingerprints. Re-login from a known fingerprint
	// replaces its slot and never counts against the cap.
	Put(ctx context.Context, login, fingerprint string, rec Record, enforceCap bool) error

	// ValidateRefreshToken checks the presented plaintext against the
	// stored record.
	//
	// Fails with ErrSessionNotFound when the bucket or field is absent,
	// ErrRefreshTokenMismatch when hash verification fails, and
	// ErrRefreshTokenExpired when the record's window has elapsed.
	// On success it returns the stored record; callers rotate by replacing
	// the whole record, never by partial mutation.
	ValidateRefreshToken(ctx context.Context, login, fingerprint, plaintext string) (Record, error)

	// Delete removes the record for (login, fingerprint).
	// Idempotent: deleting an absent record is not an error.
	Delete(ctx context.Context, login, fingerprint string) error
}
