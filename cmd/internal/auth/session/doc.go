// Package session implements taskward's refresh-session store.
//
// Each user owns one Redis hash keyed "users_token_data:<login>"; fields are
// device fingerprints, values are serialized session records holding the
// refresh-token hash and its expiry window. At most one live session exists
// per (login, fingerprint) and at most MaxSessions (default 5) fingerprints
// exist per login.
//
// Rotation is replace-not-merge: every successful refresh deletes the old
// record and inserts a wholly new one, which invalidates the just-used
// refresh token immediately (single-use refresh tokens).
//
// Correctness under concurrent refresh attempts for one fingerprint relies
// on Redis's atomic per-field operations, not in-process locks; a lost race
// resolves to "last rotation wins, the loser fails on next use with
// ErrRefreshTokenMismatch".
package session
