package session

import "time"

// Record is the serialized per-fingerprint session value.
//
// Field names are part of the storage contract (JSON inside a Redis hash
// field); changing them breaks live deployments.
//
// RefreshTokenHash stores a one-way hash only; the plain refresh token is
// handed to the client exactly once and never persisted.
type Record struct {
	UserID           int64     `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token"`
	ExpiresInMS      int64     `json:"expires_in"`
	CreatedAt        time.Time `json:"created_at"`
}

// ExpiresAt returns the absolute expiry instant of the record.
// expires_in is milliseconds on every code path.
func (r Record) ExpiresAt() time.Time {
	return r.CreatedAt.Add(time.Duration(r.ExpiresInMS) * time.Millisecond)
}

// Expired reports whether the record's expiry window has elapsed at now.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt())
}
