package session

import "time"

// DefaultKeyPrefix is the Redis key prefix for per-login session buckets.
const DefaultKeyPrefix = "users_token_data"

// DefaultMaxSessions bounds concurrent sessions (distinct fingerprints) per login.
const DefaultMaxSessions = 5

// Config defines runtime configuration for the session store.
type Config struct {
	// KeyPrefix prefixes every bucket key ("<prefix>:<login>").
	KeyPrefix string

	// MaxSessions is the per-login concurrency cap enforced on login.
	// Rotation of an existing slot is never blocked by the cap.
	MaxSessions int

	// RefreshTTL is the refresh-token lifetime. It feeds both the record's
	// expires_in and the bucket-level Redis TTL.
	RefreshTTL time.Duration
}

// DefaultConfig returns production defaults (2-day refresh window, 5 sessions).
func DefaultConfig() Config {
	return Config{
		KeyPrefix:   DefaultKeyPrefix,
		MaxSessions: DefaultMaxSessions,
		RefreshTTL:  48 * time.Hour,
	}
}

func (c Config) validate() error {
	if c.KeyPrefix == "" || c.MaxSessions <= 0 || c.RefreshTTL <= 0 {
		return ErrConfig
	}
	return nil
}
