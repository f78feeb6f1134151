package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt operates on at most 72 input bytes; anything longer would be
// silently truncated by older implementations. Reject early instead.
const maxSecretBytes = 72

// Hash returns a bcrypt hash of secret+pepper.
//
// The pepper is a server-held constant that never reaches storage; bcrypt's
// own per-call salt is embedded in the returned hash string.
func (c Config) Hash(secret, pepper string) (string, error) {
	cost := c.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	input := []byte(secret + pepper)
	if len(input) > maxSecretBytes {
		return "", ErrSecretTooLong
	}

	b, err := bcrypt.GenerateFromPassword(input, cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether secret+pepper matches the stored hash.
//
// A malformed or foreign-format hash is a mismatch, not an error: stored
// hashes cross a trust boundary and must never make verification panic or
// fail open.
func (c Config) Verify(secret, pepper, storedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret+pepper))
	if err == nil {
		return true
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false
	}
	// Invalid hash prefix, truncated hash, absurd cost: all mismatch.
	return false
}
