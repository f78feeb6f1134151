package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewFingerprint derives a fingerprint for clients that did not present one.
//
// The value is a hex SHA-256 over the login and 32 random bytes, so it is
// unguessable and collision-free per login. Clients must echo it back on
// logout and reissue; a session minted under a generated fingerprint is
// unreachable without it.
func NewFingerprint(login string) (string, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("auth: fingerprint nonce: %w", err)
	}

	sum := sha256.Sum256([]byte(login + ":" + hex.EncodeToString(nonce[:])))
	return hex.EncodeToString(sum[:]), nil
}
