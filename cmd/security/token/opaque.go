package token

import (
	"github.com/google/uuid"

	"taskward/cmd/security/password"
)

// NewOpaqueRefreshToken mints a fresh opaque refresh token.
//
// The plaintext is a random 128-bit UUID handed to the client exactly once;
// only the returned hash (bcrypt under the refresh pepper) may be stored
// server-side. Knowledge of the plaintext is required to pass verification
// and the plaintext is not recoverable from the hash.
func NewOpaqueRefreshToken(hasher password.Config, pepper string) (plain, hash string, err error) {
	plain = uuid.NewString()

	hash, err = hasher.Hash(plain, pepper)
	if err != nil {
		return "", "", err
	}
	return plain, hash, nil
}
