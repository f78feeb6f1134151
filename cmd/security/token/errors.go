package token

import "errors"

// Public, stable errors for callers.
var (
	// ErrTokenExpired is returned when a token's embedded expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken is returned when signature verification fails or the
	// payload is malformed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid codec configuration.
	ErrConfig = errors.New("invalid token config")
)
