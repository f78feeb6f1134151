package auth

import "errors"

var (
	// ErrInvalidPassword is returned by Login when the supplied password
	// does not match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")
)
