package identity

import "errors"

var (
	// ErrLoginTaken is returned when registration collides with an existing login.
	ErrLoginTaken = errors.New("login already taken")

	// ErrUserNotFound is returned when no user exists for the given login or id.
	ErrUserNotFound = errors.New("user not found")
)
