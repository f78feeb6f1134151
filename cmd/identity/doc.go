// Package identity is taskward's user directory.
//
// It owns the users table: numeric ids, unique logins, display names, the
// password hash, the role set, and the best-effort "logged" flag toggled on
// login/logout. Session state lives elsewhere (cmd/internal/auth/session).
package identity
