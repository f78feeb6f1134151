// Package auth orchestrates account and session lifecycle: registration,
// login, logout, and refresh rotation.
//
// It composes the identity directory (Postgres), the session store (Redis),
// the password hasher, and the access-token codec. HTTP concerns live in the
// api subpackage; this package works purely in domain terms and reports
// failures through sentinel errors from itself, identity, and session.
package auth
