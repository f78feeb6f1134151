// Package token implements taskward's token primitives.
//
// Access tokens are compact JWTs signed with HMAC-SHA256 and carry the
// user's login, display names, and role set with an absolute expiry.
// Refresh tokens are opaque random identifiers: the client receives the
// plaintext exactly once and the server keeps only a one-way hash.
//
// Expired and otherwise-invalid access tokens yield distinct errors so
// callers can log the difference; the HTTP gate collapses both into one
// uniform unauthorized response.
package token
