// Package password provides credential hashing and verification for taskward.
//
// It wraps bcrypt with a server-held pepper appended to the secret before
// hashing. The same primitive protects user passwords and stored refresh
// tokens; the two use distinct peppers so a leak of one table does not help
// with the other.
//
// Security notes:
// - bcrypt generates its own per-call salt, so two hashes of the same input
//   differ byte-wise but verify as equal.
// - Stored hashes are treated as untrusted input during Verify; a malformed
//   hash verifies as false rather than erroring.
package password
