// Package authapi exposes the auth service over HTTP.
//
// Register and login accept form bodies; logout and reissue are driven by
// the Authorization, X-Fingerprint and X-Refresh-Token headers. Token
// validation failures are reported with one constant 401 shape so callers
// cannot tell an expired token from a forged one.
package authapi
