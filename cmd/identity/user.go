package identity

// Role is a coarse authorization class stored as a small integer.
type Role int16

const (
	// RoleAdmin grants administrative rights.
	RoleAdmin Role = 1
	// RoleUser is the default role for self-registered users.
	RoleUser Role = 2
)

// User is taskward's canonical security principal.
//
// PasswordHash must never leave the service boundary; response mapping
// strips it before serialization.
type User struct {
	ID           int64
	Login        string
	Name         string
	Surname      string
	PasswordHash string
	Roles        []Role

	// Logged mirrors whether the user currently holds a session. It is
	// best-effort and not authoritative for authorization decisions.
	Logged bool
}
