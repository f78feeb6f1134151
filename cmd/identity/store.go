package identity

import "context"

// CreateUserInput describes a registration request.
// Password must already be hashed by the caller; this store never sees
// plaintext credentials.
type CreateUserInput struct {
	Login        string
	Name         string
	Surname      string
	PasswordHash string
	Roles        []Role
}

// Store is the user-directory persistence boundary.
type Store interface {
	// Create inserts a new user row.
	// Returns ErrLoginTaken when the login is already registered.
	Create(ctx context.Context, in CreateUserInput) (User, error)

	// GetByLogin loads a user by its unique login.
	// Returns ErrUserNotFound when absent.
	GetByLogin(ctx context.Context, login string) (User, error)

	// SetLogged flips the best-effort "logged" flag.
	// Flipping the flag for an unknown login is not an error.
	SetLogged(ctx context.Context, login string, logged bool) error
}
