package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresStore implements the user directory over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Storage-layer errors are mapped to identity sentinels at this boundary so
// nothing pgx-shaped leaks to the orchestrator.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithTable overrides the users table name (default "users").
// The name is validated to be a legal PostgreSQL identifier.
func WithTable(table string) PostgresOption {
	return func(s *PostgresStore) error {
		table = strings.TrimSpace(table)
		if !pgIdentRe.MatchString(table) {
			return fmt.Errorf("identity: invalid table identifier")
		}
		s.table = table
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	st := &PostgresStore{pool: pool, table: "users"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Create inserts a new user row and returns it with the generated id.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" {
		return User{}, fmt.Errorf("identity: empty login")
	}
	if in.PasswordHash == "" {
		return User{}, fmt.Errorf("identity: empty password hash")
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table+` (login, name, surname, password, roles, logged)
		 VALUES ($1, $2, $3, $4, $5, FALSE)
		 RETURNING id`,
		login, in.Name, in.Surname, in.PasswordHash, rolesToInt16(roles),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrLoginTaken
		}
		return User{}, fmt.Errorf("identity: create user: %w", err)
	}

	return User{
		ID:           id,
		Login:        login,
		Name:         in.Name,
		Surname:      in.Surname,
		PasswordHash: in.PasswordHash,
		Roles:        roles,
	}, nil
}

// GetByLogin loads a user by login.
func (s *PostgresStore) GetByLogin(ctx context.Context, login string) (User, error) {
	var (
		u     User
		roles []int16
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, login, COALESCE(name, ''), COALESCE(surname, ''),
		        COALESCE(password, ''), COALESCE(roles, '{}'), COALESCE(logged, FALSE)
		 FROM `+s.table+`
		 WHERE login = $1`,
		login,
	).Scan(&u.ID, &u.Login, &u.Name, &u.Surname, &u.PasswordHash, &roles, &u.Logged)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("identity: get user: %w", err)
	}

	u.Roles = rolesFromInt16(roles)
	return u, nil
}

// SetLogged flips the "logged" flag. Unknown logins are a no-op.
func (s *PostgresStore) SetLogged(ctx context.Context, login string, logged bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE `+s.table+` SET logged = $2 WHERE login = $1`,
		login, logged,
	)
	if err != nil {
		return fmt.Errorf("identity: set logged: %w", err)
	}
	return nil
}

func rolesToInt16(roles []Role) []int16 {
	out := make([]int16, len(roles))
	for i, r := range roles {
		out[i] = int16(r)
	}
	return out
}

func rolesFromInt16(raw []int16) []Role {
	out := make([]Role, len(raw))
	for i, r := range raw {
		out[i] = Role(r)
	}
	return out
}
