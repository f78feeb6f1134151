package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are opt-in and require TASKWARD_TEST_DATABASE_URL.
// They create a throwaway users table per run and drop it afterwards.

func TestPostgresStore_CreateAndGet(t *testing.T) {
	pool, table := mustOpenTestStore(t)
	defer pool.Close()

	s := mustNewStore(t, pool, table)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, err := s.Create(ctx, CreateUserInput{
		Login:        "u1",
		Name:         "Nina",
		Surname:      "Soto",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if len(created.Roles) != 1 || created.Roles[0] != RoleUser {
		t.Fatalf("expected default role set, got %v", created.Roles)
	}

	got, err := s.GetByLogin(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || got.Login != "u1" || got.Name != "Nina" {
		t.Fatalf("row mismatch: %+v", got)
	}
	if got.Logged {
		t.Fatalf("fresh user must not be logged")
	}
}

func TestPostgresStore_Create_LoginTaken(t *testing.T) {
	pool, table := mustOpenTestStore(t)
	defer pool.Close()

	s := mustNewStore(t, pool, table)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	in := CreateUserInput{Login: "dup", PasswordHash: "$2a$10$x"}
	if _, err := s.Create(ctx, in); err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, err := s.Create(ctx, in); !errors.Is(err, ErrLoginTaken) {
		t.Fatalf("expected ErrLoginTaken, got %v", err)
	}
}

func TestPostgresStore_GetByLogin_NotFound(t *testing.T) {
	pool, table := mustOpenTestStore(t)
	defer pool.Close()

	s := mustNewStore(t, pool, table)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := s.GetByLogin(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPostgresStore_SetLogged(t *testing.T) {
	pool, table := mustOpenTestStore(t)
	defer pool.Close()

	s := mustNewStore(t, pool, table)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := s.Create(ctx, CreateUserInput{Login: "flag", PasswordHash: "$2a$10$x"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.SetLogged(ctx, "flag", true); err != nil {
		t.Fatalf("set logged: %v", err)
	}
	got, err := s.GetByLogin(ctx, "flag")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Logged {
		t.Fatalf("expected logged=true")
	}

	// Unknown login is a no-op, not an error.
	if err := s.SetLogged(ctx, "missing", true); err != nil {
		t.Fatalf("set logged for missing login: %v", err)
	}
}

// ---- helpers ----

func mustOpenTestStore(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("TASKWARD_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: TASKWARD_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, raw)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	table := fmt.Sprintf("users_it_%d", rand.Int63())
	_, err = pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE %s (
		     id BIGSERIAL PRIMARY KEY,
		     login TEXT NOT NULL UNIQUE,
		     name TEXT,
		     surname TEXT,
		     password TEXT,
		     roles SMALLINT[],
		     logged BOOLEAN DEFAULT FALSE
		 )`, table))
	if err != nil {
		pool.Close()
		t.Skipf("integration test skipped: cannot create test table: %v", err)
	}

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		_, _ = pool.Exec(dropCtx, "DROP TABLE IF EXISTS "+table)
	})

	return pool, table
}

func mustNewStore(t *testing.T, pool *pgxpool.Pool, table string) *PostgresStore {
	t.Helper()

	s, err := NewPostgresStore(pool, WithTable(table))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	return s
}
