package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func fastConfig() Config {
	// MinCost keeps the test suite quick; production uses DefaultConfig.
	return Config{Cost: bcrypt.MinCost}
}

func TestHashAndVerify_OK(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("s3cret-password", "pepper-a")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !cfg.Verify("s3cret-password", "pepper-a", h) {
		t.Fatalf("expected match")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("s3cret-password", "pepper-a")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if cfg.Verify("other-password", "pepper-a", h) {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_WrongPepper(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("s3cret-password", "pepper-a")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if cfg.Verify("s3cret-password", "pepper-b", h) {
		t.Fatalf("expected mismatch under a different pepper")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	cfg := fastConfig()

	for _, stored := range []string{"", "not-a-hash", "$2a$banana"} {
		if cfg.Verify("whatever", "pepper-a", stored) {
			t.Fatalf("malformed hash %q must not verify", stored)
		}
	}
}

func TestHash_SaltPerCall(t *testing.T) {
	cfg := fastConfig()

	h1, err := cfg.Hash("same-input", "pepper-a")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, err := cfg.Hash("same-input", "pepper-a")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("expected per-call salting to produce distinct hashes")
	}
	if !cfg.Verify("same-input", "pepper-a", h1) || !cfg.Verify("same-input", "pepper-a", h2) {
		t.Fatalf("both hashes must verify")
	}
}

func TestHash_TooLong(t *testing.T) {
	cfg := fastConfig()

	_, err := cfg.Hash(strings.Repeat("x", 80), "pepper-a")
	if err != ErrSecretTooLong {
		t.Fatalf("expected ErrSecretTooLong, got %v", err)
	}
}
