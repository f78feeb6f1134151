package password

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Config is the single configuration surface for this package.
type Config struct {
	// Cost is the bcrypt work factor. Higher is slower and stronger.
	Cost int
}

// DefaultConfig returns a baseline suitable for interactive logins.
func DefaultConfig() Config {
	return Config{Cost: bcrypt.DefaultCost}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - TASKWARD_BCRYPT_COST
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("TASKWARD_BCRYPT_COST"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("TASKWARD_BCRYPT_COST: not an integer")
		}
		if n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("TASKWARD_BCRYPT_COST: out of range [%d..%d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.Cost = n
	}

	return cfg, nil
}
