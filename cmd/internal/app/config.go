package app

import (
	"errors"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisURL string

	// JWTSecret signs access tokens (HS256). Refresh tokens are opaque and
	// carry no signature; their secret material is RefreshTokenSalt.
	JWTSecret string

	// PasswordSalt and RefreshTokenSalt are peppers mixed into bcrypt input.
	// They must be distinct non-empty values.
	PasswordSalt     string
	RefreshTokenSalt string

	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	MaxSessions int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("TASKWARD_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("TASKWARD_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("TASKWARD_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("TASKWARD_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("TASKWARD_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("TASKWARD_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("TASKWARD_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("TASKWARD_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("TASKWARD_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("TASKWARD_DB_MIN_CONNS", 0),

		RedisURL: EnvString("TASKWARD_REDIS_URL", ""),

		JWTSecret:        EnvString("TASKWARD_JWT_SECRET", ""),
		PasswordSalt:     EnvString("TASKWARD_PASSWORD_SALT", ""),
		RefreshTokenSalt: EnvString("TASKWARD_REFRESH_TOKEN_SALT", ""),

		AccessTTL:   EnvDuration("TASKWARD_ACCESS_TTL", 30*time.Minute),
		RefreshTTL:  EnvDuration("TASKWARD_REFRESH_TTL", 48*time.Hour),
		MaxSessions: EnvInt("TASKWARD_MAX_SESSIONS", 5),
	}
}

// ValidateSecurityConfig enforces the security policy at startup.
//
// Fail-fast is intentional: starting without signing or pepper material would
// silently issue forgeable tokens, which is worse than not starting.
func ValidateSecurityConfig(cfg Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("security policy: TASKWARD_JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("security policy: TASKWARD_JWT_SECRET must be at least 32 bytes")
	}
	if cfg.PasswordSalt == "" {
		return errors.New("security policy: TASKWARD_PASSWORD_SALT is required")
	}
	if cfg.RefreshTokenSalt == "" {
		return errors.New("security policy: TASKWARD_REFRESH_TOKEN_SALT is required")
	}
	if cfg.PasswordSalt == cfg.RefreshTokenSalt {
		return errors.New("security policy: password and refresh-token salts must differ")
	}
	return nil
}
