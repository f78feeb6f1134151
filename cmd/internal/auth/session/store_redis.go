package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskward/cmd/security/password"
)

// RedisStore implements Store over a Redis hash per login.
//
// Bucket key: "<prefix>:<login>", field: fingerprint, value: JSON Record.
// The bucket TTL is refreshed to RefreshTTL on every write so abandoned
// buckets age out together with their youngest session.
//
// The cap check and the insert are two round trips, not one transaction:
// two concurrent logins at the cap boundary may both pass the check and
// overshoot the nominal cap by one. Accepted soft limit.
type RedisStore struct {
	rdb *redis.Client
	cfg Config

	hasher      password.Config
	refreshSalt string
}

// NewRedisStore constructs a RedisStore.
// The hasher and refreshSalt must match the ones used to mint refresh-token
// hashes, or validation will reject every token.
func NewRedisStore(rdb *redis.Client, cfg Config, hasher password.Config, refreshSalt string) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("session: nil redis client")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if refreshSalt == "" {
		return nil, ErrConfig
	}
	return &RedisStore{rdb: rdb, cfg: cfg, hasher: hasher, refreshSalt: refreshSalt}, nil
}

func (s *RedisStore) key(login string) string {
	return s.cfg.KeyPrefix + ":" + login
}

// Put upserts the record for (login, fingerprint), enforcing the session cap
// for new fingerprints when requested.
func (s *RedisStore) Put(ctx context.Context, login, fingerprint string, rec Record, enforceCap bool) error {
	key := s.key(login)

	if enforceCap {
		exists, err := s.rdb.HExists(ctx, key, fingerprint).Result()
		if err != nil {
			return fmt.Errorf("session: hexists: %w", err)
		}
		if !exists {
			n, err := s.rdb.HLen(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("session: hlen: %w", err)
			}
			if n >= int64(s.cfg.MaxSessions) {
				return ErrTooManySessions
			}
		}
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}

	if err := s.rdb.HSet(ctx, key, fingerprint, raw).Err(); err != nil {
		return fmt.Errorf("session: hset: %w", err)
	}

	// Bucket-level TTL; per-field expiry is checked from the record itself.
	if err := s.rdb.Expire(ctx, key, s.cfg.RefreshTTL).Err(); err != nil {
		return fmt.Errorf("session: expire: %w", err)
	}
	return nil
}

// ValidateRefreshToken checks plaintext against the stored record for
// (login, fingerprint).
func (s *RedisStore) ValidateRefreshToken(ctx context.Context, login, fingerprint, plaintext string) (Record, error) {
	raw, err := s.rdb.HGet(ctx, s.key(login), fingerprint).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrSessionNotFound
		}
		return Record{}, fmt.Errorf("session: hget: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// A record we cannot read is a record we cannot trust.
		return Record{}, ErrSessionNotFound
	}

	if !s.hasher.Verify(plaintext, s.refreshSalt, rec.RefreshTokenHash) {
		return Record{}, ErrRefreshTokenMismatch
	}

	if rec.Expired(time.Now().UTC()) {
		return Record{}, ErrRefreshTokenExpired
	}

	return rec, nil
}

// Delete removes the record for (login, fingerprint). Idempotent.
func (s *RedisStore) Delete(ctx context.Context, login, fingerprint string) error {
	if err := s.rdb.HDel(ctx, s.key(login), fingerprint).Err(); err != nil {
		return fmt.Errorf("session: hdel: %w", err)
	}
	return nil
}
