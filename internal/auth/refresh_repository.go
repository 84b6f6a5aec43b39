package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshTokenNotFound is returned when no record exists for a refresh token.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

const refreshKeyPrefix = "refresh:v1:"

// RefreshToken is the persisted record of an issued refresh token.
type RefreshToken struct {
	Token     string
	CreatedAt time.Time
}

// Expired reports whether the record is older than ttl at now, whether or not
// the store has purged it yet.
func (t RefreshToken) Expired(now time.Time, ttl time.Duration) bool {
	return !now.UTC().Before(t.CreatedAt.UTC().Add(ttl))
}

// RefreshRepository persists issued refresh tokens for revocation.
type RefreshRepository interface {
	Create(ctx context.Context, token RefreshToken) error
	FindByToken(ctx context.Context, token string) (RefreshToken, error)
	// DeleteByToken removes the record; a missing record is not an error.
	DeleteByToken(ctx context.Context, token string) error
}

type storedRefreshToken struct {
	CreatedAt time.Time `json:"created_at"`
}

// RedisRefreshRepository keeps refresh tokens in Redis, each key expiring
// with the token TTL. Keys are SHA-256 digests so raw tokens never sit in the
// keyspace.
type RedisRefreshRepository struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisRefreshRepository builds a Redis-backed refresh token store.
func NewRedisRefreshRepository(cache *redis.Client, ttl time.Duration) *RedisRefreshRepository {
	return &RedisRefreshRepository{cache: cache, ttl: ttl}
}

func (r *RedisRefreshRepository) Create(ctx context.Context, token RefreshToken) error {
	payload, err := json.Marshal(storedRefreshToken{CreatedAt: token.CreatedAt.UTC()})
	if err != nil {
		return err
	}
	if err := r.cache.Set(ctx, refreshKey(token.Token), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *RedisRefreshRepository) FindByToken(ctx context.Context, token string) (RefreshToken, error) {
	raw, err := r.cache.Get(ctx, refreshKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return RefreshToken{}, ErrRefreshTokenNotFound
	}
	if err != nil {
		return RefreshToken{}, fmt.Errorf("load refresh token: %w", err)
	}
	var stored storedRefreshToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		return RefreshToken{}, fmt.Errorf("decode refresh token: %w", err)
	}
	return RefreshToken{Token: token, CreatedAt: stored.CreatedAt.UTC()}, nil
}

func (r *RedisRefreshRepository) DeleteByToken(ctx context.Context, token string) error {
	if err := r.cache.Del(ctx, refreshKey(token)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return refreshKeyPrefix + hex.EncodeToString(sum[:])
}
