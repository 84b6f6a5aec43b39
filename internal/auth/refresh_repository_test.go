package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return mr, cache
}

func TestRedisRefreshRepositoryLifecycle(t *testing.T) {
	mr, cache := newTestRedis(t)
	repo := NewRedisRefreshRepository(cache, time.Hour)
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, RefreshToken{Token: "refresh-token", CreatedAt: created}))

	record, err := repo.FindByToken(ctx, "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", record.Token)
	assert.True(t, created.Equal(record.CreatedAt))

	// The raw token is never used as a key.
	assert.False(t, mr.Exists("refresh-token"))
	assert.Equal(t, time.Hour, mr.TTL(refreshKey("refresh-token")))

	require.NoError(t, repo.DeleteByToken(ctx, "refresh-token"))
	_, err = repo.FindByToken(ctx, "refresh-token")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// Deleting twice is fine.
	require.NoError(t, repo.DeleteByToken(ctx, "refresh-token"))
}

func TestRedisRefreshRepositoryExpiresWithTTL(t *testing.T) {
	mr, cache := newTestRedis(t)
	repo := NewRedisRefreshRepository(cache, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, RefreshToken{Token: "refresh-token", CreatedAt: time.Now()}))
	mr.FastForward(2 * time.Minute)

	_, err := repo.FindByToken(ctx, "refresh-token")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestMemoryRefreshRepositoryPurgesExpired(t *testing.T) {
	repo := NewMemoryRefreshRepository(time.Minute).(*memoryRefreshRepository)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, RefreshToken{Token: "old", CreatedAt: time.Now().Add(-2 * time.Minute)}))
	require.NoError(t, repo.Create(ctx, RefreshToken{Token: "new", CreatedAt: time.Now()}))

	_, err := repo.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	_, err = repo.FindByToken(ctx, "new")
	assert.NoError(t, err)
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Now()
	record := RefreshToken{CreatedAt: now.Add(-time.Hour)}

	assert.True(t, record.Expired(now, time.Hour))
	assert.False(t, record.Expired(now, 2*time.Hour))
}
