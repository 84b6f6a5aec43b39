package auth

import (
	"context"
	"sync"
	"time"
)

type memoryRefreshRepository struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]RefreshToken
}

// NewMemoryRefreshRepository builds an in-memory refresh token store. Expired
// records are purged lazily on access.
func NewMemoryRefreshRepository(ttl time.Duration) RefreshRepository {
	return &memoryRefreshRepository{ttl: ttl, now: time.Now, tokens: make(map[string]RefreshToken)}
}

func (r *memoryRefreshRepository) Create(_ context.Context, token RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()
	r.tokens[refreshKey(token.Token)] = token
	return nil
}

func (r *memoryRefreshRepository) FindByToken(_ context.Context, token string) (RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()
	record, ok := r.tokens[refreshKey(token)]
	if !ok {
		return RefreshToken{}, ErrRefreshTokenNotFound
	}
	return record, nil
}

func (r *memoryRefreshRepository) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, refreshKey(token))
	return nil
}

func (r *memoryRefreshRepository) purge() {
	now := r.now()
	for key, record := range r.tokens {
		if record.Expired(now, r.ttl) {
			delete(r.tokens, key)
		}
	}
}
