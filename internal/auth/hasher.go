package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher hashes and verifies passwords with bcrypt. Concurrent bcrypt work is
// capped so a burst of logins cannot monopolise every core.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a hasher. Out-of-range costs fall back to bcrypt.DefaultCost
// and a non-positive concurrency allows a single hash at a time.
func NewHasher(cost, concurrency int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether candidate matches hash. A malformed hash or a
// cancelled context yields false.
func (h *Hasher) Verify(ctx context.Context, candidate, hash string) bool {
	ok, err := h.Compare(ctx, candidate, hash)
	return ok && err == nil
}

// Compare is Verify that reports a context failure while waiting for a
// hashing slot as an error instead of a mismatch.
func (h *Hasher) Compare(ctx context.Context, candidate, hash string) (bool, error) {
	if candidate == "" || hash == "" {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil, nil
}
