package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byEmail  map[string]string
}

// NewMemoryRepository builds an in-memory account store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts: make(map[string]Account),
		byEmail:  make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[account.Email]; exists {
		return ErrEmailTaken
	}
	r.accounts[account.ID] = account
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string, opts ...FindOption) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return project(account, buildFindOptions(opts)), nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string, opts ...FindOption) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return project(r.accounts[id], buildFindOptions(opts)), nil
}

func (r *memoryRepository) FindByConfirmation(_ context.Context, token, code string) (Account, error) {
	return r.findFirst(func(a Account) bool {
		return a.Confirmation.Token == token && a.Confirmation.Code == code
	})
}

func (r *memoryRepository) FindByResetToken(_ context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrNotFound
	}
	return r.findFirst(func(a Account) bool { return a.PasswordReset.Token == token })
}

func (r *memoryRepository) findFirst(match func(Account) bool) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if match(account) {
			return project(account, findOptions{}), nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *memoryRepository) Update(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	if account.Email != current.Email {
		if _, taken := r.byEmail[account.Email]; taken {
			return ErrEmailTaken
		}
		delete(r.byEmail, current.Email)
		r.byEmail[account.Email] = account.ID
	}
	account.PasswordHash = current.PasswordHash
	account.UpdatedAt = time.Now().UTC()
	r.accounts[account.ID] = account
	return nil
}

func (r *memoryRepository) MarkConfirmed(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(a *Account) error {
		if a.Confirmation.Status {
			return ErrStateChanged
		}
		confirmedAt := at.UTC()
		a.Confirmation.Status = true
		a.Confirmation.ConfirmedAt = &confirmedAt
		return nil
	})
}

func (r *memoryRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(a *Account) error {
		loginAt := at.UTC()
		a.LastLoginAt = &loginAt
		return nil
	})
}

func (r *memoryRepository) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	return r.mutate(id, func(a *Account) error {
		expiry := expiresAt.UTC()
		a.PasswordReset.Token = token
		a.PasswordReset.ExpiresAt = &expiry
		return nil
	})
}

func (r *memoryRepository) SetRole(_ context.Context, id string, role Role) error {
	return r.mutate(id, func(a *Account) error {
		if a.Role == RoleSuperAdmin {
			return ErrStateChanged
		}
		a.Role = role
		return nil
	})
}

// mutate applies change to the stored account under the write lock.
func (r *memoryRepository) mutate(id string, change func(*Account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if err := change(&account); err != nil {
		return err
	}
	account.UpdatedAt = time.Now().UTC()
	r.accounts[id] = account
	return nil
}

func (r *memoryRepository) SetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now().UTC()
	r.accounts[id] = account
	return nil
}

func (r *memoryRepository) ConsumeResetToken(_ context.Context, id, token, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || token == "" || account.PasswordReset.Token != token {
		return ErrNotFound
	}
	resetAt := at.UTC()
	account.PasswordHash = passwordHash
	account.PasswordReset = PasswordReset{LastResetAt: &resetAt}
	account.UpdatedAt = resetAt
	r.accounts[id] = account
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, account.Email)
	delete(r.accounts, id)
	return nil
}

func project(account Account, o findOptions) Account {
	if !o.withPasswordHash {
		account.PasswordHash = ""
	}
	return account
}
