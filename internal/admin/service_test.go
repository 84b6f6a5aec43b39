package admin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/logging"
	"github.com/lshop/accounts/internal/notification"
)

type captureDispatcher struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (d *captureDispatcher) Dispatch(message notification.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, message)
}

func (d *captureDispatcher) sent() []notification.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notification.Message(nil), d.messages...)
}

func newTestService() (*Service, identity.Repository, *captureDispatcher) {
	repo := identity.NewMemoryRepository()
	mail := &captureDispatcher{}
	svc := NewService(repo, mail, notification.NewComposer("LSHOP", "http://localhost:3000"), logging.Discard())
	return svc, repo, mail
}

func seed(t *testing.T, repo identity.Repository, role identity.Role) identity.Account {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.NewString()
	account := identity.Account{
		ID:           id,
		Name:         string(role) + " account",
		Email:        id + "@x.com",
		PasswordHash: "hash",
		Role:         role,
		Consent:      true,
		Confirmation: identity.Confirmation{Status: true, Token: uuid.NewString(), Code: "123456"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

func TestPromoteOrDemoteRole(t *testing.T) {
	svc, repo, mail := newTestService()
	ctx := context.Background()
	super := seed(t, repo, identity.RoleSuperAdmin)
	user := seed(t, repo, identity.RoleUser)

	profile, err := svc.PromoteOrDemoteRole(ctx, super, user.ID, identity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, profile.Role)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, stored.Role)

	sent := mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindRoleChanged, sent[0].Kind)
	assert.Equal(t, []string{user.Email}, sent[0].To)

	_, err = svc.PromoteOrDemoteRole(ctx, super, user.ID, identity.RoleAdmin)
	assert.ErrorIs(t, err, ErrNoOp)
}

func TestPromoteOrDemoteRoleGuards(t *testing.T) {
	svc, repo, mail := newTestService()
	ctx := context.Background()
	super := seed(t, repo, identity.RoleSuperAdmin)
	otherSuper := seed(t, repo, identity.RoleSuperAdmin)
	admin := seed(t, repo, identity.RoleAdmin)
	user := seed(t, repo, identity.RoleUser)

	_, err := svc.PromoteOrDemoteRole(ctx, admin, user.ID, identity.RoleSeller)
	assert.ErrorIs(t, err, ErrForbiddenAction, "only a super admin changes roles")

	_, err = svc.PromoteOrDemoteRole(ctx, super, otherSuper.ID, identity.RoleUser)
	assert.ErrorIs(t, err, ErrForbiddenAction, "super admins are immutable")

	_, err = svc.PromoteOrDemoteRole(ctx, super, uuid.NewString(), identity.RoleUser)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = svc.PromoteOrDemoteRole(ctx, super, user.ID, identity.Role("ROOT"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	stored, err := repo.FindByID(ctx, otherSuper.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSuperAdmin, stored.Role)
	assert.Empty(t, mail.sent())
}

func TestDeleteAccount(t *testing.T) {
	svc, repo, mail := newTestService()
	ctx := context.Background()
	super := seed(t, repo, identity.RoleSuperAdmin)
	admin := seed(t, repo, identity.RoleAdmin)
	otherAdmin := seed(t, repo, identity.RoleAdmin)
	user := seed(t, repo, identity.RoleUser)
	seller := seed(t, repo, identity.RoleSeller)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, user, seller.ID), ErrForbiddenAction)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, admin, super.ID), ErrForbiddenAction)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, admin, otherAdmin.ID), ErrForbiddenAction)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, super, super.ID), ErrForbiddenAction)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, admin, uuid.NewString()), ErrAccountNotFound)

	require.NoError(t, svc.DeleteAccount(ctx, admin, user.ID))
	assert.Empty(t, mail.sent(), "non-admin targets get no notice")

	require.NoError(t, svc.DeleteAccount(ctx, super, otherAdmin.ID))
	sent := mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindAccountDeleted, sent[0].Kind)
	assert.Equal(t, []string{otherAdmin.Email}, sent[0].To)

	_, err := repo.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, identity.ErrNotFound)
	_, err = repo.FindByID(ctx, otherAdmin.ID)
	assert.ErrorIs(t, err, identity.ErrNotFound)
	_, err = repo.FindByID(ctx, seller.ID)
	assert.NoError(t, err)
}

func TestSuperAdminRoleIsImmutable(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	actor := seed(t, repo, identity.RoleSuperAdmin)
	target := seed(t, repo, identity.RoleSuperAdmin)

	for _, role := range identity.Roles {
		_, err := svc.PromoteOrDemoteRole(ctx, actor, target.ID, role)
		assert.ErrorIs(t, err, ErrForbiddenAction, role)
	}
}

// racingRepository runs a hook once, right after the next FindByID.
type racingRepository struct {
	identity.Repository
	afterFindByID func()
}

func (r *racingRepository) FindByID(ctx context.Context, id string, opts ...identity.FindOption) (identity.Account, error) {
	account, err := r.Repository.FindByID(ctx, id, opts...)
	if hook := r.afterFindByID; hook != nil {
		r.afterFindByID = nil
		hook()
	}
	return account, err
}

func TestPromoteOrDemoteRoleLeavesConcurrentSuperAdminAlone(t *testing.T) {
	_, repo, mail := newTestService()
	ctx := context.Background()
	super := seed(t, repo, identity.RoleSuperAdmin)
	target := seed(t, repo, identity.RoleAdmin)

	// The target is raised to super admin after the service has read it.
	racing := &racingRepository{Repository: repo, afterFindByID: func() {
		stored, err := repo.FindByID(ctx, target.ID)
		require.NoError(t, err)
		stored.Role = identity.RoleSuperAdmin
		require.NoError(t, repo.Update(ctx, stored))
	}}
	svc := NewService(racing, mail, notification.NewComposer("LSHOP", "http://localhost:3000"), logging.Discard())

	_, err := svc.PromoteOrDemoteRole(ctx, super, target.ID, identity.RoleUser)
	assert.ErrorIs(t, err, ErrForbiddenAction)

	stored, err := repo.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSuperAdmin, stored.Role)
	assert.Empty(t, mail.sent())
}

func TestPromoteOrDemoteRoleWritesOnlyTheRole(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	super := seed(t, repo, identity.RoleSuperAdmin)
	target := seed(t, repo, identity.RoleUser)
	require.NoError(t, repo.SetResetToken(ctx, target.ID, "reset-token", time.Now().Add(time.Minute)))

	_, err := svc.PromoteOrDemoteRole(ctx, super, target.ID, identity.RoleSeller)
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSeller, stored.Role)
	assert.Equal(t, "reset-token", stored.PasswordReset.Token)
}
