package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lshop/accounts/internal/apperror"
	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/notification"
)

var (
	ErrForbiddenAction = apperror.New(apperror.KindForbidden, "FORBIDDEN_ACTION", "You are not allowed to perform this action")
	ErrNoOp            = apperror.New(apperror.KindValidation, "NO_OP", "Account already has this role").WithStatus(http.StatusBadRequest)
	ErrAccountNotFound = apperror.New(apperror.KindNotFound, "NOT_FOUND", "user not found")
	ErrInvalidRole     = apperror.New(apperror.KindValidation, "INVALID_ROLE", "Unknown role")
)

// Dispatcher is the best-effort notification channel.
type Dispatcher interface {
	Dispatch(message notification.Message)
}

// Service performs privileged operations on other accounts.
type Service struct {
	accounts identity.Repository
	notifier Dispatcher
	composer notification.Composer
	logger   *slog.Logger
}

func NewService(accounts identity.Repository, notifier Dispatcher, composer notification.Composer, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, notifier: notifier, composer: composer, logger: logger}
}

// PromoteOrDemoteRole assigns role to the target. Only a super admin may do
// this and super admins themselves cannot be changed.
func (s *Service) PromoteOrDemoteRole(ctx context.Context, actor identity.Account, targetID string, role identity.Role) (identity.Profile, error) {
	if actor.Role != identity.RoleSuperAdmin {
		return identity.Profile{}, ErrForbiddenAction
	}
	if !role.Valid() {
		return identity.Profile{}, ErrInvalidRole
	}
	target, err := s.find(ctx, targetID)
	if err != nil {
		return identity.Profile{}, err
	}
	if target.Role == identity.RoleSuperAdmin {
		return identity.Profile{}, ErrForbiddenAction
	}
	if target.Role == role {
		return identity.Profile{}, ErrNoOp
	}

	previous := target.Role
	if err := s.accounts.SetRole(ctx, target.ID, role); err != nil {
		switch {
		case errors.Is(err, identity.ErrStateChanged):
			return identity.Profile{}, ErrForbiddenAction
		case errors.Is(err, identity.ErrNotFound):
			return identity.Profile{}, ErrAccountNotFound
		}
		return identity.Profile{}, apperror.Internal(err)
	}
	target.Role = role

	s.notifier.Dispatch(s.composer.RoleChanged(target.Name, target.Email, string(role)))
	s.logger.Info("account role changed",
		slog.String("actor_id", actor.ID),
		slog.String("account_id", target.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(role)),
	)
	return target.Profile(), nil
}

// DeleteAccount removes the target. Super admins are never deletable and an
// admin cannot delete another admin.
func (s *Service) DeleteAccount(ctx context.Context, actor identity.Account, targetID string) error {
	if !actor.Role.IsPrivileged() {
		return ErrForbiddenAction
	}
	target, err := s.find(ctx, targetID)
	if err != nil {
		return err
	}
	switch {
	case target.Role == identity.RoleSuperAdmin:
		return ErrForbiddenAction
	case target.Role == identity.RoleAdmin && actor.Role == identity.RoleAdmin:
		return ErrForbiddenAction
	}

	if err := s.accounts.Delete(ctx, target.ID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrAccountNotFound
		}
		return apperror.Internal(err)
	}

	if target.Role == identity.RoleAdmin {
		s.notifier.Dispatch(s.composer.AccountDeleted(target.Name, target.Email))
	}
	s.logger.Info("account deleted",
		slog.String("actor_id", actor.ID),
		slog.String("account_id", target.ID),
		slog.String("role", string(target.Role)),
	)
	return nil
}

func (s *Service) find(ctx context.Context, id string) (identity.Account, error) {
	if id == "" {
		return identity.Account{}, ErrAccountNotFound
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.Account{}, ErrAccountNotFound
		}
		return identity.Account{}, apperror.Internal(err)
	}
	return account, nil
}
