package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lshop/accounts/internal/apperror"
	"github.com/lshop/accounts/internal/config"
	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/notification"
)

// Dispatcher is the best-effort notification channel.
type Dispatcher interface {
	Dispatch(message notification.Message)
}

// Service is the session and credential lifecycle: registration,
// confirmation, login, token refresh and password management.
type Service struct {
	cfg      config.Config
	accounts identity.Repository
	refresh  RefreshRepository
	hasher   *Hasher
	codec    *Codec
	notifier Dispatcher
	composer notification.Composer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the session manager.
func NewService(cfg config.Config, accounts identity.Repository, refresh RefreshRepository, hasher *Hasher, codec *Codec, notifier Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		accounts: accounts,
		refresh:  refresh,
		hasher:   hasher,
		codec:    codec,
		notifier: notifier,
		composer: notification.NewComposer(cfg.AppName, cfg.FrontendURL),
		logger:   logger,
		now:      time.Now,
	}
}

// Session is the token pair handed out on login.
type Session struct {
	AccessToken  IssuedToken
	RefreshToken IssuedToken
}

// RefreshResult is the access token produced by RefreshAccessToken. Reissued
// is false when the caller's access token was still valid and returned as is.
type RefreshResult struct {
	AccessToken IssuedToken
	Reissued    bool
}

// Register creates an unconfirmed account and sends the confirmation link.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	phone, timezone, err := identity.ParsePhone(req.PhoneNumber)
	if err != nil {
		return "", ErrInvalidPhone
	}

	_, err = s.accounts.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return "", ErrDuplicateEmail
	case !errors.Is(err, identity.ErrNotFound):
		return "", apperror.Internal(err)
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return "", apperror.Internal(err)
	}
	code, err := NumericCode(s.cfg.ConfirmationDigits)
	if err != nil {
		return "", apperror.Internal(err)
	}

	now := s.now().UTC()
	account := identity.Account{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        phone,
		Timezone:     timezone,
		Role:         identity.RoleUser,
		Consent:      req.Consent,
		Confirmation: identity.Confirmation{Token: RandomOpaqueID(), Code: code},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return "", ErrDuplicateEmail
		}
		return "", apperror.Internal(err)
	}

	s.notifier.Dispatch(s.composer.AccountConfirmation(account.Name, account.Email, account.Confirmation.Token, code))
	s.logger.Info("account registered", slog.String("account_id", account.ID))
	return account.ID, nil
}

// Confirm flips the account to confirmed for an exact token and code pair.
// A pair can only confirm once.
func (s *Service) Confirm(ctx context.Context, token, code string) error {
	if token == "" || code == "" {
		return ErrConfirmationNotFound
	}
	account, err := s.accounts.FindByConfirmation(ctx, token, code)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrConfirmationNotFound
		}
		return apperror.Internal(err)
	}
	if account.Confirmation.Status {
		return ErrAlreadyConfirmed
	}

	if err := s.accounts.MarkConfirmed(ctx, account.ID, s.now()); err != nil {
		switch {
		case errors.Is(err, identity.ErrStateChanged):
			return ErrAlreadyConfirmed
		case errors.Is(err, identity.ErrNotFound):
			return ErrConfirmationNotFound
		}
		return apperror.Internal(err)
	}

	s.notifier.Dispatch(s.composer.AccountConfirmed(account.Name, account.Email))
	s.logger.Info("account confirmed", slog.String("account_id", account.ID))
	return nil
}

// Login checks credentials and issues an access and a refresh token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.accounts.FindByEmail(ctx, email, identity.WithPasswordHash())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Session{}, ErrAccountNotFound
		}
		return Session{}, apperror.Internal(err)
	}
	if err := s.checkPassword(ctx, password, account.PasswordHash); err != nil {
		return Session{}, err
	}

	access, err := s.codec.Issue(account.ID, []byte(s.cfg.AccessTokenSecret), s.cfg.AccessTokenTTL)
	if err != nil {
		return Session{}, apperror.Internal(err)
	}
	refresh, err := s.codec.Issue(account.ID, []byte(s.cfg.RefreshTokenSecret), s.cfg.RefreshTokenTTL)
	if err != nil {
		return Session{}, apperror.Internal(err)
	}

	now := s.now().UTC()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		return Session{}, apperror.Internal(err)
	}
	if err := s.refresh.Create(ctx, RefreshToken{Token: refresh.Value, CreatedAt: now}); err != nil {
		return Session{}, apperror.Internal(err)
	}

	s.logger.Info("account logged in", slog.String("account_id", account.ID))
	return Session{AccessToken: access, RefreshToken: refresh}, nil
}

// SelfIdentify returns the client-safe view of an authenticated account.
func (s *Service) SelfIdentify(account identity.Account) identity.Profile {
	return account.Profile()
}

// Logout revokes the refresh token if one is given. Store failures are logged
// and swallowed, so logout always succeeds.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.refresh.DeleteByToken(ctx, refreshToken); err != nil {
		s.logger.Warn("refresh token revocation failed", slog.Any("error", err))
	}
}

// RefreshAccessToken returns a still-valid access token unchanged, or mints a
// new one from a persisted, unexpired and correctly signed refresh token.
// Anything else is ErrUnauthorised; verification errors never escape.
func (s *Service) RefreshAccessToken(ctx context.Context, accessToken, refreshToken string) (RefreshResult, error) {
	if accessToken != "" {
		if claims, err := s.codec.Verify(accessToken, []byte(s.cfg.AccessTokenSecret)); err == nil {
			return RefreshResult{AccessToken: IssuedToken{Value: accessToken, ExpiresAt: claims.ExpiresAt}}, nil
		}
	}
	if refreshToken == "" {
		return RefreshResult{}, ErrUnauthorised
	}

	record, err := s.refresh.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return RefreshResult{}, ErrUnauthorised
		}
		return RefreshResult{}, apperror.Internal(err)
	}
	if record.Expired(s.now(), s.cfg.RefreshTokenTTL) {
		s.Logout(ctx, refreshToken)
		return RefreshResult{}, ErrUnauthorised
	}

	subject := ""
	if claims, err := s.codec.Verify(refreshToken, []byte(s.cfg.RefreshTokenSecret)); err == nil {
		subject = claims.Subject
	}
	if subject == "" {
		return RefreshResult{}, ErrUnauthorised
	}

	access, err := s.codec.Issue(subject, []byte(s.cfg.AccessTokenSecret), s.cfg.AccessTokenTTL)
	if err != nil {
		return RefreshResult{}, apperror.Internal(err)
	}
	return RefreshResult{AccessToken: access, Reissued: true}, nil
}

// ForgotPassword starts a reset for a confirmed account and mails the link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrAccountNotFound
		}
		return apperror.Internal(err)
	}
	if !account.Confirmation.Status {
		return ErrConfirmationRequired
	}

	token := RandomOpaqueID()
	if err := s.accounts.SetResetToken(ctx, account.ID, token, ResetExpiry(s.now(), s.cfg.PasswordResetTTL)); err != nil {
		return apperror.Internal(err)
	}

	s.notifier.Dispatch(s.composer.PasswordReset(account.Name, account.Email, token, s.cfg.PasswordResetTTL))
	s.logger.Info("password reset requested", slog.String("account_id", account.ID))
	return nil
}

// ResetPassword consumes a reset token. Unknown, expired and already used
// tokens are indistinguishable to the caller.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	account, err := s.accounts.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return apperror.Internal(err)
	}
	now := s.now().UTC()
	if !account.PasswordReset.Pending(now) {
		return ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := s.accounts.ConsumeResetToken(ctx, account.ID, token, hash, now); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return apperror.Internal(err)
	}

	s.notifier.Dispatch(s.composer.PasswordChanged(account.Name, account.Email))
	s.logger.Info("password reset completed", slog.String("account_id", account.ID))
	return nil
}

// ChangePassword replaces the password of an authenticated account after
// checking the current one.
func (s *Service) ChangePassword(ctx context.Context, account identity.Account, req ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmNewPassword {
		return ErrPasswordMismatch
	}
	current, err := s.accounts.FindByID(ctx, account.ID, identity.WithPasswordHash())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrAccountNotFound
		}
		return apperror.Internal(err)
	}
	if err := s.checkPassword(ctx, req.OldPassword, current.PasswordHash); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := s.accounts.SetPassword(ctx, current.ID, hash); err != nil {
		return apperror.Internal(err)
	}

	s.notifier.Dispatch(s.composer.PasswordChanged(current.Name, current.Email))
	s.logger.Info("password changed", slog.String("account_id", current.ID))
	return nil
}

// checkPassword maps a mismatch to ErrInvalidCredentials. A request that is
// cancelled before its hash comparison runs is an internal failure.
func (s *Service) checkPassword(ctx context.Context, candidate, hash string) error {
	ok, err := s.hasher.Compare(ctx, candidate, hash)
	if err != nil {
		return apperror.Internal(err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
