package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/apperror"
	"github.com/lshop/accounts/internal/config"
	"github.com/lshop/accounts/internal/respond"
)

// Handler exposes the session endpoints.
type Handler struct {
	svc        *Service
	cookies    cookieJar
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewHandler(svc *Service, cfg config.Config) *Handler {
	return &Handler{
		svc:        svc,
		cookies:    newCookieJar(cfg),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

type validatable interface {
	Validate() error
}

type normalizable interface {
	Normalize()
}

// bind decodes the JSON body into req, normalizes it and runs its rules.
func bind(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if n, ok := req.(normalizable); ok {
		n.Normalize()
	}
	if err := req.Validate(); err != nil {
		return apperror.Validation(err)
	}
	return nil
}

type tokenExpiry struct {
	AccessTokenExpiresAt  *time.Time `json:"access_token_expires_at,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refresh_token_expires_at,omitempty"`
}

// Register handles account creation.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := h.svc.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond.JSON(c, http.StatusCreated, "Account created, check your email to confirm it", fiber.Map{"id": id})
}

// Confirm handles the link from the confirmation email.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	if err := h.svc.Confirm(c.UserContext(), c.Params("token"), c.Query("code")); err != nil {
		return err
	}
	return respond.JSON(c, http.StatusOK, "Account confirmed", nil)
}

// Login sets both session cookies.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.set(c, AccessTokenCookie, session.AccessToken, h.accessTTL)
	h.cookies.set(c, RefreshTokenCookie, session.RefreshToken, h.refreshTTL)
	return respond.JSON(c, http.StatusOK, "Login successful", tokenExpiry{
		AccessTokenExpiresAt:  &session.AccessToken.ExpiresAt,
		RefreshTokenExpiresAt: &session.RefreshToken.ExpiresAt,
	})
}

// SelfIdentify returns the caller's profile.
func (h *Handler) SelfIdentify(c *fiber.Ctx) error {
	account, ok := AccountFrom(c)
	if !ok {
		return ErrUnauthorised
	}
	return respond.JSON(c, http.StatusOK, "Authenticated", h.svc.SelfIdentify(account))
}

// Logout always succeeds and clears both cookies.
func (h *Handler) Logout(c *fiber.Ctx) error {
	h.svc.Logout(c.UserContext(), c.Cookies(RefreshTokenCookie))
	h.cookies.clear(c, AccessTokenCookie, RefreshTokenCookie)
	return respond.JSON(c, http.StatusOK, "Logged out", nil)
}

// RefreshToken re-issues the access cookie from the refresh cookie.
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	result, err := h.svc.RefreshAccessToken(c.UserContext(), c.Cookies(AccessTokenCookie), c.Cookies(RefreshTokenCookie))
	if err != nil {
		return err
	}
	if result.Reissued {
		h.cookies.set(c, AccessTokenCookie, result.AccessToken, h.accessTTL)
	}
	return respond.JSON(c, http.StatusOK, "Access token refreshed", tokenExpiry{
		AccessTokenExpiresAt: &result.AccessToken.ExpiresAt,
	})
}

// ForgotPassword mails a reset link.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond.JSON(c, http.StatusOK, "Password reset link sent", nil)
}

// ResetPassword consumes the token from the reset link.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.ResetPassword(c.UserContext(), c.Params("token"), req.NewPassword); err != nil {
		return err
	}
	return respond.JSON(c, http.StatusOK, "Password reset successful", nil)
}

// ChangePassword updates the caller's password.
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	account, ok := AccountFrom(c)
	if !ok {
		return ErrUnauthorised
	}
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	// Mismatch has its own code, so check it before the generic rules.
	if req.NewPassword != req.ConfirmNewPassword {
		return ErrPasswordMismatch
	}
	if err := req.Validate(); err != nil {
		return apperror.Validation(err)
	}
	if err := h.svc.ChangePassword(c.UserContext(), account, req); err != nil {
		return err
	}
	return respond.JSON(c, http.StatusOK, "Password changed", nil)
}
