package admin

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/apperror"
	"github.com/lshop/accounts/internal/auth"
	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/respond"
)

// Handler exposes the administrative endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RoleChangeRequest payload
type RoleChangeRequest struct {
	Role string `json:"role"`
}

// Validate will run validation rules
func (r RoleChangeRequest) Validate() error {
	allowed := make([]interface{}, 0, len(identity.Roles))
	for _, role := range identity.Roles {
		allowed = append(allowed, string(role))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In(allowed...)),
	)
}

// ChangeRole promotes or demotes the account named in the path.
func (h *Handler) ChangeRole(c *fiber.Ctx) error {
	actor, ok := auth.AccountFrom(c)
	if !ok {
		return auth.ErrUnauthorised
	}
	var req RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if err := req.Validate(); err != nil {
		return apperror.Validation(err)
	}
	profile, err := h.svc.PromoteOrDemoteRole(c.UserContext(), actor, c.Params("id"), identity.Role(req.Role))
	if err != nil {
		return err
	}
	return respond.JSON(c, http.StatusOK, "Role updated", profile)
}

// DeleteAccount removes the account named in the path.
func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	actor, ok := auth.AccountFrom(c)
	if !ok {
		return auth.ErrUnauthorised
	}
	if err := h.svc.DeleteAccount(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return respond.JSON(c, http.StatusOK, "Account deleted", nil)
}
