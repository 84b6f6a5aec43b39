package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/admin"
	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/middleware"
)

// RegisterAdminRoutes wires the privileged account endpoints.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler, authenticate fiber.Handler) {
	group := r.Group("/admin", authenticate)
	group.Put("/users/:id/role", middleware.RequireRole(identity.RoleSuperAdmin), h.ChangeRole)
	group.Delete("/users/:id", middleware.RequireRole(identity.RoleAdmin, identity.RoleSuperAdmin), h.DeleteAccount)
}
