package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/auth"
)

// AuthMiddleware holds the per-route guards of the session endpoints. A nil
// LoginLimit or Idempotency handler is skipped.
type AuthMiddleware struct {
	Authenticate fiber.Handler
	LoginLimit   fiber.Handler
	Idempotency  fiber.Handler
}

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, mw AuthMiddleware) {
	r.Post("/register", chain(h.Register, mw.Idempotency)...)
	r.Put("/confirmation/:token", h.Confirm)
	r.Post("/login", chain(h.Login, mw.LoginLimit)...)
	r.Get("/self-identification", mw.Authenticate, h.SelfIdentify)
	r.Put("/logout", h.Logout)
	r.Post("/refresh-token", h.RefreshToken)
	r.Put("/forgot-password", h.ForgotPassword)
	r.Put("/reset-password/:token", h.ResetPassword)
	r.Put("/change-password", mw.Authenticate, h.ChangePassword)
}

// chain prepends the non-nil guards to handler.
func chain(handler fiber.Handler, guards ...fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	for _, g := range guards {
		if g != nil {
			handlers = append(handlers, g)
		}
	}
	return append(handlers, handler)
}
