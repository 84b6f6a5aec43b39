package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/auth"
	"github.com/lshop/accounts/internal/identity"
)

// Authenticate resolves the access token cookie to an account and stores it
// on the request. Any failure is reported as UNAUTHORISED.
func Authenticate(codec *auth.Codec, secret []byte, accounts identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(auth.AccessTokenCookie)
		if token == "" {
			return auth.ErrUnauthorised
		}
		claims, err := codec.Verify(token, secret)
		if err != nil {
			return auth.ErrUnauthorised
		}
		account, err := accounts.FindByID(c.UserContext(), claims.Subject)
		if err != nil {
			return auth.ErrUnauthorised
		}
		auth.SetAccount(c, account)
		return c.Next()
	}
}

// RequireRole lets the request through only when the authenticated account
// holds one of roles.
func RequireRole(roles ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := auth.AccountFrom(c)
		if !ok {
			return auth.ErrUnauthorised
		}
		for _, role := range roles {
			if account.Role == role {
				return c.Next()
			}
		}
		return auth.ErrUnauthorised
	}
}
