package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/identity"
)

const accountLocal = "account"

// SetAccount stores the authenticated account on the request.
func SetAccount(c *fiber.Ctx, account identity.Account) {
	c.Locals(accountLocal, account)
}

// AccountFrom returns the account stored by the authentication middleware.
func AccountFrom(c *fiber.Ctx) (identity.Account, bool) {
	account, ok := c.Locals(accountLocal).(identity.Account)
	return account, ok
}
