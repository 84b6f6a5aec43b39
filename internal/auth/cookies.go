package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/config"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// cookieJar sets and clears the session cookies with the attributes shared by
// both tokens.
type cookieJar struct {
	path   string
	domain string
	secure bool
}

func newCookieJar(cfg config.Config) cookieJar {
	return cookieJar{path: cfg.APIRoot, domain: cfg.CookieDomain(), secure: !cfg.IsDevelopment()}
}

func (j cookieJar) set(c *fiber.Ctx, name string, token IssuedToken, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     j.path,
		Domain:   j.domain,
		MaxAge:   int(ttl / time.Second),
		Expires:  token.ExpiresAt,
		Secure:   j.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (j cookieJar) clear(c *fiber.Ctx, names ...string) {
	for _, name := range names {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     j.path,
			Domain:   j.domain,
			Expires:  time.Unix(0, 0),
			Secure:   j.secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteStrictMode,
		})
	}
}
