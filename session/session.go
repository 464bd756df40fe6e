// Package session attaches and revokes the JWT cookie pair on fiber
// responses. Cookies are http-only and secure; revocation clears the
// cookies only, the signed tokens stay valid until natural expiry.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/token"
)

const (
	// AccessCookie names the cookie carrying the access token.
	AccessCookie = "access_token_cookie"
	// RefreshCookie names the cookie carrying the refresh token.
	RefreshCookie = "refresh_token_cookie"

	// RefreshPath scopes the refresh cookie so browsers only send it
	// to the refresh endpoint.
	RefreshPath = "/auth/refresh"
)

// Issuer writes token pairs to responses.
type Issuer struct {
	tokens *token.Service
}

// NewIssuer builds an Issuer bound to a token service.
func NewIssuer(tokens *token.Service) *Issuer {
	return &Issuer{tokens: tokens}
}

// Issue mints a pair for the subject and attaches it to the response.
func (i *Issuer) Issue(c *fiber.Ctx, subject string) (token.Pair, error) {
	pair, err := i.tokens.IssuePair(subject)
	if err != nil {
		return token.Pair{}, err
	}

	i.Attach(c, pair)
	return pair, nil
}

// Attach sets both tokens as cookies with their own names and paths.
func (i *Issuer) Attach(c *fiber.Ctx, pair token.Pair) {
	setCookie(c, AccessCookie, pair.Access, "/", i.tokens.AccessTTL())
	setCookie(c, RefreshCookie, pair.Refresh, RefreshPath, i.tokens.RefreshTTL())
}

// Revoke clears both cookies from the client.
func (i *Issuer) Revoke(c *fiber.Ctx) {
	expireCookie(c, AccessCookie, "/")
	expireCookie(c, RefreshCookie, RefreshPath)
}

func setCookie(c *fiber.Ctx, name, value, path string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func expireCookie(c *fiber.Ctx, name, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
