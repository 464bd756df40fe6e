package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/session"
	"github.com/goliatone/go-storefront/store"
)

const (
	// CSRFCookie holds the double-submit token. Readable by scripts on
	// purpose; the protection is the matching header, not secrecy.
	CSRFCookie = "csrf_token"
	// CSRFHeader must echo the cookie on state-changing requests.
	CSRFHeader = "X-CSRF-TOKEN"

	localAccount = "resolved_account"
)

var errMissingCredentials = errors.New("missing or invalid credentials", errors.CategoryAuth).
	WithTextCode("UNAUTHENTICATED").
	WithCode(errors.CodeUnauthorized)

var errCSRFMismatch = errors.New("csrf token mismatch", errors.CategoryAuthz).
	WithTextCode("CSRF_MISMATCH").
	WithCode(errors.CodeForbidden)

// requestLogger records one line per request.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		s.logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
			"ip", c.IP(),
		)

		return err
	}
}

// csrf implements double-submit protection. Every response carries a
// csrf_token cookie; state-changing requests that authenticate via
// session cookies must echo it in the X-CSRF-TOKEN header.
func (s *Server) csrf() fiber.Handler {
	safe := map[string]bool{
		fiber.MethodGet:     true,
		fiber.MethodHead:    true,
		fiber.MethodOptions: true,
		fiber.MethodTrace:   true,
	}

	return func(c *fiber.Ctx) error {
		token := c.Cookies(CSRFCookie)
		if token == "" {
			buf := make([]byte, 32)
			if _, err := rand.Read(buf); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "failed to generate csrf token")
			}

			c.Cookie(&fiber.Cookie{
				Name:     CSRFCookie,
				Value:    base64.URLEncoding.EncodeToString(buf),
				Path:     "/",
				Secure:   true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		// Every cookie-authenticated state change needs the header,
		// even when the client never picked up a csrf cookie: a token
		// minted on this request cannot satisfy it.
		usesCookieAuth := c.Cookies(session.AccessCookie) != "" || c.Cookies(session.RefreshCookie) != ""
		if !safe[c.Method()] && usesCookieAuth {
			header := c.Get(CSRFHeader)
			if token == "" || header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
				return errCSRFMismatch
			}
		}

		return c.Next()
	}
}

// requireAccess resolves the access-token cookie before the handler
// runs.
func (s *Server) requireAccess(c *fiber.Ctx) error {
	if _, err := s.resolve(c); err != nil {
		return err
	}
	return c.Next()
}

// requireRefresh resolves the refresh-token cookie before the handler
// runs.
func (s *Server) requireRefresh(c *fiber.Ctx) error {
	if _, err := s.resolveRefresh(c); err != nil {
		return err
	}
	return c.Next()
}

// resolve verifies the access cookie and loads the live account the
// token's subject maps to. The first successful resolution on a
// request bumps the login counter and appends one activity record;
// later calls on the same request reuse the cached account, so the
// bump happens at most once no matter how many handlers ask.
func (s *Server) resolve(c *fiber.Ctx) (*store.Account, error) {
	if cached, ok := c.Locals(localAccount).(*store.Account); ok {
		return cached, nil
	}

	raw := c.Cookies(session.AccessCookie)
	if raw == "" {
		return nil, errMissingCredentials
	}

	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	return s.resolveSubject(c, claims.Subject)
}

// resolveRefresh is the refresh-cookie variant used by token rotation.
func (s *Server) resolveRefresh(c *fiber.Ctx) (*store.Account, error) {
	if cached, ok := c.Locals(localAccount).(*store.Account); ok {
		return cached, nil
	}

	raw := c.Cookies(session.RefreshCookie)
	if raw == "" {
		return nil, errMissingCredentials
	}

	claims, err := s.tokens.ValidateRefresh(raw)
	if err != nil {
		return nil, err
	}

	return s.resolveSubject(c, claims.Subject)
}

func (s *Server) resolveSubject(c *fiber.Ctx, subject string) (*store.Account, error) {
	account, err := s.identity.Resolve(c.UserContext(), subject)
	if err != nil {
		return nil, err
	}

	c.Locals(localAccount, account)
	return account, nil
}

// currentAccount returns the account resolved by the auth middleware.
func currentAccount(c *fiber.Ctx) (*store.Account, error) {
	account, ok := c.Locals(localAccount).(*store.Account)
	if !ok || account == nil {
		return nil, errMissingCredentials
	}
	return account, nil
}
