package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/social"
	"github.com/goliatone/go-storefront/store"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	payload := new(loginPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload")
	}

	account, err := s.identity.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	if _, err := s.sessions.Issue(c, account.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"msg":   "login successful",
		"email": account.Email,
		"name":  account.Name,
	})
}

// handleRefresh rotates the token pair. The old refresh token stays
// valid until its natural expiry; rotation is a convenience, not a
// revocation.
func (s *Server) handleRefresh(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	if _, err := s.sessions.Issue(c, account.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"msg": "token refreshed"})
}

// handleLogout clears the session cookies. The signed tokens remain
// valid until expiry if replayed; there is no server-side denylist.
func (s *Server) handleLogout(c *fiber.Ctx) error {
	s.sessions.Revoke(c)
	return c.JSON(fiber.Map{"msg": "logout successful"})
}

func (s *Server) provider(c *fiber.Ctx) (social.Provider, error) {
	name := c.Params("provider")
	provider, ok := s.providers[name]
	if !ok {
		return nil, errors.New("unknown oauth provider", errors.CategoryNotFound).
			WithTextCode("UNKNOWN_PROVIDER").
			WithMetadata(map[string]any{"provider": name})
	}
	return provider, nil
}

func (s *Server) handleOAuthLogin(c *fiber.Ctx) error {
	provider, err := s.provider(c)
	if err != nil {
		return err
	}

	state, err := s.states.Encode(&social.OAuthState{
		Provider:    provider.Name(),
		RedirectURL: c.Query("redirect"),
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode oauth state")
	}

	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// handleOAuthAuthorized completes the provider callback: code
// exchange, profile fetch, account find-or-create, session issue, then
// a redirect back to the frontend. Provider failures send the user
// back to the login page; they resubmit, we do not retry.
func (s *Server) handleOAuthAuthorized(c *fiber.Ctx) error {
	provider, err := s.provider(c)
	if err != nil {
		return err
	}

	code := c.Query("code")
	rawState := c.Query("state")
	if code == "" || rawState == "" {
		return errors.New("missing code or state", errors.CategoryBadInput).
			WithTextCode("OAUTH_CALLBACK_INVALID")
	}

	state, err := s.states.Decode(rawState)
	if err != nil {
		return err
	}

	if state.Provider != provider.Name() {
		return social.ErrInvalidState
	}

	oauthToken, err := provider.Exchange(c.UserContext(), code)
	if err != nil {
		s.logger.Error("oauth exchange failed", "provider", provider.Name(), "error", err)
		return c.Redirect(s.cfg.FrontendURL+"/login?error=oauth_failed", fiber.StatusFound)
	}

	profile, err := provider.UserInfo(c.UserContext(), oauthToken)
	if err != nil {
		s.logger.Error("oauth profile fetch failed", "provider", provider.Name(), "error", err)
		return c.Redirect(s.cfg.FrontendURL+"/login?error=oauth_failed", fiber.StatusFound)
	}

	account, err := s.identity.FindOrCreate(c.UserContext(), profile.Email, profile.Name, store.Channel(provider.Name()))
	if err != nil {
		return err
	}

	if _, err := s.sessions.Issue(c, account.Email); err != nil {
		return err
	}

	target := s.cfg.FrontendURL
	if state.RedirectURL != "" {
		target += state.RedirectURL
	}

	return c.Redirect(target, fiber.StatusFound)
}
