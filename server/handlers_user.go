package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/identity"
	"github.com/goliatone/go-storefront/pagination"
	"github.com/goliatone/go-storefront/store"
)

func (s *Server) handleSignup(c *fiber.Ctx) error {
	payload := new(identity.SignupInput)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse signup payload")
	}

	account, err := s.identity.Signup(c.UserContext(), *payload)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"msg":   "verification email sent",
		"email": account.Email,
	})
}

// handleVerify redeems the emailed token, starts a session, and lands
// the user on the frontend already logged in.
func (s *Server) handleVerify(c *fiber.Ctx) error {
	account, err := s.identity.VerifyToken(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	if _, err := s.sessions.Issue(c, account.Email); err != nil {
		return err
	}

	return c.Redirect(s.cfg.FrontendURL, fiber.StatusFound)
}

func (s *Server) handleProfile(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"name":       account.Name,
		"email":      account.Email,
		"created_at": account.CreatedAt,
	})
}

func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	payload := new(identity.UpdateProfileInput)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse update payload")
	}

	updated, err := s.identity.UpdateProfile(c.UserContext(), account, *payload)
	if err != nil {
		return err
	}

	return c.JSON(updated)
}

func (s *Server) handleResetPassword(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	payload := new(identity.ResetPasswordInput)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse reset payload")
	}

	if err := s.identity.ResetPassword(c.UserContext(), account, *payload); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"msg": "password updated"})
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		query = url.Values{}
	}

	params := pagination.ParseQuery(query)

	records, count, err := s.repo.Accounts().ListPage(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list accounts")
	}

	page := pagination.NewPage[*store.Account](c.Path(), query, params, count, records)
	return c.JSON(page)
}

func (s *Server) handleStatistics(c *fiber.Ctx) error {
	ctx := c.UserContext()
	stats := s.repo.Stats()
	now := timeNow()

	signups, err := stats.SignupCount(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to count signups")
	}

	active, err := stats.TodayActiveCount(ctx, now)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to count active accounts")
	}

	avg, err := stats.Rolling7DayAverage(ctx, now)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to compute rolling average")
	}

	return c.JSON(fiber.Map{
		"sign_up_count":         signups,
		"today_active_count":    active,
		"last_7days_active_avg": avg,
	})
}
