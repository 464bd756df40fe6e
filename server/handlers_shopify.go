package server

import (
	"encoding/json"
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/shopify"
)

// graphqlVariables decodes the request body as the variables object
// for a fixed storefront operation. An empty body is allowed.
func graphqlVariables(c *fiber.Ctx) (any, error) {
	body := c.Body()
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	var variables any
	if err := json.Unmarshal(body, &variables); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse graphql variables")
	}

	return variables, nil
}

// relayGraphQL copies the upstream response through. An unreachable
// upstream answers 400, matching the storefront contract.
func relayGraphQL(c *fiber.Ctx, result *shopify.Result, err error) error {
	if err != nil {
		if stderrors.Is(err, shopify.ErrUpstream) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "requests error"})
		}
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(result.StatusCode).Send(result.Body)
}

type graphqlCall func(c *fiber.Ctx, variables any) (*shopify.Result, error)

func (s *Server) graphqlHandler(call graphqlCall) fiber.Handler {
	return func(c *fiber.Ctx) error {
		variables, err := graphqlVariables(c)
		if err != nil {
			return err
		}

		result, err := call(c, variables)
		return relayGraphQL(c, result, err)
	}
}

func (s *Server) handleGetCheckout(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.GetCheckout(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleCreateCheckout(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.CreateCheckout(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleUpdateCheckoutEmail(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.UpdateCheckoutEmail(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleUpdateCheckoutAttributes(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.UpdateCheckoutAttributes(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleUpdateShippingLine(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.UpdateShippingLine(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleUpdateCheckoutShippingAddress(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.UpdateCheckoutShippingAddress(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleCreateCustomer(c *fiber.Ctx) error {
	return s.graphqlHandler(func(c *fiber.Ctx, v any) (*shopify.Result, error) {
		return s.shopify.CreateCustomer(c.UserContext(), v, c.IP())
	})(c)
}

func (s *Server) handleOrderNoteAttributes(c *fiber.Ctx) error {
	var attrs []shopify.NoteAttribute
	if err := json.Unmarshal(c.Body(), &attrs); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse note attributes")
	}

	result, err := s.shopify.UpdateOrderNoteAttributes(c.UserContext(), c.Params("order_id"), attrs)
	return relayGraphQL(c, result, err)
}

// handleShopifyPassthrough relays an admin REST call verbatim,
// including the upstream status and pagination Link header.
func (s *Server) handleShopifyPassthrough(c *fiber.Ctx) error {
	path := c.Params("*")
	rawQuery := string(c.Request().URI().QueryString())

	var body []byte
	switch c.Method() {
	case fiber.MethodPost, fiber.MethodPut:
		body = c.Body()
	}

	result, err := s.shopify.Passthrough(c.UserContext(), c.Method(), path, rawQuery, body)
	if err != nil {
		if stderrors.Is(err, shopify.ErrUpstream) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail":     "fetch error",
				"suffix_url": path,
			})
		}
		return err
	}

	if result.Link != "" {
		c.Set("Link", result.Link)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(result.StatusCode).Send(result.Body)
}
