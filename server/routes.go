package server

import (
	"github.com/gofiber/fiber/v2"
)

// AuthTag declares which credential a route requires. The tags drive
// both middleware wiring and the route metadata endpoint, so the
// documented scheme can never drift from the enforced one.
type AuthTag string

const (
	AuthPublic          AuthTag = "public"
	AuthRequiresAccess  AuthTag = "requires_access"
	AuthRequiresRefresh AuthTag = "requires_refresh"
)

// Route is one declared endpoint.
type Route struct {
	Method  string
	Path    string
	Name    string
	Auth    AuthTag
	Handler fiber.Handler
}

func (s *Server) routes() []Route {
	return []Route{
		{fiber.MethodPost, "/auth/login", "Login", AuthPublic, s.handleLogin},
		{fiber.MethodPost, "/auth/refresh", "Refresh session", AuthRequiresRefresh, s.handleRefresh},
		{fiber.MethodDelete, "/auth/logout", "Logout", AuthPublic, s.handleLogout},
		{fiber.MethodGet, "/auth/login/:provider", "OAuth login", AuthPublic, s.handleOAuthLogin},
		{fiber.MethodGet, "/auth/login/:provider/authorized", "OAuth authorized redirect", AuthPublic, s.handleOAuthAuthorized},

		{fiber.MethodPost, "/user/signup", "Signup", AuthPublic, s.handleSignup},
		{fiber.MethodGet, "/user/verify/:id", "Verify account", AuthPublic, s.handleVerify},
		{fiber.MethodGet, "/user/profile", "Self user profile", AuthRequiresAccess, s.handleProfile},
		{fiber.MethodPut, "/user", "Update user", AuthRequiresAccess, s.handleUpdateUser},
		{fiber.MethodPost, "/user/reset-password", "Reset password", AuthRequiresAccess, s.handleResetPassword},
		{fiber.MethodGet, "/user", "List users", AuthRequiresAccess, s.handleListUsers},
		{fiber.MethodGet, "/user/statistics", "User statistics", AuthRequiresAccess, s.handleStatistics},

		{fiber.MethodPost, "/shopify/graphql/getcheckout", "Get checkout", AuthPublic, s.handleGetCheckout},
		{fiber.MethodPost, "/shopify/graphql/createcheckout", "Create checkout", AuthPublic, s.handleCreateCheckout},
		{fiber.MethodPost, "/shopify/graphql/updatecheckoutemail", "Update checkout email", AuthPublic, s.handleUpdateCheckoutEmail},
		{fiber.MethodPost, "/shopify/graphql/updatecheckoutattributes", "Update checkout attributes", AuthPublic, s.handleUpdateCheckoutAttributes},
		{fiber.MethodPost, "/shopify/graphql/updateshippingline", "Update shipping line", AuthPublic, s.handleUpdateShippingLine},
		{fiber.MethodPost, "/shopify/graphql/updatecheckoutshippingaddress", "Update shipping address", AuthPublic, s.handleUpdateCheckoutShippingAddress},
		{fiber.MethodPost, "/shopify/graphql/createcustomer", "Create customer", AuthPublic, s.handleCreateCustomer},
		{fiber.MethodPut, "/shopify/order/:order_id/note_attribute", "Update order note attributes", AuthPublic, s.handleOrderNoteAttributes},

		{fiber.MethodGet, "/shopify/*", "Shopify passthrough GET", AuthRequiresAccess, s.handleShopifyPassthrough},
		{fiber.MethodPost, "/shopify/*", "Shopify passthrough POST", AuthRequiresAccess, s.handleShopifyPassthrough},
		{fiber.MethodPut, "/shopify/*", "Shopify passthrough PUT", AuthRequiresAccess, s.handleShopifyPassthrough},
		{fiber.MethodDelete, "/shopify/*", "Shopify passthrough DELETE", AuthRequiresAccess, s.handleShopifyPassthrough},
	}
}

func (s *Server) registerRoutes() {
	routes := s.routes()

	for _, route := range routes {
		handlers := []fiber.Handler{}

		switch route.Auth {
		case AuthRequiresAccess:
			handlers = append(handlers, s.requireAccess)
		case AuthRequiresRefresh:
			handlers = append(handlers, s.requireRefresh)
		}

		handlers = append(handlers, route.Handler)
		s.app.Add(route.Method, route.Path, handlers...)
	}

	s.app.Get("/routes", func(c *fiber.Ctx) error {
		type meta struct {
			Method string  `json:"method"`
			Path   string  `json:"path"`
			Name   string  `json:"name"`
			Auth   AuthTag `json:"auth"`
		}

		out := make([]meta, 0, len(routes))
		for _, route := range routes {
			out = append(out, meta{
				Method: route.Method,
				Path:   route.Path,
				Name:   route.Name,
				Auth:   route.Auth,
			})
		}

		return c.JSON(out)
	})
}
