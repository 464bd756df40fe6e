package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-storefront/config"
	"github.com/goliatone/go-storefront/identity"
	"github.com/goliatone/go-storefront/session"
	"github.com/goliatone/go-storefront/shopify"
	"github.com/goliatone/go-storefront/social"
	"github.com/goliatone/go-storefront/store"
	"github.com/goliatone/go-storefront/token"
)

// timeNow is swapped in tests that pin the statistics clock.
var timeNow = time.Now

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Config    *config.Config
	Repo      store.Manager
	Identity  *identity.Service
	Tokens    *token.Service
	Sessions  *session.Issuer
	Providers map[string]social.Provider
	States    social.StateManager
	Shopify   *shopify.Client
	Logger    *slog.Logger
}

// Server is the HTTP surface: auth and user endpoints plus the Shopify
// proxy.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	repo      store.Manager
	identity  *identity.Service
	tokens    *token.Service
	sessions  *session.Issuer
	providers map[string]social.Provider
	states    social.StateManager
	shopify   *shopify.Client
	logger    *slog.Logger
}

// New builds the server and registers every route.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       deps.Config,
		repo:      deps.Repo,
		identity:  deps.Identity,
		tokens:    deps.Tokens,
		sessions:  deps.Sessions,
		providers: deps.Providers,
		states:    deps.States,
		shopify:   deps.Shopify,
		logger:    logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "go-storefront",
		ErrorHandler: newErrorHandler(logger),
	})

	s.app.Use(s.requestLogger())
	s.app.Use(s.csrf())
	s.registerRoutes()

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.HTTPAddr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
