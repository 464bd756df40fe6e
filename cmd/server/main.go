package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/goliatone/go-storefront/config"
	"github.com/goliatone/go-storefront/credentials"
	"github.com/goliatone/go-storefront/identity"
	"github.com/goliatone/go-storefront/mailer"
	"github.com/goliatone/go-storefront/server"
	"github.com/goliatone/go-storefront/session"
	"github.com/goliatone/go-storefront/shopify"
	"github.com/goliatone/go-storefront/social"
	"github.com/goliatone/go-storefront/social/providers/facebook"
	"github.com/goliatone/go-storefront/social/providers/google"
	"github.com/goliatone/go-storefront/store"
	"github.com/goliatone/go-storefront/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseDSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	ctx := context.Background()
	if err := store.CreateTables(ctx, db); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	repo := store.NewManager(db)
	repo.MustValidate()

	tokens, err := token.NewService(cfg.SigningSecret, cfg.Issuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Error("token service setup failed", "error", err)
		os.Exit(1)
	}

	ident := identity.NewService(
		repo,
		credentials.New(cfg.KDFIterations),
		mailer.NewSendGrid(cfg.SendgridAPIKey, "go-storefront", cfg.SendgridFromMail),
		identity.Config{
			BackendURL:                cfg.BackendURL,
			AllowCrossChannelAdoption: cfg.AllowCrossChannelAdoption,
		},
	).WithLogger(logger)

	providers := map[string]social.Provider{}
	if cfg.GoogleClientID != "" {
		providers["google"] = google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.BackendURL + "/auth/login/google/authorized",
		})
	}
	if cfg.FacebookClientID != "" {
		providers["facebook"] = facebook.New(facebook.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			CallbackURL:  cfg.BackendURL + "/auth/login/facebook/authorized",
		})
	}

	srv := server.New(server.Deps{
		Config:    cfg,
		Repo:      repo,
		Identity:  ident,
		Tokens:    tokens,
		Sessions:  session.NewIssuer(tokens),
		Providers: providers,
		States:    social.NewEncryptedStateManager([]byte(cfg.OAuthStateSecret), 10*time.Minute),
		Shopify: shopify.NewClient(shopify.Config{
			BaseURL:         cfg.ShopifyBaseURL,
			StorefrontAPI:   cfg.ShopifyStorefrontAPI,
			StorefrontToken: cfg.ShopifyStorefrontToken,
			Timeout:         cfg.UpstreamTimeout,
		}).WithLogger(logger),
		Logger: logger,
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-done
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := srv.Listen(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
