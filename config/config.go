package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-provided setting the server needs.
// Required values without a default are startup-fatal when missing.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	FrontendURL string `env:"FRONTEND_URL,required"`
	BackendURL  string `env:"BACKEND_URL,required"`

	DatabaseDSN string `env:"DATABASE_DSN,required"`

	SigningSecret   string        `env:"JWT_SIGNING_SECRET,required"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"go-storefront"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	KDFIterations int `env:"KDF_ITERATIONS" envDefault:"10000"`

	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	OAuthStateSecret     string `env:"OAUTH_STATE_SECRET,required"`

	SendgridAPIKey   string `env:"SENDGRID_API_KEY"`
	SendgridFromMail string `env:"SENDGRID_FROM_MAIL"`

	ShopifyBaseURL         string `env:"SHOPIFY_BASE_URL"`
	ShopifyStorefrontAPI   string `env:"SHOPIFY_STOREFRONT_API"`
	ShopifyStorefrontToken string `env:"SHOPIFY_STOREFRONT_TOKEN"`

	// UpstreamTimeout bounds every outbound call to OAuth providers,
	// the mail service, and the Shopify API.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`

	// AllowCrossChannelAdoption lets an OAuth callback adopt a
	// pre-existing password account that shares the same email. This is
	// a documented convenience with a known takeover caveat; disable it
	// to force channel-exclusive accounts.
	AllowCrossChannelAdoption bool `env:"ALLOW_CROSS_CHANNEL_ADOPTION" envDefault:"true"`
}

// Load parses config from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks constraints the env tags cannot express.
func (c *Config) Validate() error {
	if c.KDFIterations < 1000 {
		return fmt.Errorf("config: KDF_ITERATIONS must be >= 1000, got %d", c.KDFIterations)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("config: token TTLs must be positive")
	}

	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("config: ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}

	if len(c.OAuthStateSecret) < 32 {
		return fmt.Errorf("config: OAUTH_STATE_SECRET must be at least 32 bytes")
	}

	return nil
}

// IsDev reports whether the server runs with the dev profile.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}
