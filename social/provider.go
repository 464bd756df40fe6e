package social

import (
	"context"
	"time"
)

// Provider is one OAuth2 login provider.
type Provider interface {
	// Name returns the provider identifier (e.g., "google", "facebook").
	Name() string

	// AuthCodeURL returns the URL to redirect users for authorization.
	// The state parameter is included for CSRF protection.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*Token, error)

	// UserInfo fetches the user's profile using the access token.
	UserInfo(ctx context.Context, token *Token) (*Profile, error)
}

// Token is an OAuth2 token response.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresAt    time.Time
	Raw          map[string]any
}

// Profile is normalized user information from a provider.
type Profile struct {
	ProviderUserID string
	Provider       string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
	Raw            map[string]any
}
