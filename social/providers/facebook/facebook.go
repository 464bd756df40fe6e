package facebook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-storefront/social"
)

const (
	defaultAuthURL     = "https://www.facebook.com/v18.0/dialog/oauth"
	defaultTokenURL    = "https://graph.facebook.com/v18.0/oauth/access_token"
	defaultUserInfoURL = "https://graph.facebook.com/me"
)

// Config holds Facebook OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Facebook scopes.
func DefaultScopes() []string {
	return []string{"email", "public_profile"}
}

// Provider implements social.Provider for Facebook.
type Provider struct {
	config     Config
	httpClient *http.Client
}

var _ social.Provider = (*Provider)(nil)

// New creates a new Facebook provider.
func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements social.Provider.
func (p *Provider) Name() string {
	return "facebook"
}

// AuthCodeURL implements social.Provider.
func (p *Provider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"response_type": {"code"},
		"scope":         {strings.Join(p.config.Scopes, ",")},
		"state":         {state},
	}

	return p.config.AuthURL + "?" + params.Encode()
}

// Exchange implements social.Provider. Facebook takes the exchange
// parameters on the query string of a GET request.
func (p *Provider) Exchange(ctx context.Context, code string) (*social.Token, error) {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.CallbackURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tokenResp facebookTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, social.ProviderError("facebook", "exchange", resp.StatusCode, "invalid_response", "failed to decode token response")
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != nil {
		code, desc := "", ""
		if tokenResp.Error != nil {
			code, desc = tokenResp.Error.Type, tokenResp.Error.Message
		}
		return nil, social.ProviderError("facebook", "exchange", resp.StatusCode, code, desc)
	}
	if tokenResp.AccessToken == "" {
		return nil, social.ProviderError("facebook", "exchange", resp.StatusCode, "missing_access_token", "missing access token")
	}

	expiresAt := time.Time{}
	if tokenResp.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &social.Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

// UserInfo implements social.Provider.
func (p *Provider) UserInfo(ctx context.Context, token *social.Token) (*social.Profile, error) {
	if token == nil || token.AccessToken == "" {
		return nil, social.ProviderError("facebook", "userinfo", 0, "missing_token", "missing access token")
	}

	params := url.Values{
		"fields":       {"id,name,email,picture"},
		"access_token": {token.AccessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, social.ProviderError("facebook", "userinfo", resp.StatusCode, "request_failed", string(body))
	}

	var info facebookUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, social.ProviderError("facebook", "userinfo", resp.StatusCode, "invalid_response", "failed to decode user info")
	}

	if info.Email == "" {
		return nil, social.ProviderError("facebook", "userinfo", resp.StatusCode, "missing_email", "profile has no email")
	}

	return mapProfile(&info), nil
}

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
