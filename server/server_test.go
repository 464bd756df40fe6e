package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-storefront/config"
	"github.com/goliatone/go-storefront/credentials"
	"github.com/goliatone/go-storefront/identity"
	"github.com/goliatone/go-storefront/mailer"
	"github.com/goliatone/go-storefront/session"
	"github.com/goliatone/go-storefront/shopify"
	"github.com/goliatone/go-storefront/social"
	"github.com/goliatone/go-storefront/store"
	"github.com/goliatone/go-storefront/token"
)

type stubProvider struct {
	name    string
	email   string
	profile string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*social.Token, error) {
	if code != "good-code" {
		return nil, social.ProviderError(p.name, "exchange", 400, "invalid_grant", "bad code")
	}
	return &social.Token{AccessToken: "upstream-token"}, nil
}

func (p *stubProvider) UserInfo(_ context.Context, _ *social.Token) (*social.Profile, error) {
	return &social.Profile{
		Provider:      p.name,
		Email:         p.email,
		EmailVerified: true,
		Name:          p.profile,
	}, nil
}

type testEnv struct {
	srv  *Server
	repo store.Manager
	mail *mailer.Recorder
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, store.CreateTables(context.Background(), db))
	t.Cleanup(func() { db.Close() })

	repo := store.NewManager(db)
	mail := &mailer.Recorder{}

	cfg := &config.Config{
		Env:                       "test",
		HTTPAddr:                  ":0",
		FrontendURL:               "http://front.example.com",
		BackendURL:                "http://api.example.com",
		SigningSecret:             "test-signing-secret",
		Issuer:                    "go-storefront-test",
		AccessTokenTTL:            15 * time.Minute,
		RefreshTokenTTL:           24 * time.Hour,
		KDFIterations:             1000,
		OAuthStateSecret:          "0123456789abcdef0123456789abcdef",
		AllowCrossChannelAdoption: true,
	}

	tokens, err := token.NewService(cfg.SigningSecret, cfg.Issuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	require.NoError(t, err)

	ident := identity.NewService(repo, credentials.New(cfg.KDFIterations), mail, identity.Config{
		BackendURL:                cfg.BackendURL,
		AllowCrossChannelAdoption: cfg.AllowCrossChannelAdoption,
	})

	deps := Deps{
		Config:   cfg,
		Repo:     repo,
		Identity: ident,
		Tokens:   tokens,
		Sessions: session.NewIssuer(tokens),
		Providers: map[string]social.Provider{
			"google": &stubProvider{name: "google", email: "g@b.com", profile: "G"},
		},
		States:  social.NewEncryptedStateManager([]byte(cfg.OAuthStateSecret), time.Minute),
		Shopify: shopify.NewClient(shopify.Config{}),
	}

	if mutate != nil {
		mutate(&deps)
	}

	return &testEnv{srv: New(deps), repo: repo, mail: mail}
}

func (e *testEnv) request(t *testing.T, method, target, body string, cookies []*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) signup(t *testing.T, email, password string) {
	t.Helper()

	resp := e.request(t, fiber.MethodPost, "/user/signup",
		`{"email":"`+email+`","name":"Test","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (e *testEnv) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()

	resp := e.request(t, fiber.MethodPost, "/auth/login",
		`{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// requestCSRF is request with the X-CSRF-TOKEN header echoing the
// csrf cookie found in the jar, as a browser client would.
func (e *testEnv) requestCSRF(t *testing.T, method, target, body string, cookies []*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	req.Header.Set(CSRFHeader, csrfValue(cookies))

	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func csrfValue(cookies []*http.Cookie) string {
	for _, ck := range cookies {
		if ck.Name == CSRFCookie {
			return ck.Value
		}
	}
	return ""
}

func sessionCookies(cookies []*http.Cookie) []*http.Cookie {
	var out []*http.Cookie
	for _, ck := range cookies {
		if ck.Name == session.AccessCookie || ck.Name == session.RefreshCookie {
			out = append(out, ck)
		}
	}
	return out
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestSignupAndDuplicate(t *testing.T) {
	env := newTestEnv(t, nil)

	env.signup(t, "a@b.com", "Abcdef1!")
	require.Len(t, env.mail.Messages, 1)

	resp := env.request(t, fiber.MethodPost, "/user/signup",
		`{"email":"a@b.com","name":"B","password":"Abcdef1!"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	detail, ok := body["detail"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, detail, "email")
}

func TestLoginSetsSessionCookies(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")

	cookies := env.login(t, "a@b.com", "Abcdef1!")

	names := map[string]string{}
	for _, ck := range cookies {
		names[ck.Name] = ck.Path
	}

	assert.Contains(t, names, session.AccessCookie)
	assert.Contains(t, names, session.RefreshCookie)
	assert.Equal(t, session.RefreshPath, names[session.RefreshCookie])

	found, err := env.repo.Accounts().GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 1, found.LoginCount)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")

	resp := env.request(t, fiber.MethodPost, "/auth/login",
		`{"email":"a@b.com","password":"Wrong1!aa"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	found, err := env.repo.Accounts().GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 0, found.LoginCount, "failed login must not bump the counter")
}

func TestProfileRequiresAccessCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")

	resp := env.request(t, fiber.MethodGet, "/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookies := env.login(t, "a@b.com", "Abcdef1!")
	resp = env.request(t, fiber.MethodGet, "/user/profile", "", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "a@b.com", body["email"])
	assert.Equal(t, "Test", body["name"])
}

func TestResolveIsIdempotentPerRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")

	env.srv.App().Get("/test/resolve-twice", func(c *fiber.Ctx) error {
		if _, err := env.srv.resolve(c); err != nil {
			return err
		}
		if _, err := env.srv.resolve(c); err != nil {
			return err
		}
		return c.SendString("ok")
	})

	cookies := env.login(t, "a@b.com", "Abcdef1!")
	resp := env.request(t, fiber.MethodGet, "/test/resolve-twice", "", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	found, err := env.repo.Accounts().GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	// one bump from login, exactly one more from the double resolve
	assert.Equal(t, 2, found.LoginCount)

	count, err := env.repo.Activity().CountBetween(context.Background(),
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")
	cookies := env.login(t, "a@b.com", "Abcdef1!")

	resp := env.requestCSRF(t, fiber.MethodPost, "/auth/refresh", "", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fresh := map[string]bool{}
	for _, ck := range resp.Cookies() {
		if ck.Value != "" {
			fresh[ck.Name] = true
		}
	}
	assert.True(t, fresh[session.AccessCookie])
	assert.True(t, fresh[session.RefreshCookie])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")
	cookies := env.login(t, "a@b.com", "Abcdef1!")

	// keep only the access cookie and present it on the refresh path
	var access *http.Cookie
	for _, ck := range cookies {
		if ck.Name == session.AccessCookie {
			access = ck
		}
	}
	require.NotNil(t, access)

	crossed := &http.Cookie{Name: session.RefreshCookie, Value: access.Value}
	jar := []*http.Cookie{crossed, {Name: CSRFCookie, Value: csrfValue(cookies)}}
	resp := env.requestCSRF(t, fiber.MethodPost, "/auth/refresh", "", jar)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsCookies(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, fiber.MethodDelete, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cleared := map[string]bool{}
	for _, ck := range resp.Cookies() {
		if ck.Name == session.AccessCookie || ck.Name == session.RefreshCookie {
			assert.True(t, ck.Expires.Before(time.Now()), "cookie %s should be expired", ck.Name)
			cleared[ck.Name] = true
		}
	}
	assert.Len(t, cleared, 2)
}

func TestCSRFDoubleSubmit(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")
	sess := sessionCookies(env.login(t, "a@b.com", "Abcdef1!"))

	csrf := &http.Cookie{Name: CSRFCookie, Value: "csrf-token-value"}

	// state-changing request with session + csrf cookies but no header
	req := httptest.NewRequest(fiber.MethodDelete, "/auth/logout", nil)
	for _, ck := range sess {
		req.AddCookie(ck)
	}
	req.AddCookie(csrf)

	resp, err := env.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// same request with the header echoing the cookie
	req = httptest.NewRequest(fiber.MethodDelete, "/auth/logout", nil)
	for _, ck := range sess {
		req.AddCookie(ck)
	}
	req.AddCookie(csrf)
	req.Header.Set(CSRFHeader, "csrf-token-value")

	resp, err = env.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCSRFRequiredWithoutPriorCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")
	sess := sessionCookies(env.login(t, "a@b.com", "Abcdef1!"))

	// session cookies alone must not clear a state-changing request;
	// a client that never picked up a csrf cookie cannot pass the check
	resp := env.request(t, fiber.MethodDelete, "/auth/logout", "", sess)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerifyFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")

	resp := env.request(t, fiber.MethodGet, "/user/verify/unknown-token", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "not found", body["msg"])

	account, err := env.repo.Accounts().GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, account.VerificationToken)

	resp = env.request(t, fiber.MethodGet, "/user/verify/"+*account.VerificationToken, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://front.example.com", resp.Header.Get("Location"))

	names := map[string]bool{}
	for _, ck := range resp.Cookies() {
		names[ck.Name] = true
	}
	assert.True(t, names[session.AccessCookie])
	assert.True(t, names[session.RefreshCookie])
}

func TestListUsersPaginates(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "owner@b.com", "Abcdef1!")

	ctx := context.Background()
	for i := 0; i < 14; i++ {
		_, err := env.repo.Accounts().Create(ctx, &store.Account{
			Email:   "user" + string(rune('a'+i)) + "@b.com",
			Name:    "U",
			Channel: store.ChannelPassword,
		})
		require.NoError(t, err)
	}

	cookies := env.login(t, "owner@b.com", "Abcdef1!")
	resp := env.request(t, fiber.MethodGet, "/user?limit=10", "", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 15, body["count"])
	assert.NotNil(t, body["next"])
	assert.Nil(t, body["previous"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 10)
}

func TestStatisticsShape(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "a@b.com", "Abcdef1!")
	cookies := env.login(t, "a@b.com", "Abcdef1!")

	resp := env.request(t, fiber.MethodGet, "/user/statistics", "", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 1, body["sign_up_count"])
	assert.EqualValues(t, 1, body["today_active_count"])
	// two activity records today (login + statistics request): 2/7 rounded
	assert.InDelta(t, 0.29, body["last_7days_active_avg"].(float64), 0.001)
}

func TestOAuthLoginRedirectsWithState(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, fiber.MethodGet, "/auth/login/google", "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	require.NotEmpty(t, location)
	parsed, err := url.Parse(location)
	require.NoError(t, err)
	assert.Equal(t, "provider.example.com", parsed.Host)
	assert.NotEmpty(t, parsed.Query().Get("state"))
}

func TestOAuthAuthorizedCreatesVerifiedAccount(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, fiber.MethodGet, "/auth/login/google", "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	parsed, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	resp = env.request(t, fiber.MethodGet,
		"/auth/login/google/authorized?code=good-code&state="+url.QueryEscape(state), "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://front.example.com", resp.Header.Get("Location"))

	account, err := env.repo.Accounts().GetByEmail(context.Background(), "g@b.com")
	require.NoError(t, err)
	assert.True(t, account.Verified)
	assert.Equal(t, store.ChannelGoogle, account.Channel)
	assert.False(t, account.HasPassword())
	assert.Equal(t, 1, account.LoginCount)
}

func TestOAuthAuthorizedRejectsForeignState(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, fiber.MethodGet,
		"/auth/login/google/authorized?code=good-code&state=forged", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoutesMetadata(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, fiber.MethodGet, "/routes", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var routes []struct {
		Method string `json:"method"`
		Path   string `json:"path"`
		Auth   string `json:"auth"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&routes))
	require.NotEmpty(t, routes)

	byPath := map[string]string{}
	for _, r := range routes {
		byPath[r.Method+" "+r.Path] = r.Auth
	}

	assert.Equal(t, string(AuthPublic), byPath["POST /auth/login"])
	assert.Equal(t, string(AuthRequiresRefresh), byPath["POST /auth/refresh"])
	assert.Equal(t, string(AuthRequiresAccess), byPath["GET /user/profile"])
}

func TestShopifyGraphQLProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload.Query, "GetCheckout")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"node":{"id":"gid://1"}}}`))
	}))
	defer upstream.Close()

	env := newTestEnv(t, func(d *Deps) {
		d.Shopify = shopify.NewClient(shopify.Config{
			StorefrontAPI:   upstream.URL,
			StorefrontToken: "tok",
		})
	})

	resp := env.request(t, fiber.MethodPost, "/shopify/graphql/getcheckout",
		`{"id":"gid://1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body, "data")
}

func TestShopifyGraphQLUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Shopify = shopify.NewClient(shopify.Config{
			StorefrontAPI: "http://127.0.0.1:1",
			Timeout:       100 * time.Millisecond,
			Retries:       1,
		})
	})

	resp := env.request(t, fiber.MethodPost, "/shopify/graphql/getcheckout", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "requests error", body["detail"])
}

func TestShopifyPassthroughRequiresAuthAndCopiesLink(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/products.json", r.URL.Path)
		w.Header().Set("Link", `<https://shop/next>; rel="next"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer upstream.Close()

	env := newTestEnv(t, func(d *Deps) {
		d.Shopify = shopify.NewClient(shopify.Config{BaseURL: upstream.URL + "/admin/"})
	})

	resp := env.request(t, fiber.MethodGet, "/shopify/products.json", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.signup(t, "a@b.com", "Abcdef1!")
	cookies := env.login(t, "a@b.com", "Abcdef1!")

	resp = env.request(t, fiber.MethodGet, "/shopify/products.json", "", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `<https://shop/next>; rel="next"`, resp.Header.Get("Link"))
}
