package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-facade/auth"
	"github.com/jrsteele09/go-oauth-facade/auth/coderepo"
	"github.com/jrsteele09/go-oauth-facade/clients"
	fakeclientrepo "github.com/jrsteele09/go-oauth-facade/clients/repofake"
	"github.com/jrsteele09/go-oauth-facade/grant"
	"github.com/jrsteele09/go-oauth-facade/internal/config"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/internal/metrics"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/server"
	"github.com/jrsteele09/go-oauth-facade/token"
	tokenfakerepo "github.com/jrsteele09/go-oauth-facade/token/repofake"
	"github.com/jrsteele09/go-oauth-facade/users"
	fakeuserrepo "github.com/jrsteele09/go-oauth-facade/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminUsername = "admin"
	adminPassword = "Adm1nPassword"
	redirect      = "https://app.test/callback"
)

type testFixture struct {
	server       *server.Server
	metrics      *metrics.Metrics
	userRepo     *fakeuserrepo.FakeUserRepo
	clientRepo   *fakeclientrepo.FakeClientRepo
	tokenRepo    *tokenfakerepo.FakeTokenRepo
	webClient    *clients.Client
	webSecret    oauth2.ClientSecret
	service      *clients.Client
	serviceSec   oauth2.ClientSecret
	health       *stubHealth
	dispatcher   *grant.Dispatcher
	buildOptions fixtureOptions
}

type fixtureOptions struct {
	env        map[string]string
	dispatcher func(*auth.Service, config.Config) *grant.Dispatcher
	logs       io.Writer
}

type stubHealth struct {
	err error
}

func (h *stubHealth) CheckHealth(context.Context) error {
	return h.err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "STORAGE", "TOKEN_STORE", "DATABASE_URL", "GRANT_TYPES", "BASE_URL",
		"SYSTEM_ADMIN_USER", "SYSTEM_ADMIN_PASSWORD", "BOOTSTRAP_CLIENT_ID", "BOOTSTRAP_CLIENT_SECRET",
		"REDACT_INTERNAL_ERRORS", "MAX_REQUEST_BODY_BYTES", "ACCESS_TOKEN_EXPIRY",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func setupTestFixture(t *testing.T, opts ...func(*fixtureOptions)) *testFixture {
	t.Helper()
	ctx := context.Background()

	f := &testFixture{
		userRepo:   fakeuserrepo.NewFakeUserRepo(),
		clientRepo: fakeclientrepo.NewFakeClientRepo(),
		tokenRepo:  tokenfakerepo.NewFakeTokensRepo(),
		metrics:    metrics.New(),
		health:     &stubHealth{},
	}
	for _, opt := range opts {
		opt(&f.buildOptions)
	}

	clearEnv(t)
	t.Setenv("ENV", "TEST")
	t.Setenv("SYSTEM_ADMIN_USER", adminUsername)
	t.Setenv("SYSTEM_ADMIN_PASSWORD", adminPassword)
	for k, v := range f.buildOptions.env {
		t.Setenv(k, v)
	}
	cfg, err := config.New()
	require.NoError(t, err)

	clientService := clients.NewService(f.clientRepo)
	f.webClient, f.webSecret, err = clientService.Register(ctx, clients.Registration{
		Type:         clients.ClientTypeConfidential,
		RedirectURIs: []string{redirect},
		GrantTypes:   []oauth2.GrantType{oauth2.AuthorizationCodeGrant, oauth2.RefreshTokenGrant},
		Scopes:       oauth2.NewScopes("read write"),
	}, "")
	require.NoError(t, err)
	f.service, f.serviceSec, err = clientService.Register(ctx, clients.Registration{
		Type:       clients.ClientTypeConfidential,
		GrantTypes: []oauth2.GrantType{oauth2.ClientCredentialsGrant},
		Scopes:     oauth2.NewScopes("reports"),
	}, "")
	require.NoError(t, err)

	tokens := token.NewManager(f.tokenRepo, cfg)
	authService, err := auth.NewService(auth.Repos{
		Users:   users.NewService(f.userRepo),
		Clients: f.clientRepo,
		Codes:   coderepo.NewInMemoryRepo(),
	}, tokens, cfg)
	require.NoError(t, err)

	if f.buildOptions.dispatcher != nil {
		f.dispatcher = f.buildOptions.dispatcher(authService, cfg)
	} else {
		f.dispatcher = authService.Register(grant.NewBuilder(), cfg.GetEnabledGrantTypes()).Build()
	}

	logger := zerolog.Nop()
	if f.buildOptions.logs != nil {
		logger = zerolog.New(f.buildOptions.logs)
	}
	f.server, err = server.New(cfg,
		server.Repos{Users: f.userRepo, Clients: f.clientRepo},
		f.dispatcher,
		tokens,
		server.WithMetrics(f.metrics),
		server.WithHealthCheck("store", f.health),
		server.WithLogger(logger),
	)
	require.NoError(t, err)
	return f
}

func withEnv(key, value string) func(*fixtureOptions) {
	return func(o *fixtureOptions) {
		if o.env == nil {
			o.env = map[string]string{}
		}
		o.env[key] = value
	}
}

func withDispatcher(build func(*auth.Service, config.Config) *grant.Dispatcher) func(*fixtureOptions) {
	return func(o *fixtureOptions) {
		o.dispatcher = build
	}
}

func withLogOutput(w io.Writer) func(*fixtureOptions) {
	return func(o *fixtureOptions) {
		o.logs = w
	}
}

func (f *testFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.server.ServeHTTP(rr, req)
	return rr
}

func (f *testFixture) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

// login runs the password grant for the admin user.
func (f *testFixture) login(t *testing.T) *oauth2.TokenResponse {
	t.Helper()
	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type": {"password"},
		"username":   {adminUsername},
		"password":   {adminPassword},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return &resp
}

func (f *testFixture) authed(req *http.Request, access oauth2.AccessToken) *http.Request {
	req.Header.Set("Authorization", "Bearer "+access.Secret())
	return req
}

func decodeOAuthError(t *testing.T, rr *httptest.ResponseRecorder) oauth2.ErrorResponse {
	t.Helper()
	var body oauth2.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestPasswordGrantIssuesBearerPair(t *testing.T) {
	f := setupTestFixture(t)
	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type": {"password"},
		"username":   {adminUsername},
		"password":   {adminPassword},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Equal(t, "no-cache", rr.Header().Get("Pragma"))
	require.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, "bearer", body["token_type"])
	require.EqualValues(t, 3600, body["expires_in"])
	require.Len(t, body["access_token"], oauth2.DefaultTokenLength)
	require.Len(t, body["refresh_token"], oauth2.DefaultTokenLength)
	require.NotContains(t, body, "scope")
	require.Equal(t, 2, f.tokenRepo.Len())
}

func TestPasswordGrantWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type": {"password"},
		"username":   {adminUsername},
		"password":   {"not-the-password"},
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	body := decodeOAuthError(t, rr)
	require.Equal(t, "invalid_grant", body.Error)
	require.NotEmpty(t, body.ErrorDescription)
}

func TestUnregisteredGrantIsUnsupported(t *testing.T) {
	f := setupTestFixture(t, withEnv("GRANT_TYPES", "password"))
	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {"whatever"},
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "unsupported_grant_type", decodeOAuthError(t, rr).Error)
}

func TestTokenRequestsRejectedAtTheBoundary(t *testing.T) {
	f := setupTestFixture(t)

	testCases := []struct {
		name        string
		contentType string
		body        string
		query       string
	}{
		{"no parameters", "", "", ""},
		{"missing grant type", "application/x-www-form-urlencoded", "username=a&password=b", ""},
		{"unknown grant type", "application/x-www-form-urlencoded", "grant_type=implicit", ""},
		{"missing password", "application/x-www-form-urlencoded", "grant_type=password&username=a", ""},
		{"repeated parameter", "application/x-www-form-urlencoded", "grant_type=password&username=a&username=b&password=c", ""},
		{"json with number", "application/json", `{"grant_type":"password","username":"a","password":1}`, ""},
		{"malformed redirect", "", "", "grant_type=authorization_code&code=c&redirect_uri=%2Fcb&client_id=x&client_secret=y"},
		{"unsupported content type", "text/plain", "grant_type=password&username=a&password=b", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := server.RouteOAuthToken
			if tc.query != "" {
				target += "?" + tc.query
			}
			req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rr := f.do(req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Equal(t, "invalid_request", decodeOAuthError(t, rr).Error)
		})
	}
}

func TestTokenRequestBodyLimit(t *testing.T) {
	f := setupTestFixture(t, withEnv("MAX_REQUEST_BODY_BYTES", "64"))
	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type": {"password"},
		"username":   {adminUsername},
		"password":   {adminPassword},
		"padding":    {strings.Repeat("x", 128)},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_request", decodeOAuthError(t, rr).Error)
}

func TestDecodingPrecedence(t *testing.T) {
	f := setupTestFixture(t)
	good := url.Values{"grant_type": {"password"}, "username": {adminUsername}, "password": {adminPassword}}
	bad := url.Values{"grant_type": {"password"}, "username": {adminUsername}, "password": {"wrong-password"}}
	goodJSON := `{"grant_type":"password","username":"` + adminUsername + `","password":"` + adminPassword + `"}`
	badJSON := `{"grant_type":"password","username":"` + adminUsername + `","password":"wrong-password"}`

	testCases := []struct {
		name        string
		contentType string
		body        string
		query       url.Values
		status      int
	}{
		{"form beats query", "application/x-www-form-urlencoded", good.Encode(), bad, http.StatusOK},
		{"form beats query when form fails the grant", "application/x-www-form-urlencoded", bad.Encode(), good, http.StatusBadRequest},
		{"json beats query", "application/json", goodJSON, bad, http.StatusOK},
		{"json beats query when json fails the grant", "application/json; charset=utf-8", badJSON, good, http.StatusBadRequest},
		{"query when form is incomplete", "application/x-www-form-urlencoded", "grant_type=password", good, http.StatusOK},
		{"query when json is malformed", "application/json", "{", good, http.StatusOK},
		{"query only", "", "", good, http.StatusOK},
		{"untyped form body", "", good.Encode(), nil, http.StatusOK},
		{"untyped json body", "", goodJSON, nil, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := server.RouteOAuthToken
			if tc.query != nil {
				target += "?" + tc.query.Encode()
			}
			req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rr := f.do(req)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}

func TestClientCredentialsWithBasicAuth(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, server.RouteOAuthToken, strings.NewReader("grant_type=client_credentials"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(string(f.service.ID)), url.QueryEscape(f.serviceSec.Secret()))
	rr := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, oauth2.NewScopes("reports"), resp.Scope)

	req = httptest.NewRequest(http.MethodPost, server.RouteOAuthToken, strings.NewReader("grant_type=client_credentials"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(string(f.service.ID), "wrong")
	rr = f.do(req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_client", decodeOAuthError(t, rr).Error)
}

func TestClientCredentialsUnauthorizedClient(t *testing.T) {
	f := setupTestFixture(t)
	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {string(f.webClient.ID)},
		"client_secret": {f.webSecret.Secret()},
	})
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "unauthorized_client", decodeOAuthError(t, rr).Error)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := setupTestFixture(t)
	first := f.login(t)

	refresh := func() *httptest.ResponseRecorder {
		return f.postForm(server.RouteOAuthToken, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {first.RefreshToken.Secret()},
		})
	}
	rr := refresh()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var second oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&second))
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	rr = refresh()
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_grant", decodeOAuthError(t, rr).Error)

	rr = f.do(f.authed(httptest.NewRequest(http.MethodGet, server.RouteAPIUsers, nil), first.AccessToken))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = f.do(f.authed(httptest.NewRequest(http.MethodGet, server.RouteAPIUsers, nil), second.AccessToken))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 2, f.tokenRepo.Len())
}

func TestAuthorizationCodeFlow(t *testing.T) {
	f := setupTestFixture(t)
	session := f.login(t)

	query := url.Values{
		"response_type": {"code"},
		"client_id":     {string(f.webClient.ID)},
		"redirect_uri":  {redirect},
		"scope":         {"read"},
		"state":         {"af0ifjsldkj"},
	}
	req := f.authed(httptest.NewRequest(http.MethodGet, server.RouteOAuthAuthorize+"?"+query.Encode(), nil), session.AccessToken)
	rr := f.do(req)
	require.Equal(t, http.StatusFound, rr.Code, rr.Body.String())

	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "app.test", location.Host)
	require.Equal(t, "af0ifjsldkj", location.Query().Get("state"))
	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	exchange := func() *httptest.ResponseRecorder {
		return f.postForm(server.RouteOAuthToken, url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"redirect_uri":  {redirect},
			"client_id":     {string(f.webClient.ID)},
			"client_secret": {f.webSecret.Secret()},
		})
	}
	rr = exchange()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, oauth2.NewScopes("read"), resp.Scope)

	rr = exchange()
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_grant", decodeOAuthError(t, rr).Error)
}

func TestAuthorizeRejections(t *testing.T) {
	f := setupTestFixture(t)
	session := f.login(t)

	valid := func() url.Values {
		return url.Values{
			"response_type": {"code"},
			"client_id":     {string(f.webClient.ID)},
			"redirect_uri":  {redirect},
		}
	}

	testCases := []struct {
		name     string
		mutate   func(url.Values)
		anon     bool
		method   string
		status   int
		errorStr string
	}{
		{"anonymous", func(url.Values) {}, true, http.MethodGet, http.StatusBadRequest, "invalid_request"},
		{"missing client", func(q url.Values) { q.Del("client_id") }, false, http.MethodGet, http.StatusBadRequest, "invalid_request"},
		{"unknown response type", func(q url.Values) { q.Set("response_type", "bogus") }, false, http.MethodGet, http.StatusBadRequest, "invalid_request"},
		{"unregistered redirect", func(q url.Values) { q.Set("redirect_uri", "https://evil.test/cb") }, false, http.MethodPost, http.StatusBadRequest, "invalid_request"},
		{"unknown client", func(q url.Values) { q.Set("client_id", "nobody") }, false, http.MethodGet, http.StatusUnauthorized, "invalid_client"},
		{"scope beyond registration", func(q url.Values) { q.Set("scope", "admin") }, false, http.MethodGet, http.StatusBadRequest, "invalid_scope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := valid()
			tc.mutate(q)
			req := httptest.NewRequest(tc.method, server.RouteOAuthAuthorize+"?"+q.Encode(), nil)
			if !tc.anon {
				f.authed(req, session.AccessToken)
			}
			rr := f.do(req)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			require.Equal(t, tc.errorStr, decodeOAuthError(t, rr).Error)
		})
	}
}

func TestAuthorizeWithoutHandler(t *testing.T) {
	f := setupTestFixture(t, withEnv("GRANT_TYPES", "password"))
	session := f.login(t)

	q := url.Values{"response_type": {"code"}, "client_id": {string(f.webClient.ID)}, "redirect_uri": {redirect}}
	rr := f.do(f.authed(httptest.NewRequest(http.MethodGet, server.RouteOAuthAuthorize+"?"+q.Encode(), nil), session.AccessToken))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "unsupported_grant_type", decodeOAuthError(t, rr).Error)
}

func TestInvalidBearerToken(t *testing.T) {
	f := setupTestFixture(t)
	req := httptest.NewRequest(http.MethodGet, server.RouteAPIUsers, nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := f.do(req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Header().Get("WWW-Authenticate"), "invalid_token")

	var body server.APIError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, http.StatusUnauthorized, body.Code)
}

func TestStaleBearerOnOAuthEndpoints(t *testing.T) {
	f := setupTestFixture(t)
	session := f.login(t)

	for _, stale := range []string{"stale-token", session.RefreshToken.Secret()} {
		t.Run("token endpoint", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, server.RouteOAuthToken, strings.NewReader(url.Values{
				"grant_type": {"password"},
				"username":   {adminUsername},
				"password":   {adminPassword},
			}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Authorization", "Bearer "+stale)
			rr := f.do(req)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			require.Empty(t, rr.Header().Get("WWW-Authenticate"))
		})

		t.Run("authorize endpoint", func(t *testing.T) {
			q := url.Values{
				"response_type": {"code"},
				"client_id":     {string(f.webClient.ID)},
				"redirect_uri":  {redirect},
			}
			req := httptest.NewRequest(http.MethodGet, server.RouteOAuthAuthorize+"?"+q.Encode(), nil)
			req.Header.Set("Authorization", "Bearer "+stale)
			rr := f.do(req)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			body := decodeOAuthError(t, rr)
			require.Equal(t, "invalid_request", body.Error)
			require.NotEmpty(t, body.ErrorDescription)
		})

		t.Run("api stays strict", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, server.RouteAPIUsers, nil)
			req.Header.Set("Authorization", "Bearer "+stale)
			rr := f.do(req)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.Contains(t, rr.Header().Get("WWW-Authenticate"), "invalid_token")
		})
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	session := f.login(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteAPIUsers, nil)
	req.Header.Set("Authorization", "Bearer "+session.RefreshToken.Secret())
	rr := f.do(req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInternalErrorsAndRedaction(t *testing.T) {
	failing := func(*auth.Service, config.Config) *grant.Dispatcher {
		return grant.NewBuilder().
			Password(grant.PasswordHandlerFunc(func(context.Context, oauth2.Username, oauth2.Password) (*oauth2.TokenResponse, error) {
				return nil, errors.New("connection refused")
			})).
			Build()
	}
	form := url.Values{"grant_type": {"password"}, "username": {"a"}, "password": {"b"}}

	t.Run("surfaced", func(t *testing.T) {
		f := setupTestFixture(t, withDispatcher(failing))
		rr := f.postForm(server.RouteOAuthToken, form)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeOAuthError(t, rr)
		require.Equal(t, "internal_error", body.Error)
		require.Equal(t, "connection refused", body.ErrorDescription)
	})

	t.Run("redacted", func(t *testing.T) {
		f := setupTestFixture(t, withDispatcher(failing), withEnv("REDACT_INTERNAL_ERRORS", "true"))
		rr := f.postForm(server.RouteOAuthToken, form)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeOAuthError(t, rr)
		require.Equal(t, "server_error", body.Error)
		require.NotContains(t, body.ErrorDescription, "connection refused")
	})
}

func TestHandlersSeeTheInboundRequest(t *testing.T) {
	var seen string
	f := setupTestFixture(t, withDispatcher(func(*auth.Service, config.Config) *grant.Dispatcher {
		return grant.NewBuilder().
			ClientCredentials(grant.ClientCredentialsHandlerFunc(func(ctx context.Context, _ oauth2.ClientID, _ oauth2.ClientSecret) (*oauth2.TokenResponse, error) {
				r, ok := server.RequestFromContext(ctx)
				if ok {
					seen = r.Header.Get("X-Device")
				}
				return oauth2.NewTokenResponse()
			})).
			Build()
	}))

	req := httptest.NewRequest(http.MethodPost, server.RouteOAuthToken+"?grant_type=client_credentials&client_id=c&client_secret=s", nil)
	req.Header.Set("X-Device", "kiosk-7")
	rr := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "kiosk-7", seen)

	_, ok := server.RequestFromContext(context.Background())
	require.False(t, ok)
}

func TestServerMetadata(t *testing.T) {
	f := setupTestFixture(t, withEnv("BASE_URL", "https://auth.example.com/"))
	rr := f.do(httptest.NewRequest(http.MethodGet, server.RouteWellKnownOAuthServer, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var meta server.ServerMetadata
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&meta))
	require.Equal(t, "https://auth.example.com", meta.Issuer)
	require.Equal(t, "https://auth.example.com/oauth/token", meta.TokenEndpoint)
	require.Equal(t, "https://auth.example.com/oauth/authorize", meta.AuthorizationEndpoint)
	require.Equal(t, oauth2.GrantTypes, meta.GrantTypesSupported)
	require.Equal(t, []oauth2.ResponseType{oauth2.CodeResponseType}, meta.ResponseTypesSupported)

	f = setupTestFixture(t, withEnv("GRANT_TYPES", "client_credentials"))
	rr = f.do(httptest.NewRequest(http.MethodGet, server.RouteWellKnownOAuthServer, nil))
	meta = server.ServerMetadata{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&meta))
	require.Equal(t, []oauth2.GrantType{oauth2.ClientCredentialsGrant}, meta.GrantTypesSupported)
	require.Empty(t, meta.AuthorizationEndpoint)
	require.Empty(t, meta.ResponseTypesSupported)
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var health server.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, map[string]string{"store": "ok"}, health.Checks)

	f.health.err = errors.New("dial tcp: connection refused")
	rr = f.do(httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusFailedDependency, rr.Code)
	health = server.HealthResponse{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "dial tcp: connection refused", health.Checks["store"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.postForm(server.RouteOAuthToken, url.Values{"grant_type": {"password"}, "username": {"x"}, "password": {"y"}})
	f.postForm(server.RouteOAuthToken, url.Values{"grant_type": {"implicit"}})

	rr := f.do(httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `oauth_facade_token_requests_total{grant_type="password",outcome="ok"} 1`)
	require.Contains(t, string(body), `oauth_facade_token_requests_total{grant_type="password",outcome="invalid_grant"} 1`)
	require.Contains(t, string(body), `oauth_facade_token_requests_total{grant_type="undecoded",outcome="invalid_request"} 1`)
}

func TestSecurityHeaders(t *testing.T) {
	f := setupTestFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestAdminUserIsBootstrappedOnce(t *testing.T) {
	f := setupTestFixture(t)
	admin, err := f.userRepo.GetByUsername(context.Background(), adminUsername)
	require.NoError(t, err)
	require.Equal(t, "admin@localhost", admin.Email)
	require.True(t, users.CheckPasswordHash(adminPassword, admin.PasswordHash))

	require.NoError(t, f.server.InitialiseSystem(context.Background()))
	page, err := f.userRepo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
}

func TestBootstrapClient(t *testing.T) {
	const secret = "bootstrap-client-secret"
	var logs bytes.Buffer
	f := setupTestFixture(t,
		withEnv("BOOTSTRAP_CLIENT_ID", "cli"),
		withEnv("BOOTSTRAP_CLIENT_SECRET", secret),
		withLogOutput(&logs),
	)
	client, err := f.clientRepo.Get(context.Background(), "cli")
	require.NoError(t, err)
	require.Equal(t, clients.ClientTypeConfidential, client.Type)
	require.True(t, client.AllowsGrant(oauth2.ClientCredentialsGrant))
	require.False(t, client.AllowsGrant(oauth2.AuthorizationCodeGrant))
	require.True(t, client.CheckSecret(secret))
	require.Contains(t, logs.String(), "created bootstrap client")
	require.NotContains(t, logs.String(), secret)

	rr := f.postForm(server.RouteOAuthToken, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"cli"},
		"client_secret": {secret},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestBootstrapClientWithoutSecret(t *testing.T) {
	var logs bytes.Buffer
	f := setupTestFixture(t, withEnv("BOOTSTRAP_CLIENT_ID", "cli"), withLogOutput(&logs))
	_, err := f.clientRepo.Get(context.Background(), "cli")
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.Contains(t, logs.String(), "BOOTSTRAP_CLIENT_SECRET is not set")
}
