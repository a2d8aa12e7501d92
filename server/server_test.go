package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-authentik-portal/internal/config"
	"github.com/jrsteele09/go-authentik-portal/server"
	"github.com/jrsteele09/go-authentik-portal/sessions"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret = "test-session-secret"
	testLogoutURL     = "https://idp.example.com/application/o/portal/end-session/"
)

type testConfig struct {
	config.Roles

	baseURL string
}

var _ config.Config = testConfig{}

func (c testConfig) GetPort() string                   { return ":0" }
func (c testConfig) GetAppName() string                { return "Test Portal" }
func (c testConfig) GetEnv() string                    { return "TEST" }
func (c testConfig) GetAuthentikURL() string           { return c.baseURL }
func (c testConfig) GetClientID() string               { return "portal-client" }
func (c testConfig) GetClientSecret() string           { return "portal-secret" }
func (c testConfig) GetRedirectURI() string            { return "http://localhost:8080/oauth/callback" }
func (c testConfig) GetJWKSURL() string                { return "" }
func (c testConfig) GetLogoutURL() string              { return testLogoutURL }
func (c testConfig) GetOAuthScopes() []string          { return []string{"openid", "profile", "email"} }
func (c testConfig) GetInternalToken() string          { return "internal-token" }
func (c testConfig) GetUpstreamTimeout() time.Duration { return 5 * time.Second }
func (c testConfig) GetVerifyTokens() bool             { return false }
func (c testConfig) GetSessionSecret() string          { return testSessionSecret }
func (c testConfig) GetSessionMaxAge() time.Duration   { return time.Hour }
func (c testConfig) GetRefreshLeeway() time.Duration   { return 300 * time.Second }

// fixture wires the portal against a fake provider serving both the token
// endpoint and the management API.
type fixture struct {
	server        *server.Server
	store         *sessions.Store
	upstreamCalls atomic.Int32
}

func newFixture(t *testing.T, upstream http.HandlerFunc) *fixture {
	t.Helper()

	f := &fixture{store: sessions.NewStore(testSessionSecret, time.Hour)}

	fakeProvider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.upstreamCalls.Add(1)
		if upstream == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		upstream(w, r)
	}))
	t.Cleanup(fakeProvider.Close)

	portal, err := server.New(context.Background(), testConfig{baseURL: fakeProvider.URL})
	require.NoError(t, err)
	f.server = portal

	return f
}

func (f *fixture) do(t *testing.T, method, target string, session *sessions.Session) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if session != nil {
		req.AddCookie(f.sessionCookie(t, *session))
	}
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)
	return recorder
}

func (f *fixture) sessionCookie(t *testing.T, session sessions.Session) *http.Cookie {
	t.Helper()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, f.store.Save(recorder, req, session))

	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

// sessionFromResponse decodes the session cookie the handler wrote back, or
// returns ok=false when no session cookie was set.
func (f *fixture) sessionFromResponse(t *testing.T, recorder *httptest.ResponseRecorder) (sessions.Session, bool) {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name != sessions.CookieName {
			continue
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		return f.store.Load(req), true
	}
	return sessions.Session{}, false
}

func sessionCleared(t *testing.T, recorder *httptest.ResponseRecorder) bool {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == sessions.CookieName && cookie.MaxAge < 0 {
			return true
		}
	}
	return false
}

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()

	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return raw
}

func validToken(t *testing.T, groups ...string) string {
	t.Helper()

	return signedToken(t, jwtlib.MapClaims{
		"exp":                time.Now().Add(time.Hour).Unix(),
		"email":              "jane@example.com",
		"preferred_username": "jane",
		"groups":             groups,
	})
}

func TestLoginPage(t *testing.T) {
	f := newFixture(t, nil)

	recorder := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Sign in with Authentik")
}

func TestProtectedRoutesWithoutToken(t *testing.T) {
	f := newFixture(t, nil)

	browserRoutes := []string{"/dashboard", "/admin/users", "/admin/groups", "/admin/roles", "/admin/scopes"}
	for _, route := range browserRoutes {
		t.Run("GET "+route, func(t *testing.T) {
			recorder := f.do(t, http.MethodGet, route, nil)
			require.Equal(t, http.StatusSeeOther, recorder.Code)
			require.Equal(t, "/", recorder.Result().Header.Get("Location"))
		})
	}

	t.Run("POST /admin/scopes", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, "/admin/scopes", nil)
		require.Equal(t, http.StatusSeeOther, recorder.Code)
	})

	t.Run("GET /internal-api", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, "/internal-api", nil)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	require.Zero(t, f.upstreamCalls.Load(), "no upstream call may happen without a session token")
}

func TestOAuthAuthorize(t *testing.T) {
	f := newFixture(t, nil)

	recorder := f.do(t, http.MethodGet, "/oauth/authorize", nil)
	require.Equal(t, http.StatusFound, recorder.Code)

	redirect, err := url.Parse(recorder.Result().Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/application/o/authorize/", redirect.Path)

	session, ok := f.sessionFromResponse(t, recorder)
	require.True(t, ok, "authorize must persist the state in the session")
	require.NotEmpty(t, session.OAuthState)
	require.Equal(t, session.OAuthState, redirect.Query().Get("state"))
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	f := newFixture(t, nil)

	session := sessions.Session{OAuthState: "expected"}
	recorder := f.do(t, http.MethodGet, "/oauth/callback?code=abc&state=tampered", &session)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Mismatching state parameter.")

	_, wroteSession := f.sessionFromResponse(t, recorder)
	require.False(t, wroteSession, "session must be left untouched on state mismatch")
	require.Zero(t, f.upstreamCalls.Load(), "no code exchange may happen on state mismatch")
}

func TestOAuthCallbackSuccess(t *testing.T) {
	accessToken := validToken(t)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/application/o/token/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","refresh_token":"refresh-1","token_type":"bearer"}`))
	})

	session := sessions.Session{OAuthState: "expected"}
	recorder := f.do(t, http.MethodGet, "/oauth/callback?code=abc&state=expected", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, "/dashboard", recorder.Result().Header.Get("Location"))

	stored, ok := f.sessionFromResponse(t, recorder)
	require.True(t, ok)
	require.Equal(t, accessToken, stored.Token)
	require.Equal(t, "refresh-1", stored.RefreshToken)
	require.Empty(t, stored.OAuthState, "state is single-use")
}

func TestOAuthCallbackProviderRejection(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	session := sessions.Session{OAuthState: "expected"}
	recorder := f.do(t, http.MethodGet, "/oauth/callback?code=bad&state=expected", &session)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	_, wroteSession := f.sessionFromResponse(t, recorder)
	require.False(t, wroteSession)
}

func TestDashboardRoleDispatch(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{name: "admin group", groups: []string{"Administrador"}, want: "Administrator Dashboard"},
		{name: "authentik admins group", groups: []string{"authentik Admins"}, want: "Administrator Dashboard"},
		{name: "developer group", groups: []string{"Desarrollador"}, want: "Developer Dashboard"},
		{name: "admin wins over developer", groups: []string{"Desarrollador", "Administrador"}, want: "Administrator Dashboard"},
		{name: "unrelated groups fall back to guest", groups: []string{"Staff", "Billing"}, want: "Guest Dashboard"},
		{name: "no groups fall back to guest", groups: nil, want: "Guest Dashboard"},
	}

	f := newFixture(t, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session := sessions.Session{Token: validToken(t, tc.groups...)}
			recorder := f.do(t, http.MethodGet, "/dashboard", &session)

			require.Equal(t, http.StatusOK, recorder.Code)
			require.Contains(t, recorder.Body.String(), tc.want)
		})
	}
}

func TestDashboardExpiredTokenClearsSession(t *testing.T) {
	f := newFixture(t, nil)

	expired := signedToken(t, jwtlib.MapClaims{
		"exp":   time.Now().Add(-time.Minute).Unix(),
		"email": "jane@example.com",
	})
	session := sessions.Session{Token: expired}
	recorder := f.do(t, http.MethodGet, "/dashboard", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, "/", recorder.Result().Header.Get("Location"))
	require.True(t, sessionCleared(t, recorder))
}

func TestDashboardMalformedTokenClearsSession(t *testing.T) {
	f := newFixture(t, nil)

	session := sessions.Session{Token: "not-a-jwt"}
	recorder := f.do(t, http.MethodGet, "/dashboard", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, "/", recorder.Result().Header.Get("Location"))
	require.True(t, sessionCleared(t, recorder))
}

func TestDashboardMissingEmailRedirects(t *testing.T) {
	f := newFixture(t, nil)

	noEmail := signedToken(t, jwtlib.MapClaims{
		"exp":                time.Now().Add(time.Hour).Unix(),
		"preferred_username": "jane",
	})
	session := sessions.Session{Token: noEmail}
	recorder := f.do(t, http.MethodGet, "/dashboard", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, "/", recorder.Result().Header.Get("Location"))
}

func TestDashboardRefreshesExpiringToken(t *testing.T) {
	refreshed := validToken(t, "Administrador")
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/application/o/token/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + refreshed + `","refresh_token":"rotated-refresh","token_type":"bearer"}`))
	})

	expiring := signedToken(t, jwtlib.MapClaims{
		"exp":   time.Now().Add(100 * time.Second).Unix(), // inside the 300s leeway
		"email": "jane@example.com",
	})
	session := sessions.Session{Token: expiring, RefreshToken: "refresh-1"}
	recorder := f.do(t, http.MethodGet, "/dashboard", &session)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Administrator Dashboard")

	stored, ok := f.sessionFromResponse(t, recorder)
	require.True(t, ok)
	require.Equal(t, refreshed, stored.Token)
	require.Equal(t, "rotated-refresh", stored.RefreshToken)
}

func TestDashboardExpiredTokenFailedRefreshClearsSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	expired := signedToken(t, jwtlib.MapClaims{
		"exp":   time.Now().Add(-time.Minute).Unix(),
		"email": "jane@example.com",
	})
	session := sessions.Session{Token: expired, RefreshToken: "refresh-1"}
	recorder := f.do(t, http.MethodGet, "/dashboard", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.True(t, sessionCleared(t, recorder))
}

func TestInternalAPI(t *testing.T) {
	f := newFixture(t, nil)

	token := validToken(t)
	session := sessions.Session{Token: token}
	recorder := f.do(t, http.MethodGet, "/internal-api", &session)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "application/json", recorder.Result().Header.Get("Content-Type"))
	require.Contains(t, recorder.Body.String(), token)
}

func TestInternalAPIMalformedToken(t *testing.T) {
	f := newFixture(t, nil)

	session := sessions.Session{Token: "not-a-jwt"}
	recorder := f.do(t, http.MethodGet, "/internal-api", &session)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.True(t, sessionCleared(t, recorder))
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t, nil)

	session := sessions.Session{OAuthState: "s", Token: validToken(t), RefreshToken: "r"}
	recorder := f.do(t, http.MethodGet, "/logout", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, "/", recorder.Result().Header.Get("Location"))
	require.True(t, sessionCleared(t, recorder))
}

func TestLogoutProviderRedirectsToEndSession(t *testing.T) {
	f := newFixture(t, nil)

	session := sessions.Session{Token: validToken(t)}
	recorder := f.do(t, http.MethodGet, "/logout-authentik", &session)

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, testLogoutURL, recorder.Result().Header.Get("Location"))
	require.True(t, sessionCleared(t, recorder))
}
