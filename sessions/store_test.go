package sessions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-authentik-portal/sessions"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret"

func saveToRequest(t *testing.T, store *sessions.Store, session sessions.Session) *http.Request {
	t.Helper()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, store.Save(recorder, req, session))

	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		next.AddCookie(cookie)
	}
	return next
}

func TestStoreRoundTrip(t *testing.T) {
	store := sessions.NewStore(testSecret, time.Hour)

	session := sessions.Session{
		OAuthState:   "state-123",
		Token:        "access-token",
		RefreshToken: "refresh-token",
	}

	req := saveToRequest(t, store, session)
	loaded := store.Load(req)

	require.Equal(t, session, loaded)
}

func TestLoadMissingCookie(t *testing.T) {
	store := sessions.NewStore(testSecret, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	require.True(t, store.Load(req).Empty())
}

func TestLoadTamperedCookie(t *testing.T) {
	store := sessions.NewStore(testSecret, time.Hour)
	req := saveToRequest(t, store, sessions.Session{Token: "access-token"})

	cookie, err := req.Cookie(sessions.CookieName)
	require.NoError(t, err)

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: cookie.Value + "x"})

	require.True(t, store.Load(tampered).Empty())
}

func TestLoadWrongSecret(t *testing.T) {
	store := sessions.NewStore(testSecret, time.Hour)
	req := saveToRequest(t, store, sessions.Session{Token: "access-token"})

	other := sessions.NewStore("another-secret", time.Hour)
	require.True(t, other.Load(req).Empty())
}

func TestLoadExpiredCookie(t *testing.T) {
	store := sessions.NewStore(testSecret, -time.Minute)
	req := saveToRequest(t, store, sessions.Session{Token: "access-token"})

	require.True(t, store.Load(req).Empty())
}

func TestSaveEmptySessionClearsCookie(t *testing.T) {
	store := sessions.NewStore(testSecret, time.Hour)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, store.Save(recorder, req, sessions.Session{}))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessions.CookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}

func TestClear(t *testing.T) {
	session := sessions.Session{OAuthState: "s", Token: "t", RefreshToken: "r"}
	session.Clear()

	require.True(t, session.Empty())
	require.Empty(t, session.OAuthState)
	require.Empty(t, session.Token)
	require.Empty(t, session.RefreshToken)
}
