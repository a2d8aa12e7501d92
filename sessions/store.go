package sessions

import (
	"fmt"
	"net/http"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// CookieName is the browser cookie carrying the signed session.
const CookieName = "session"

// Store signs sessions into a time-limited HS256 cookie. A cookie that fails
// signature or expiry validation decodes to an empty session, which the
// handlers treat the same as no session at all.
type Store struct {
	secret []byte
	maxAge time.Duration
}

func NewStore(secret string, maxAge time.Duration) *Store {
	return &Store{secret: []byte(secret), maxAge: maxAge}
}

type cookieClaims struct {
	Session
	jwtlib.RegisteredClaims
}

// Load returns the session from the request cookie, or an empty session when
// the cookie is missing, tampered with, or expired.
func (st *Store) Load(r *http.Request) Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}
	}
	session, err := st.decode(cookie.Value)
	if err != nil {
		return Session{}
	}
	return session
}

// Save writes the session back to the browser. An empty session removes the
// cookie instead of signing an empty payload.
func (st *Store) Save(w http.ResponseWriter, r *http.Request, session Session) error {
	if session.Empty() {
		st.Clear(w)
		return nil
	}
	value, err := st.encode(session)
	if err != nil {
		return fmt.Errorf("[sessions Save] encoding session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(st.maxAge.Seconds()),
	})
	return nil
}

// Clear expires the session cookie on the browser.
func (st *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (st *Store) encode(session Session) (string, error) {
	now := time.Now()
	claims := cookieClaims{
		Session: session,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(st.maxAge)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(st.secret)
}

func (st *Store) decode(raw string) (Session, error) {
	claims := &cookieClaims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return st.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, fmt.Errorf("invalid session cookie")
	}
	return claims.Session, nil
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
