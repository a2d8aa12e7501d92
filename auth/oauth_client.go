package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-authentik-portal/internal/config"
	errs "github.com/jrsteele09/go-authentik-portal/internal/errors"
	"github.com/jrsteele09/go-authentik-portal/sessions"
	"golang.org/x/oauth2"
)

// Client drives the authorization-code flow against the identity provider.
// It is constructed once at startup and injected into the server; there is no
// package-level registration.
type Client struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

func NewClient(cfg config.AuthentikConfig) *Client {
	base := strings.TrimRight(cfg.GetAuthentikURL(), "/")
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			RedirectURL:  cfg.GetRedirectURI(),
			Scopes:       cfg.GetOAuthScopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/application/o/authorize/",
				TokenURL: base + "/application/o/token/",
			},
		},
		httpClient: &http.Client{Timeout: cfg.GetUpstreamTimeout()},
	}
}

// BeginAuthorization stores a fresh CSRF state in the session and returns the
// provider authorize URL carrying it.
func (c *Client) BeginAuthorization(session *sessions.Session) string {
	state := generateState()
	session.OAuthState = state
	return c.oauthConfig.AuthCodeURL(state)
}

// CompleteAuthorization validates the callback state against the session and
// exchanges the authorization code for tokens. On a state mismatch the
// session is left untouched and the caller must fail hard, not redirect.
func (c *Client) CompleteAuthorization(ctx context.Context, code, state string, session *sessions.Session) error {
	if session.OAuthState == "" || state == "" {
		return errs.ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(session.OAuthState), []byte(state)) != 1 {
		return errs.ErrStateMismatch
	}
	session.OAuthState = ""

	tok, err := c.oauthConfig.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return upstreamError("token exchange", err)
	}
	if tok.AccessToken == "" {
		return errs.Upstream("token exchange", http.StatusBadGateway, errs.ErrNoAccessToken)
	}

	session.Token = tok.AccessToken
	session.RefreshToken = tok.RefreshToken
	return nil
}

// Refresh trades the session's refresh token for a new access token, keeping
// a rotated refresh token if the provider issues one.
func (c *Client) Refresh(ctx context.Context, session *sessions.Session) error {
	if session.RefreshToken == "" {
		return errs.ErrNoRefreshToken
	}

	source := c.oauthConfig.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{
		RefreshToken: session.RefreshToken,
	})
	tok, err := source.Token()
	if err != nil {
		return upstreamError("token refresh", err)
	}
	if tok.AccessToken == "" {
		return errs.Upstream("token refresh", http.StatusBadGateway, errs.ErrNoAccessToken)
	}

	session.Token = tok.AccessToken
	if tok.RefreshToken != "" {
		session.RefreshToken = tok.RefreshToken
	}
	return nil
}

// withHTTPClient bounds outbound provider calls with the configured timeout.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func upstreamError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return errs.Upstream(op, retrieveErr.Response.StatusCode, err)
	}
	return errs.Upstream(op, http.StatusBadGateway, err)
}

// generateState creates a random base64url CSRF nonce.
func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
