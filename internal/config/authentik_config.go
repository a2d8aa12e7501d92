package config

import "time"

// AuthentikConfig exposes everything needed to talk to the identity provider:
// the OAuth2 client registration for the browser flow, and the internal service
// token used by the management API client.
type AuthentikConfig interface {
	GetAuthentikURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetJWKSURL() string
	GetLogoutURL() string
	GetOAuthScopes() []string
	GetInternalToken() string
	GetUpstreamTimeout() time.Duration
	GetVerifyTokens() bool
}

type Authentik struct{}

var _ AuthentikConfig = Authentik{}

func (Authentik) GetAuthentikURL() string {
	return GetEnv("AUTHENTIK_URL", "http://localhost:9000")
}

func (Authentik) GetClientID() string {
	return GetEnv("AUTHENTIK_CLIENT_ID", "")
}

func (Authentik) GetClientSecret() string {
	return GetEnv("AUTHENTIK_CLIENT_SECRET", "")
}

func (Authentik) GetRedirectURI() string {
	return GetEnv("AUTHENTIK_REDIRECT_URI", "http://localhost:8080/oauth/callback")
}

func (Authentik) GetJWKSURL() string {
	return GetEnv("AUTHENTIK_JWKS_URL", "")
}

func (Authentik) GetLogoutURL() string {
	return GetEnv("AUTHENTIK_LOGOUT_URL", "")
}

func (Authentik) GetOAuthScopes() []string {
	return []string{"openid", "profile", "email", "offline_access"}
}

func (Authentik) GetInternalToken() string {
	return GetEnv("INTERNAL_TOKEN", "")
}

func (Authentik) GetUpstreamTimeout() time.Duration {
	return 15 * time.Second
}

// GetVerifyTokens enables JWKS signature verification of session tokens.
// Off by default: the portal treats the token as a session carrier delivered
// over TLS, not as a credential verified downstream.
func (Authentik) GetVerifyTokens() bool {
	return GetEnv("OIDC_VERIFY", "") == "true"
}
