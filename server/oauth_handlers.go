package server

import (
	"errors"
	"net/http"

	errs "github.com/jrsteele09/go-authentik-portal/internal/errors"
)

// OAuthAuthorizeHandler starts the authorization-code flow: it stores a fresh
// CSRF state in the session and redirects the browser to the provider.
func (s *Server) OAuthAuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Load(r)
		redirectURL := s.oauth.BeginAuthorization(&session)

		if err := s.sessions.Save(w, r, session); err != nil {
			s.requestLogger(r, "UnknownUser").Err(err).Msg("Failed to persist oauth state")
			http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes the flow. A state mismatch is a hard 400 and
// leaves the session exactly as it was; only a successful exchange writes
// tokens back to the browser.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Load(r)
		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")

		err := s.oauth.CompleteAuthorization(r.Context(), code, state, &session)
		if errors.Is(err, errs.ErrStateMismatch) {
			s.requestLogger(r, "UnknownUser").Warn().Msg("OAuth callback with mismatching state")
			http.Error(w, "Mismatching state parameter.", http.StatusBadRequest)
			return
		}
		if err != nil {
			s.requestLogger(r, "UnknownUser").Err(err).Msg("OAuth token exchange failed")
			http.Error(w, "Token exchange failed", upstreamStatusOr(err, http.StatusBadGateway))
			return
		}

		if err := s.sessions.Save(w, r, session); err != nil {
			s.requestLogger(r, "UnknownUser").Err(err).Msg("Failed to persist session tokens")
			http.Error(w, "Failed to store session", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}

// LogoutHandler clears the session unconditionally and returns to the login
// page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Load(r)
		s.requestLogger(r, s.loggedInUser(r, session)).Info().Msg("User logged out")

		s.clearSession(w)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// LogoutProviderHandler clears the session and hands the browser to the
// provider's end-session endpoint.
func (s *Server) LogoutProviderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Load(r)
		s.requestLogger(r, s.loggedInUser(r, session)).Info().Msg("User logged out via provider")

		s.clearSession(w)

		logoutURL := s.config.GetLogoutURL()
		if logoutURL == "" {
			logoutURL = RouteIndex
		}
		http.Redirect(w, r, logoutURL, http.StatusSeeOther)
	}
}

// upstreamStatusOr maps an error to its upstream HTTP status, or the fallback
// when the error carries none.
func upstreamStatusOr(err error, fallback int) int {
	if status := errs.UpstreamStatus(err); status != 0 {
		return status
	}
	return fallback
}
