package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	errs "github.com/jrsteele09/go-authentik-portal/internal/errors"
	"github.com/jrsteele09/go-authentik-portal/sessions"
	"github.com/jrsteele09/go-authentik-portal/token"
)

// DashboardPageData is the template model for the role dashboards.
type DashboardPageData struct {
	AppName string
	User    token.Claims
}

// DashboardHandler is the session-gated entry point after login. Terminal
// outcomes per request: redirect to login (no/expired/undecodable token or
// missing email claim) or one of three role views, admin winning over
// developer winning over guest.
func (s *Server) DashboardHandler() http.HandlerFunc {
	adminTmpl := MustParseTemplate("dashboard_admin.html")
	developerTmpl := MustParseTemplate("dashboard_developer.html")
	guestTmpl := MustParseTemplate("dashboard_guest.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Load(r)
		if session.Token == "" {
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}

		claims, ok := s.resolveClaims(w, r, &session)
		if !ok {
			return
		}

		logger := s.requestLogger(r, s.loggedInUser(r, session))

		if claims.Email == "" {
			logger.Warn().Msg("Session token carries no email claim")
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}

		tmpl := guestTmpl
		role := "guest"
		switch {
		case claims.InAnyGroup(s.config.GetAdminGroups()):
			tmpl = adminTmpl
			role = "admin"
		case claims.InAnyGroup(s.config.GetDeveloperGroups()):
			tmpl = developerTmpl
			role = "developer"
		}

		logger.Info().Str("role", role).Msg("Dashboard rendered")
		s.renderDashboard(w, r, tmpl, claims)
	}
}

// resolveClaims decodes the session token, refreshing it pre-emptively when
// it expires within the configured leeway and a refresh token exists. Any
// failure clears the session and redirects to login; the bool result reports
// whether the request should continue.
func (s *Server) resolveClaims(w http.ResponseWriter, r *http.Request, session *sessions.Session) (token.Claims, bool) {
	claims, err := s.inspector.Decode(r.Context(), session.Token)
	if err != nil {
		s.requestLogger(r, "UnknownUser").Warn().Err(err).Msg("Undecodable session token")
		s.clearSession(w)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
		return token.Claims{}, false
	}

	now := time.Now()
	if !claims.ExpiresWithin(now, s.config.GetRefreshLeeway()) {
		return claims, true
	}

	if session.RefreshToken == "" {
		if claims.Expired(now) {
			s.requestLogger(r, claims.PreferredUsername).Info().Err(errs.ErrTokenExpired).Msg("Session token expired")
			s.clearSession(w)
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return token.Claims{}, false
		}
		// Inside the leeway but not yet expired and nothing to refresh with:
		// let the session run out.
		return claims, true
	}

	if err := s.oauth.Refresh(r.Context(), session); err != nil {
		s.requestLogger(r, claims.PreferredUsername).Warn().Err(err).Msg("Token refresh failed")
		s.clearSession(w)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
		return token.Claims{}, false
	}

	claims, err = s.inspector.Decode(r.Context(), session.Token)
	if err != nil {
		s.requestLogger(r, "UnknownUser").Warn().Err(err).Msg("Undecodable refreshed token")
		s.clearSession(w)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
		return token.Claims{}, false
	}

	if err := s.sessions.Save(w, r, *session); err != nil {
		s.requestLogger(r, claims.PreferredUsername).Err(err).Msg("Failed to persist refreshed session")
		s.clearSession(w)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
		return token.Claims{}, false
	}

	s.requestLogger(r, claims.PreferredUsername).Info().Msg("Session token refreshed")
	return claims, true
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, tmpl *template.Template, claims token.Claims) {
	data := DashboardPageData{AppName: s.config.GetAppName(), User: claims}
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := tmpl.Execute(w, data); err != nil {
		s.requestLogger(r, claims.PreferredUsername).Err(err).Msg("Failed to render dashboard template")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
	}
}

// InternalAPIHandler exposes the session token to same-origin scripts. A
// missing or undecodable token is a 401, never a redirect.
func (s *Server) InternalAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Load(r)
		if session.Token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errs.ErrNoSessionToken.Error()})
			return
		}

		if _, err := s.inspector.Decode(r.Context(), session.Token); err != nil {
			s.requestLogger(r, "UnknownUser").Warn().Err(err).Msg("Internal API with invalid token")
			s.clearSession(w)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Internal API access granted",
			"token":   session.Token,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
