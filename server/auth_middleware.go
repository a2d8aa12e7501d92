package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-authentik-portal/internal/utils"
	"github.com/jrsteele09/go-authentik-portal/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequireSessionToken gates a route on the presence of a session token. The
// token's validity and expiry are the dashboard's concern; protected admin
// routes only guarantee that no upstream call happens without a session.
func (s *Server) RequireSessionToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session := s.sessions.Load(r)
			if session.Token == "" {
				s.requestLogger(r, "UnknownUser").Warn().Str("path", r.URL.Path).Msg("Access without session token")
				http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// sessionFrom returns the session injected by RequireSessionToken, falling
// back to decoding the cookie for routes outside the middleware.
func (s *Server) sessionFrom(r *http.Request) sessions.Session {
	if session, ok := r.Context().Value(ContextKeySession).(sessions.Session); ok {
		return session
	}
	return s.sessions.Load(r)
}

// loggedInUser resolves the display identity of the session for log lines.
// Falls back to "UnknownUser" when the token is missing or undecodable.
func (s *Server) loggedInUser(r *http.Request, session sessions.Session) string {
	if session.Token == "" {
		return "UnknownUser"
	}
	claims, err := s.inspector.Decode(r.Context(), session.Token)
	if err != nil {
		return "UnknownUser"
	}
	return utils.FirstNonEmpty(claims.PreferredUsername, claims.Nickname, "UnknownUser")
}

// requestLogger builds a logger carrying the device, user, and ip fields of
// the request.
func (s *Server) requestLogger(r *http.Request, user string) *zerolog.Logger {
	device, _ := r.Context().Value(ContextKeyDevice).(string)
	if device == "" {
		device = deviceFrom(r)
	}
	ip, _ := r.Context().Value(ContextKeyIP).(string)
	if ip == "" {
		ip = ipFrom(r)
	}
	logger := log.With().Str("device", device).Str("user", user).Str("ip", ip)
	if requestID, ok := r.Context().Value(ContextKeyRequestID).(string); ok {
		logger = logger.Str("request_id", requestID)
	}
	l := logger.Logger()
	return &l
}

// clearSession wipes the browser session entirely. Partial clears are never
// done; a failed auth state must not leave a half-authenticated session.
func (s *Server) clearSession(w http.ResponseWriter) {
	s.sessions.Clear(w)
}
