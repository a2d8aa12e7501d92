package sessions

// Session is the per-browser state carried inside the signed cookie. The
// server holds no copy; the cookie is the single source of truth.
type Session struct {
	OAuthState   string `json:"oauth_state,omitempty"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Empty reports whether the session carries no state at all.
func (s Session) Empty() bool {
	return s.OAuthState == "" && s.Token == "" && s.RefreshToken == ""
}

// Clear drops every field. Error paths that touch the session clear it
// entirely rather than partially, so a half-authenticated state can never
// survive a failure.
func (s *Session) Clear() {
	s.OAuthState = ""
	s.Token = ""
	s.RefreshToken = ""
}
