package server

import "net/http"

const contentTypeHTML = "text/html; charset=utf-8"

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
}

// IndexHandler displays the login page (GET /)
func (s *Server) IndexHandler() http.HandlerFunc {
	loginTmpl := MustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := LoginPageData{AppName: s.config.GetAppName()}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			s.requestLogger(r, "UnknownUser").Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}
