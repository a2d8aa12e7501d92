package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-authentik-portal/authentik"
)

// AdminUsersPageData is the template model for the paginated user listing.
type AdminUsersPageData struct {
	AppName string
	Page    authentik.UserPage
}

type AdminGroupsPageData struct {
	AppName string
	Groups  []authentik.Group
}

type AdminRolesPageData struct {
	AppName string
	Roles   []authentik.Role
}

type AdminScopesPageData struct {
	AppName string
	Scopes  []authentik.ScopeMapping
}

// AdminUsersHandler lists provider users, ten per page (GET /admin/users?page=N).
func (s *Server) AdminUsersHandler() http.HandlerFunc {
	usersTmpl := MustParseTemplate("users.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFrom(r)
		logger := s.requestLogger(r, s.loggedInUser(r, session))

		users, err := s.adminAPI.ListUsers(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to fetch users")
			http.Error(w, "Error fetching users", upstreamStatusOr(err, http.StatusBadGateway))
			return
		}

		page := pageParam(r)
		data := AdminUsersPageData{
			AppName: s.config.GetAppName(),
			Page:    authentik.PaginateUsers(users, page),
		}

		logger.Info().Int("page", data.Page.CurrentPage).Int("total_pages", data.Page.TotalPages).Msg("User listing fetched")

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := usersTmpl.Execute(w, data); err != nil {
			logger.Err(err).Msg("Failed to render users template")
			http.Error(w, "Failed to render users page", http.StatusInternalServerError)
		}
	}
}

// AdminGroupsHandler lists provider groups (GET /admin/groups).
func (s *Server) AdminGroupsHandler() http.HandlerFunc {
	groupsTmpl := MustParseTemplate("groups.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFrom(r)
		logger := s.requestLogger(r, s.loggedInUser(r, session))

		groups, err := s.adminAPI.ListGroups(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to fetch groups")
			http.Error(w, "Error fetching groups", upstreamStatusOr(err, http.StatusBadGateway))
			return
		}

		logger.Info().Int("groups", len(groups)).Msg("Group listing fetched")

		data := AdminGroupsPageData{AppName: s.config.GetAppName(), Groups: groups}
		w.Header().Set("Content-Type", contentTypeHTML)
		if err := groupsTmpl.Execute(w, data); err != nil {
			logger.Err(err).Msg("Failed to render groups template")
			http.Error(w, "Failed to render groups page", http.StatusInternalServerError)
		}
	}
}

// AdminRolesHandler lists provider RBAC roles (GET /admin/roles).
func (s *Server) AdminRolesHandler() http.HandlerFunc {
	rolesTmpl := MustParseTemplate("roles.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFrom(r)
		logger := s.requestLogger(r, s.loggedInUser(r, session))

		roles, err := s.adminAPI.ListRoles(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to fetch roles")
			http.Error(w, "Error fetching roles", upstreamStatusOr(err, http.StatusBadGateway))
			return
		}

		logger.Info().Int("roles", len(roles)).Msg("Role listing fetched")

		data := AdminRolesPageData{AppName: s.config.GetAppName(), Roles: roles}
		w.Header().Set("Content-Type", contentTypeHTML)
		if err := rolesTmpl.Execute(w, data); err != nil {
			logger.Err(err).Msg("Failed to render roles template")
			http.Error(w, "Failed to render roles page", http.StatusInternalServerError)
		}
	}
}

// AdminScopesHandler lists scope mappings and renders the create form
// (GET /admin/scopes).
func (s *Server) AdminScopesHandler() http.HandlerFunc {
	scopesTmpl := MustParseTemplate("scopes.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFrom(r)
		logger := s.requestLogger(r, s.loggedInUser(r, session))

		scopes, err := s.adminAPI.ListScopeMappings(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to fetch scope mappings")
			http.Error(w, "Error fetching scope mappings", upstreamStatusOr(err, http.StatusBadGateway))
			return
		}

		logger.Info().Int("scopes", len(scopes)).Msg("Scope mapping listing fetched")

		data := AdminScopesPageData{AppName: s.config.GetAppName(), Scopes: scopes}
		w.Header().Set("Content-Type", contentTypeHTML)
		if err := scopesTmpl.Execute(w, data); err != nil {
			logger.Err(err).Msg("Failed to render scopes template")
			http.Error(w, "Failed to render scopes page", http.StatusInternalServerError)
		}
	}
}

// CreateScopeHandler creates a scope mapping from the posted form and, on a
// 201 from the provider, redirects 303 back to the listing.
func (s *Server) CreateScopeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFrom(r)
		logger := s.requestLogger(r, s.loggedInUser(r, session))

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		mapping := authentik.ScopeMappingRequest{
			Name:        r.FormValue("mapping_name"),
			ScopeName:   r.FormValue("scope_name"),
			Description: r.FormValue("description"),
			Expression:  r.FormValue("expression"),
		}
		if mapping.Name == "" || mapping.ScopeName == "" || mapping.Description == "" || mapping.Expression == "" {
			http.Error(w, "Missing required form fields", http.StatusBadRequest)
			return
		}

		if err := s.adminAPI.CreateScopeMapping(r.Context(), mapping); err != nil {
			logger.Error().Err(err).Str("scope", mapping.ScopeName).Msg("Failed to create scope mapping")
			http.Error(w, "Error creating scope mapping", upstreamStatusOr(err, http.StatusBadGateway))
			return
		}

		logger.Info().Str("scope", mapping.ScopeName).Msg("Scope mapping created")
		http.Redirect(w, r, RouteAdminScopes, http.StatusSeeOther)
	}
}

// pageParam parses the 1-based page query parameter, defaulting to 1.
func pageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
