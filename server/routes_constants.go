package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteIndex          = "/"
	RouteOAuthAuthorize = "/oauth/authorize"
	RouteOAuthCallback  = "/oauth/callback"
	RouteLogout         = "/logout"
	RouteLogoutProvider = "/logout-authentik"

	// Session Routes
	RouteDashboard   = "/dashboard"
	RouteInternalAPI = "/internal-api"

	// Admin Routes
	RouteAdminUsers  = "/admin/users"
	RouteAdminGroups = "/admin/groups"
	RouteAdminRoles  = "/admin/roles"
	RouteAdminScopes = "/admin/scopes"

	// Static assets
	RouteStatic = "/static/"
)
