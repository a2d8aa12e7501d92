package server

import "net/http"

func (s *Server) initRoutes() {
	// Login & OAuth flow
	s.RegisterRouteFunc("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteOAuthAuthorize, ChainMiddleware(s.OAuthAuthorizeHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteLogoutProvider, ChainMiddleware(s.LogoutProviderHandler(), s.HTMLMiddleWare()...))

	// Session-gated views
	s.RegisterRouteFunc("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteInternalAPI, ChainMiddleware(s.InternalAPIHandler(), s.APIMiddleware()...))

	// Admin views (require a session token before any upstream call is made)
	s.RegisterRouteFunc("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersHandler(), s.HTMLMiddleWare(s.RequireSessionToken())...))
	s.RegisterRouteFunc("GET "+RouteAdminGroups, ChainMiddleware(s.AdminGroupsHandler(), s.HTMLMiddleWare(s.RequireSessionToken())...))
	s.RegisterRouteFunc("GET "+RouteAdminRoles, ChainMiddleware(s.AdminRolesHandler(), s.HTMLMiddleWare(s.RequireSessionToken())...))
	s.RegisterRouteFunc("GET "+RouteAdminScopes, ChainMiddleware(s.AdminScopesHandler(), s.HTMLMiddleWare(s.RequireSessionToken())...))
	s.RegisterRouteFunc("POST "+RouteAdminScopes, ChainMiddleware(s.CreateScopeHandler(), s.HTMLMiddleWare(s.RequireSessionToken())...))

	// Static assets (CSS, images)
	s.RegisterRouteHandler("GET "+RouteStatic, http.StripPrefix(RouteStatic, s.fileServer))
}
