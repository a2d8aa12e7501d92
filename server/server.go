package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-authentik-portal/auth"
	"github.com/jrsteele09/go-authentik-portal/authentik"
	"github.com/jrsteele09/go-authentik-portal/internal/config"
	"github.com/jrsteele09/go-authentik-portal/sessions"
	"github.com/jrsteele09/go-authentik-portal/token"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "production")
	mux        *http.ServeMux
	routes     []string
	fileServer http.Handler
	config     config.Config

	sessions  *sessions.Store
	oauth     *auth.Client
	inspector *token.Inspector
	adminAPI  *authentik.Client
}

func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.GetSessionSecret() == "" {
		return nil, fmt.Errorf("[Server New] SESSION_SECRET_KEY is required")
	}

	inspector := token.NewInspector()
	if cfg.GetVerifyTokens() {
		if cfg.GetJWKSURL() == "" {
			return nil, fmt.Errorf("[Server New] OIDC_VERIFY requires AUTHENTIK_JWKS_URL")
		}
		inspector = token.NewVerifyingInspector(ctx, cfg.GetJWKSURL())
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		sessions:  sessions.NewStore(cfg.GetSessionSecret(), cfg.GetSessionMaxAge()),
		oauth:     auth.NewClient(cfg),
		inspector: inspector,
		adminAPI:  authentik.NewClient(cfg),
	}
	s.env = cfg.GetEnv()
	s.fileServer = FileServerHandler()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
