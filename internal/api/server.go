// Package api provides the HTTP API server and handlers for the cmskit page tree.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/ratelimit"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	router      *chi.Mux
	api         huma.API
	siteLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, cfg *config.Config, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		services: services,
		router:   router,
		logger:   logger,
	}
	if cfg.Site.RateLimit > 0 {
		s.siteLimiter = ratelimit.New(cfg.Site.RateLimit, cfg.Site.Burst, ratelimit.DefaultIdleTTL)
	}

	s.setupMiddleware(cfg.Server.CORSOrigins)

	humaConfig := huma.DefaultConfig(cfg.Server.Name+" API", Version)
	humaConfig.Info.Description = "Page tree, item pages, menus and search"
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.siteLimiter != nil {
		s.siteLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerPageRoutes()
	s.registerPageTypeRoutes()
	s.registerItemRoutes()
	s.registerMenuRoutes()
	s.registerSearchRoutes()

	// Public page resolution renders plans, not JSON API resources.
	s.router.Route("/site", func(r chi.Router) {
		if s.siteLimiter != nil {
			r.Use(RateLimitMiddleware(s.siteLimiter, s.logger))
		}
		r.Get("/", s.handleSite)
		r.Get("/*", s.handleSite)
	})
}
