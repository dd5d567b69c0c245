// Package web provides the SCIM HTTP server for the user directory.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/scimfile/internal/config"
	"github.com/JonMunkholm/scimfile/internal/directory"
	mw "github.com/JonMunkholm/scimfile/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const scimBasePath = "/scim/v2"

// Server is the HTTP server exposing the directory over SCIM.
type Server struct {
	service *directory.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *mw.RateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *directory.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(s.limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route(scimBasePath, func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Get("/ServiceProviderConfig", s.handleServiceProviderConfig)

		r.Route("/Users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleNotImplemented)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleNotImplemented)
			r.Patch("/{id}", s.handleNotImplemented)
			r.Delete("/{id}", s.handleNotImplemented)
		})

		r.Route("/Groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Post("/", s.handleNotImplemented)
			r.Get("/{id}", s.handleNotImplemented)
			r.Put("/{id}", s.handleNotImplemented)
			r.Patch("/{id}", s.handleNotImplemented)
			r.Delete("/{id}", s.handleNotImplemented)
		})
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))
		r.Post("/refresh", s.handleRefresh)
		r.Get("/status", s.handleStatus)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
