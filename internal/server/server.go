package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/classdesk/classdesk/internal/config"
	"github.com/classdesk/classdesk/internal/invite"
	"github.com/classdesk/classdesk/internal/members"
	"github.com/classdesk/classdesk/internal/provision"
	"github.com/classdesk/classdesk/internal/server/middleware"
	"github.com/classdesk/classdesk/internal/session"
	"github.com/classdesk/classdesk/internal/store/postgres"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	cfg        *config.Config
}

// New creates a Server with all routes wired.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, provisioner *provision.Handler, invites *invite.Service, membersSvc *members.Service, resolver *session.Resolver) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		store:  store,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Public group: school signup and pre-signup invitation lookup. No
	//    token exists yet, so abuse control is per-IP.
	// 2. Identity group: a valid token but not necessarily a profile. Hosts
	//    the provisioning fallback and the whoami endpoint.
	// 3. Member group: resolved, active membership required.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, 2, 5))

			publicConfig := huma.DefaultConfig("Classdesk Signup API", "1.0.0")
			publicConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			publicAPI := humachi.New(r, publicConfig)
			registerPublicRoutes(publicAPI, store, invites)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret, resolver))
			r.Use(middleware.RateLimit(ctx, 100, 200))

			identityConfig := huma.DefaultConfig("Classdesk Identity API", "1.0.0")
			identityConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			identityAPI := humachi.New(r, identityConfig)
			registerIdentityRoutes(identityAPI, provisioner)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret, resolver))
			r.Use(middleware.RequireSession())
			r.Use(middleware.RateLimit(ctx, 100, 200))

			apiConfig := huma.DefaultConfig("Classdesk API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerMemberRoutes(api, store, invites, membersSvc)
		})
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
