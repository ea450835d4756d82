// Package api serves the generated brief, report and event set over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 30 * time.Second

// Server is the read-only brief server.
type Server struct {
	router chi.Router
	http   *http.Server
}

// NewServer wires the routes and returns a server bound to addr.
func NewServer(handlers *Handlers, addr string) *Server {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Get("/", handlers.GetReport)
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handlers.HealthCheck)
		api.Get("/brief", handlers.GetBrief)
		api.Get("/signals", handlers.GetSignals)
		api.Get("/categories", handlers.GetCategories)
		api.Get("/briefs", handlers.GetBriefs)
		api.Get("/briefs/{id}", handlers.GetBriefByID)
	})

	return &Server{
		router: r,
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: requestTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving requests. A clean Shutdown returns nil.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("Brief server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
