// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here and mount its routes in [NewServer].
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Collections handles collection management, document reads/writes
	// and structured search.
	Collections *CollectionsHandler

	// Events handles the append-event endpoint.
	Events *EventsHandler

	// Recoverables lists logically-deleted documents.
	Recoverables *RecoverablesHandler

	// Maintenance runs admin-only cross-document operations.
	Maintenance *MaintenanceHandler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	rte := chi.NewRouter()

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration, mounted
	// ahead of the auth chain.
	rte.Get("/health", h.Liveness)
	rte.Get("/ready", h.Readiness)

	// # Middleware Chain
	// Applied to everything under /api. Order matters: span id and
	// structured logging wrap everything so even an auth rejection is
	// traced and logged; rate limiting and panic recovery guard the
	// handler chain; authentication comes after them, followed only by
	// path cleaning, so the caller is resolved right before routing.
	rte.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Use(middleware.SpanID())
		apiRouter.Use(middleware.StructuredLogger(log))
		apiRouter.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		apiRouter.Use(middleware.RateLimit(ctx))
		apiRouter.Use(middleware.PanicRecovery(log))
		apiRouter.Use(middleware.Authenticate(verifier))
		apiRouter.Use(middleware.RequireAuth)
		apiRouter.Use(chimw.CleanPath)

		apiRouter.Mount("/collections", h.Collections.Routes())
		apiRouter.Post("/events", h.Events.appendEvent)
		apiRouter.Get("/recoverables/{collection}", h.Recoverables.list)
		apiRouter.Post("/maintenance/{collection}/rebuild-grants", h.Maintenance.rebuildGrants)
	})

	return &Server{
		router: rte,
		log:    log,
		httpServer: &http.Server{
			Handler:           rte,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server on addr.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer.Addr = addr
	s.log.Info("server starting", slog.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
