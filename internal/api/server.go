// Copyright (c) 2026 ClarifyX. All rights reserved.

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

	"github.com/clarifyx/clarifyx/internal/auth"
	"github.com/clarifyx/clarifyx/internal/core/asset"
	"github.com/clarifyx/clarifyx/internal/core/category"
	"github.com/clarifyx/clarifyx/internal/core/contact"
	"github.com/clarifyx/clarifyx/internal/core/dashboard"
	"github.com/clarifyx/clarifyx/internal/core/earning"
	"github.com/clarifyx/clarifyx/internal/core/payment"
	"github.com/clarifyx/clarifyx/internal/core/plan"
	"github.com/clarifyx/clarifyx/internal/core/review"
	"github.com/clarifyx/clarifyx/internal/core/subscription"
	"github.com/clarifyx/clarifyx/internal/platform/config"
	"github.com/clarifyx/clarifyx/internal/platform/constants"
	"github.com/clarifyx/clarifyx/internal/platform/middleware"
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
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles registration, login, sessions, and account management.
	Auth *auth.Handler

	// Category manages the asset taxonomy.
	Category *category.Handler

	// Asset handles the marketplace catalogue, search, and downloads.
	Asset *asset.Handler

	// Plan manages subscription plans.
	Plan *plan.Handler

	// Earning exposes author and company revenue reporting.
	Earning *earning.Handler

	// Payment handles one-off asset purchases.
	Payment *payment.Handler

	// Subscription handles membership checkout and lifecycle.
	Subscription *subscription.Handler

	// Review handles asset reviews and author replies.
	Review *review.Handler

	// Contact handles support tickets.
	Contact *contact.Handler

	// Dashboard serves the author and admin analytics views.
	Dashboard *dashboard.Handler

	// Webhook ingests payment provider event deliveries.
	Webhook *WebhookHandler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// Provider webhooks authenticate by payload signature, not session,
	// so they live outside the versioned API.
	r.Post("/webhooks/stripe", h.Webhook.HandleStripe)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/users", h.Auth.UserRoutes())
		api.Mount("/categories", h.Category.Routes())
		api.Mount("/assets", h.Asset.Routes())
		api.Mount("/plans", h.Plan.Routes())
		api.Mount("/earnings", h.Earning.Routes())
		api.Mount("/payments", h.Payment.Routes())
		api.Mount("/subscriptions", h.Subscription.Routes())
		api.Mount("/reviews", h.Review.Routes())
		api.Mount("/contact", h.Contact.Routes())
		api.Mount("/dashboard", h.Dashboard.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
