// Copyright (c) 2026 ClarifyX. All rights reserved.

// Command api is the entry point for the ClarifyX HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clarifyx/clarifyx/internal/api"
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
	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/config"
	"github.com/clarifyx/clarifyx/internal/platform/constants"
	"github.com/clarifyx/clarifyx/internal/platform/migration"
	pgstore "github.com/clarifyx/clarifyx/internal/platform/postgres"
	redisstore "github.com/clarifyx/clarifyx/internal/platform/redis"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
	"github.com/clarifyx/clarifyx/internal/platform/stripe"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "clarifyx"))
	slog.SetDefault(log)

	log.Info("[ClarifyX] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "clarifyx"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for the process. The rate limiter's janitor goroutine
	// runs until this is cancelled at shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup context with a deadline so misconfiguration is caught
	// quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Platform Services ──────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	stripeClient := stripe.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	var mailer notify.Mailer = &notify.NoopMailer{}
	if cfg.MailEnabled() {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		log.Info("smtp_mailer_enabled", slog.String("host", cfg.SMTPHost))
	}

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	// Identity and sessions.
	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	resetTokens := auth.NewResetTokenRepository(rdb)
	verifyTokens := auth.NewVerificationTokenRepository(rdb)
	authService := auth.NewService(userRepository, sessionRepository, resetTokens, verifyTokens, jwtSvc, mailer, log)
	authHandler := auth.NewHandler(authService)

	// Taxonomy and plans.
	categoryService := category.NewService(category.NewRepository(pool), log)
	categoryHandler := category.NewHandler(categoryService)

	planService := plan.NewService(plan.NewRepository(pool), log)
	planHandler := plan.NewHandler(planService)

	// Revenue ledgers.
	earningService := earning.NewService(
		earning.NewLedgerRepository(pool),
		earning.NewSubscriptionRevenueRepository(pool),
		earning.NewEntityChecker(pool),
		log,
	)
	earningHandler := earning.NewHandler(earningService)

	// Catalogue. The payment repository doubles as the purchase check
	// gating paid downloads.
	paymentRepository := payment.NewPostgresRepository(pool)
	assetStats := asset.NewStatsRepository(pool)
	assetService := asset.NewService(asset.NewRepository(pool), assetStats, paymentRepository, log)
	assetHandler := asset.NewHandler(assetService)

	// Purchases and memberships.
	paymentService := payment.NewService(
		paymentRepository, assetService, userRepository, earningService,
		stripeClient, mailer, cfg.FrontendURL, log,
	)
	paymentHandler := payment.NewHandler(paymentService)

	subscriptionService := subscription.NewService(
		subscription.NewPostgresRepository(pool), planService, userRepository,
		earningService, stripeClient, mailer, cfg.FrontendURL, log,
	)
	subscriptionHandler := subscription.NewHandler(subscriptionService)

	// Community and support.
	reviewService := review.NewService(
		review.NewPostgresRepository(pool), assetService, subscriptionService, assetStats, log,
	)
	reviewHandler := review.NewHandler(reviewService)

	contactService := contact.NewService(contact.NewPostgresRepository(pool), mailer, log)
	contactHandler := contact.NewHandler(contactService)

	// Analytics.
	dashboardService := dashboard.NewService(
		dashboard.NewPostgresRepository(pool), earningService, assetService, rdb, log,
	)
	dashboardHandler := dashboard.NewHandler(dashboardService)

	webhookHandler := api.NewWebhookHandler(stripeClient, paymentService, subscriptionService, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Auth:         authHandler,
		Category:     categoryHandler,
		Asset:        assetHandler,
		Plan:         planHandler,
		Earning:      earningHandler,
		Payment:      paymentHandler,
		Subscription: subscriptionHandler,
		Review:       reviewHandler,
		Contact:      contactHandler,
		Dashboard:    dashboardHandler,
		Webhook:      webhookHandler,
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
