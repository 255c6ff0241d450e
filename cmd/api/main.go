// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Api is the entry point for the Folivafy document-collection server.

Folivafy is a multi-tenant backend that stores schemaless JSON documents
organized into named collections, records an append-only event log per
document, enforces a grants-based ACL, and invokes registered hooks on
every write and on a recurring cron schedule.

Usage:

	go run cmd/api/main.go

The environment variables are documented on [config.Config].

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish connections to Postgres and Redis.
 4. Migration: Run idempotent schema updates.
 5. Wiring: Inject dependencies into domain services/handlers.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErikWegner/folivafy-go/internal/api"
	"github.com/ErikWegner/folivafy-go/internal/cron"
	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/mail"
	"github.com/ErikWegner/folivafy-go/internal/maintenance"
	"github.com/ErikWegner/folivafy-go/internal/pipeline"
	"github.com/ErikWegner/folivafy-go/internal/platform/config"
	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/platform/middleware"
	"github.com/ErikWegner/folivafy-go/internal/platform/migration"
	pgstore "github.com/ErikWegner/folivafy-go/internal/platform/postgres"
	"github.com/ErikWegner/folivafy-go/internal/platform/redisclient"
	"github.com/ErikWegner/folivafy-go/internal/query"
	"github.com/ErikWegner/folivafy-go/internal/stageddelete"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("folivafy_service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A 30s deadline prevents the app from hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// # 4. Redis
	rdb, err := redisclient.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// # 5. Migrations
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 6. Identity
	verifier, err := newVerifier(cfg)
	if err != nil {
		return fmt.Errorf("initialize identity verifier: %w", err)
	}

	// # 7. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisclient.Ping(context.Background(), rdb)
		},
	}, log)

	// # 8. Core Domain Wiring
	// Pipeline is constructed with a no-op waker first since the cron
	// driver it wakes needs the pipeline itself to run cron hooks — the
	// two are wired together right after both exist.
	s := store.NewPostgresStore(pool)
	docs := documents.New(s)
	registry := hooks.NewRegistry()
	pipe := pipeline.New(s, docs, registry, nil, log)
	q := query.New(s, docs)
	maint := maintenance.New(s, docs, registry)

	cronInterval, err := time.ParseDuration(cfg.CronInterval)
	if err != nil {
		return fmt.Errorf("parse CRON_INTERVAL: %w", err)
	}
	cronDriver := cron.New(s, docs, pipe, registry, rdb, cronInterval, log)
	pipe.Waker = cronDriver

	deleteConfigs, err := stageddelete.ParseConfig(cfg.EnableDeletion)
	if err != nil {
		return fmt.Errorf("parse FOLIVAFY_ENABLE_DELETION: %w", err)
	}
	stageddelete.Register(registry, docs, deleteConfigs, log)

	cronDriver.Start(startupCtx)
	defer cronDriver.Stop()

	// # 9. Mail Drainer
	// Runs for the lifetime of the process; real SMTP delivery is an
	// external collaborator this service never talks to directly.
	mailCtx, mailCancel := context.WithCancel(context.Background())
	defer mailCancel()
	drainer := mail.NewDrainer(pool, mail.LogTransport{Logger: log}, 5*time.Second, 50, log)
	go drainer.Run(mailCtx)

	// # 10. API Assembly
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Collections:  api.NewCollectionsHandler(s, pipe, q, log),
		Events:       api.NewEventsHandler(pipe),
		Recoverables: api.NewRecoverablesHandler(q),
		Maintenance:  api.NewMaintenanceHandler(maint),
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, log, verifier, handlers)

	// # 11. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("folivafy_api_running", slog.String("port", cfg.ServerPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	appCancel()

	log.Info("shutting_down_api_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

// newVerifier builds the identity verifier from whichever of
// JWTPublicKeyPath / JWTHMACSecret the deployment configured, preferring
// the RSA public key when both are present.
func newVerifier(cfg *config.Config) (middleware.TokenVerifier, error) {
	if cfg.JWTPublicKeyPath != "" {
		return identity.NewRSAVerifier(cfg.JWTPublicKeyPath)
	}
	if cfg.JWTHMACSecret != "" {
		return identity.NewHMACVerifier(cfg.JWTHMACSecret), nil
	}
	return nil, fmt.Errorf("neither JWT_PUBLIC_KEY_PATH nor JWT_HMAC_SECRET is set")
}
