// Command server runs the rwid HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rwid/internal/bootstrap"
	"rwid/internal/config"
	"rwid/internal/middleware"
	"rwid/internal/observability"
	"rwid/internal/server"
)

// @title rwid API
// @version 1.0
// @description Multi-platform community API with communities, feeds, likes, and bookmarks
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@rwid.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		middleware.Logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

const shutdownGrace = 10 * time.Second

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "rwid-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedCatalog: cfg.SeedCatalog})
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, redisClient)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() { listenErr <- srv.Start() }()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		middleware.Logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		middleware.Logger.Warn("server shutdown", slog.String("error", serr.Error()))
	}
	if terr := shutdownTracing(shutdownCtx); terr != nil {
		middleware.Logger.Warn("tracing shutdown", slog.String("error", terr.Error()))
	}
	return err
}
