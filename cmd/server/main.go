// Package main is the entry point for the Mailroom console. It loads
// configuration, connects to Redis and the optional audit database, wires
// together all plugins, and starts the HTTP server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/keyxmakerx/mailroom/internal/app"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/config"
	"github.com/keyxmakerx/mailroom/internal/database"
	"github.com/keyxmakerx/mailroom/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mailroom exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("tracing disabled", slog.Any("error", err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	sentryEnabled, err := telemetry.SetupSentry(cfg.Telemetry, cfg.Env)
	if err != nil {
		slog.Warn("sentry disabled", slog.Any("error", err))
	}
	defer telemetry.FlushSentry()

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Connect to MariaDB (audit log, optional) ---
	var db *sql.DB
	if cfg.Database.Enabled() {
		db, err = database.NewMariaDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		slog.Info("connected to MariaDB")
	} else {
		slog.Info("no database configured; audit log disabled")
	}

	// --- Backend client ---
	client, err := backend.New(cfg.Backend.URL, backend.WithJWTSecret(cfg.Backend.JWTSecret))
	if err != nil {
		return err
	}

	// --- Create Application ---
	application := app.New(cfg, db, rdb, client, sentryEnabled)
	if err := application.RegisterRoutes(); err != nil {
		return err
	}

	// --- Graceful Shutdown ---
	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// setupLogging configures the global slog logger. Development uses text
// format for readability. Production uses JSON for structured log
// aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
