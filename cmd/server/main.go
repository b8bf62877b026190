package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/regmap/internal/config"
	"github.com/JonMunkholm/regmap/internal/core"
	_ "github.com/JonMunkholm/regmap/internal/core/backends" // Register all backends
	"github.com/JonMunkholm/regmap/internal/database"
	"github.com/JonMunkholm/regmap/internal/logging"
	"github.com/JonMunkholm/regmap/internal/service"
	"github.com/JonMunkholm/regmap/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"history", cfg.Database.Enabled(),
		"convert_max_concurrent", cfg.Convert.MaxConcurrent,
		"default_backend", cfg.Convert.DefaultBackend,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if _, ok := core.Get(cfg.Convert.DefaultBackend); !ok {
		slog.Error("default backend is not registered", "backend", cfg.Convert.DefaultBackend)
		os.Exit(1)
	}

	ctx := context.Background()

	// History is optional: without a database the service only converts.
	var store service.Store
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		store = service.NewPostgresStore(pool)
	} else {
		slog.Info("DATABASE_URL not set, conversion history disabled")
	}

	svc := service.New(cfg, store)

	slog.Info("backends registered",
		"count", core.BackendCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("backend group", "group", group, "backends", len(core.ByGroup(group)))
	}

	server := web.NewServer(svc, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go svc.StartRetention(jobCtx)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := svc.SlotStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
			if err := svc.WaitForConversions(shutdownCtx); err != nil {
				slog.Warn("conversions did not complete in time", "error", err)
			} else {
				slog.Info("all conversions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
}
