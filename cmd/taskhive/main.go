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

	"github.com/redis/go-redis/v9"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch containers.

	cacheadapter "github.com/taskhive/taskhive/internal/adapter/driven/cache"
	sqliteadapter "github.com/taskhive/taskhive/internal/adapter/driven/sqlite"
	httphandler "github.com/taskhive/taskhive/internal/adapter/driving/http"
	"github.com/taskhive/taskhive/internal/application"
	"github.com/taskhive/taskhive/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"drain_enabled", cfg.DrainEnabled,
		"shared_cache", cfg.RedisURL != "",
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire persistence adapters.
	outboxRepo := sqliteadapter.NewOutboxRepo(db)
	activityRepo := sqliteadapter.NewActivityRepo(db)

	// 6. Create the Redis client when a shared cache is configured. An
	// unreachable server is not fatal: every cache operation probes
	// availability and falls back to the in-process store.
	var commander cacheadapter.Commander
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opt)
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				slog.Error("error closing redis client", "error", closeErr)
			}
		}()
		commander = client
		slog.Info("shared cache configured", "addr", opt.Addr)
	}

	// 7. Create the query cache and services.
	listCache := cacheadapter.NewStore(commander, cfg.CacheTTL, slog.Default())
	activitySvc := application.NewActivityService(outboxRepo, listCache, slog.Default())

	// 8. Start the drain scheduler for single-process deployments; a shared
	// backend implies an external consumer drains the outbox instead.
	if cfg.DrainEnabled {
		drainSvc := application.NewDrainService(outboxRepo, activityRepo, cfg.DrainInterval, cfg.DrainBatchSize, slog.Default())
		go drainSvc.Start(ctx)
		slog.Info("drain scheduler started", "interval", cfg.DrainInterval, "batch", cfg.DrainBatchSize)
	} else {
		slog.Info("drain scheduler disabled")
	}

	// 9. Create the HTTP handler and server.
	handler := httphandler.NewHandler(activityRepo, activitySvc, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
