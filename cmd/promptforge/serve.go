// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"promptforge/internal/cache"
	"promptforge/internal/export"
	"promptforge/internal/handlers"
	"promptforge/internal/metrics"
	"promptforge/internal/middleware"
	"promptforge/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the promptforge HTTP API.

The server provides:
  - /health   liveness with entity counts
  - /metrics  Prometheus metrics
  - /api/...  the authoring API (bearer token when API_TOKEN_HASH is set)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	m := metrics.New()
	ws, closeBackend, err := openWorkspace(ctx, m)
	if err != nil {
		slog.Error("failed to open workspace", "error", err)
		return err
	}
	defer closeBackend()

	// Export cache in Valkey (optional).
	var exports *cache.ExportCache
	if cfg.ExportCacheTTL > 0 {
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Warn("valkey unavailable, export cache disabled", "error", err)
		} else {
			defer client.Close()
			exports = cache.NewExportCache(client, cfg.ExportCacheTTL)
		}
	}

	// S3-compatible object storage for publishing (optional).
	objects, err := newObjectStore()
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		return err
	}
	if objects == nil {
		slog.Warn("s3 storage not configured, export publishing disabled")
	}

	api := handlers.NewAPI(ws, exports, export.NewPublisher(objects, ws.Store()))
	defer api.Close()

	opts := router.Options{TokenHash: cfg.APITokenHash, Metrics: m}
	if cfg.RateLimit > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer rl.Stop()
		opts.RateLimiter = rl
	}
	if cfg.APITokenHash == "" {
		slog.Warn("API_TOKEN_HASH not set, the API is unauthenticated")
	}

	// No WriteTimeout: event streams are long-lived.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(api, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Event streams never finish on their own; end them before draining.
	api.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}

	// Retry the last write in case an earlier flush failed.
	ws.Flush(shutdownCtx)
	slog.Info("server stopped gracefully")
	return nil
}
