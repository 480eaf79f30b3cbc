// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"promptforge/internal/config"
	"promptforge/internal/metrics"
	"promptforge/internal/snapshot"
	"promptforge/internal/store"
	"promptforge/internal/workspace"
)

// cfg is loaded once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "promptforge",
	Short: "Prompt authoring workspace with versioned templates",
	Long: `promptforge keeps a library of reusable prompt elements, modifiers and
versioned templates, and assembles templates into Markdown prompts.

All state lives in one snapshot under a single key of the configured
backend (STORE_BACKEND: sqlite, postgres, valkey, s3 or memory).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			slog.Error("failed to load configuration", "error", err)
			return err
		}
		slog.SetDefault(newLogger(cfg, os.Stderr))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, exportCmd, snapshotCmd, migrateCmd)
}

// newLogger returns a text logger in development and a JSON logger
// everywhere else, at the configured level.
func newLogger(cfg *config.Config, out *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.IsDev() {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openWorkspace connects the snapshot backend and rehydrates a workspace
// from it. The returned function closes the backend.
func openWorkspace(ctx context.Context, m *metrics.Metrics) (*workspace.Workspace, func() error, error) {
	backend, closeFn, err := snapshot.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", cfg.StoreBackend, err)
	}
	opts := []workspace.Option{workspace.WithLogger(slog.Default())}
	if m != nil {
		opts = append(opts, workspace.WithMetrics(m))
	}
	ws := workspace.New(store.New(), backend, opts...)
	if err := ws.Initialize(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	slog.Info("workspace ready", "backend", cfg.StoreBackend, "key", cfg.StoreKey)
	return ws, closeFn, nil
}
