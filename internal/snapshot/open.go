// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"promptforge/internal/cache"
	"promptforge/internal/config"
	"promptforge/internal/database"
	"promptforge/internal/storage"
)

// Open connects the backend selected by cfg.StoreBackend, running
// migrations where the backend has a schema. The returned close function
// releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMemory:
		slog.Warn("using in-memory snapshot backend, state is lost on exit")
		return NewMemory(), noop, nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db, database.DialectSQLite); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewSQLite(db, cfg.StoreKey), db.Close, nil

	case config.BackendPostgres:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db, database.DialectPostgres); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewPostgres(db, cfg.StoreKey), db.Close, nil

	case config.BackendValkey:
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			return nil, nil, err
		}
		return NewValkey(client, cfg.StoreKey), client.Close, nil

	case config.BackendS3:
		client, err := storage.New(storage.Options{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBucket:  cfg.S3BucketPublic,
			PrivateBucket: cfg.S3BucketPrivate,
			PublicURL:     cfg.S3PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("s3 snapshot backend: storage is not configured")
		}
		return NewS3(client, client.PrivateBucket(), cfg.StoreKey), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.StoreBackend)
}
