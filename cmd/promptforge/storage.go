// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"log/slog"

	"promptforge/internal/export"
	"promptforge/internal/storage"
)

// newObjectStore connects S3-compatible storage for publishing. It
// returns a nil interface when storage is not configured.
func newObjectStore() (export.ObjectStore, error) {
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
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	slog.Info("s3 storage connected",
		"endpoint", cfg.S3Endpoint,
		"public_bucket", client.PublicBucket(),
	)
	return client, nil
}
