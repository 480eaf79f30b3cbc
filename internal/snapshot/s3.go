// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package snapshot

import (
	"context"
	"errors"
	"fmt"

	"promptforge/internal/storage"
)

// ObjectStore is the subset of the storage client the S3 backend uses.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body []byte) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3 stores the snapshot as a single object in the private bucket.
type S3 struct {
	objects ObjectStore
	bucket  string
	key     string
}

// NewS3 returns a backend writing to bucket/<key>.json.
func NewS3(objects ObjectStore, bucket, key string) *S3 {
	return &S3{objects: objects, bucket: bucket, key: "snapshots/" + key + ".json"}
}

func (s *S3) Load(ctx context.Context) ([]byte, error) {
	data, err := s.objects.Download(ctx, s.bucket, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("s3 snapshot load: %w", err)
	}
	return data, nil
}

func (s *S3) Save(ctx context.Context, data []byte) error {
	if err := s.objects.Upload(ctx, s.bucket, s.key, "application/json", data); err != nil {
		return fmt.Errorf("s3 snapshot save: %w", err)
	}
	return nil
}
