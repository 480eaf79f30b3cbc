// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promptforge/internal/models"
)

// ErrPublishingDisabled is returned when no object storage is configured.
var ErrPublishingDisabled = errors.New("export: publishing is not configured")

// MaxShareExpiry is the longest lifetime S3 allows for a presigned URL.
const MaxShareExpiry = 7 * 24 * time.Hour

// ObjectStore is the subset of storage.Client a Publisher needs.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body []byte) error
	Delete(ctx context.Context, bucket, key string) error
	FileURL(key string) string
	PresignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	PublicBucket() string
	PrivateBucket() string
}

// Publisher uploads rendered exports to object storage.
type Publisher struct {
	store ObjectStore
	src   Source
}

// NewPublisher returns a publisher. A nil store yields a publisher whose
// methods always fail with ErrPublishingDisabled.
func NewPublisher(store ObjectStore, src Source) *Publisher {
	return &Publisher{store: store, src: src}
}

// Published describes an uploaded export.
type Published struct {
	Key       string     `json:"key"`
	URL       string     `json:"url"`
	Size      int        `json:"size"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Publish renders the template version and uploads it to the public bucket
// under "exports/<file name>". A negative version publishes the selected
// one.
func (p *Publisher) Publish(ctx context.Context, tid models.TemplateGroupID, version int, format Format) (Published, error) {
	key, body, err := p.render(tid, version, format, "exports/")
	if err != nil {
		return Published{}, err
	}
	if err := p.store.Upload(ctx, p.store.PublicBucket(), key, format.ContentType(), body); err != nil {
		return Published{}, fmt.Errorf("publish %s: %w", key, err)
	}
	return Published{Key: key, URL: p.store.FileURL(key), Size: len(body)}, nil
}

// Share uploads the rendered version to the private bucket under
// "shares/<file name>" and returns a presigned URL valid for expires,
// capped at MaxShareExpiry.
func (p *Publisher) Share(ctx context.Context, tid models.TemplateGroupID, version int, format Format, expires time.Duration) (Published, error) {
	key, body, err := p.render(tid, version, format, "shares/")
	if err != nil {
		return Published{}, err
	}
	if expires <= 0 || expires > MaxShareExpiry {
		expires = MaxShareExpiry
	}
	bucket := p.store.PrivateBucket()
	if err := p.store.Upload(ctx, bucket, key, format.ContentType(), body); err != nil {
		return Published{}, fmt.Errorf("share %s: %w", key, err)
	}
	url, err := p.store.PresignedURL(ctx, bucket, key, expires)
	if err != nil {
		return Published{}, fmt.Errorf("share %s: %w", key, err)
	}
	at := time.Now().Add(expires).UTC()
	return Published{Key: key, URL: url, Size: len(body), ExpiresAt: &at}, nil
}

// Unpublish removes a previously published export from the public bucket.
func (p *Publisher) Unpublish(ctx context.Context, tid models.TemplateGroupID, version int, format Format) (string, error) {
	if p == nil || p.store == nil {
		return "", ErrPublishingDisabled
	}
	t, ok := p.src.Template(tid)
	if !ok {
		return "", ErrNotFound
	}
	if version < 0 {
		version = t.SelectedVersion
	}
	key := "exports/" + FileName(t.Name, version, format)
	if err := p.store.Delete(ctx, p.store.PublicBucket(), key); err != nil {
		return "", fmt.Errorf("unpublish %s: %w", key, err)
	}
	return key, nil
}

// render resolves the version and renders it, returning the object key
// under prefix.
func (p *Publisher) render(tid models.TemplateGroupID, version int, format Format, prefix string) (string, []byte, error) {
	if p == nil || p.store == nil {
		return "", nil, ErrPublishingDisabled
	}
	t, ok := p.src.Template(tid)
	if !ok {
		return "", nil, ErrNotFound
	}
	if version < 0 {
		version = t.SelectedVersion
	}
	body, err := Render(p.src, tid, version, format)
	if err != nil {
		return "", nil, err
	}
	return prefix + FileName(t.Name, version, format), body, nil
}
