// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"

	"promptforge/internal/config"
	"promptforge/internal/database"
	"promptforge/internal/storage"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// exerciseBackend runs the contract every backend must satisfy.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on empty key: got %v, want ErrNotFound", err)
	}

	if err := b.Save(ctx, []byte(`{"groups":[]}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"groups":[]}` {
		t.Errorf("Load = %q, want first blob", got)
	}

	if err := b.Save(ctx, []byte(`{"groups":[["a",{}]]}`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = b.Load(ctx)
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if string(got) != `{"groups":[["a",{}]]}` {
		t.Errorf("Load after overwrite = %q, want second blob", got)
	}
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	if m.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", m.Writes())
	}
}

func TestMemoryBackendCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	if err := m.Save(ctx, buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'

	got, _ := m.Load(ctx)
	if string(got) != "abc" {
		t.Errorf("saved blob aliased caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _ := m.Load(ctx)
	if string(again) != "abc" {
		t.Errorf("loaded blob aliased stored buffer: %q", again)
	}
}

func TestSQLiteBackend(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db, database.DialectSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	exerciseBackend(t, NewSQLite(db, "entity-map"))

	// A different key is independent.
	if _, err := NewSQLite(db, "other").Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("other key: got %v, want ErrNotFound", err)
	}
}

func TestPostgresBackend(t *testing.T) {
	dsn := "postgres://" + envOr("POSTGRES_USER", "promptforge") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "promptforge") + "?sslmode=disable"
	db, err := database.Connect(dsn)
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db, database.DialectPostgres); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	key := "test-" + t.Name()
	t.Cleanup(func() { db.Exec(`DELETE FROM entity_snapshots WHERE key = $1`, key) })
	db.Exec(`DELETE FROM entity_snapshots WHERE key = $1`, key)

	exerciseBackend(t, NewPostgres(db, key))
}

func TestValkeyBackend(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests.
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	b := NewValkey(client, "test-entity-map")
	client.Del(ctx, b.key)
	t.Cleanup(func() {
		client.Del(ctx, b.key)
		client.Close()
	})

	exerciseBackend(t, b)
}

// fakeObjects is an in-memory ObjectStore.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) Upload(_ context.Context, bucket, key, contentType string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.objects[bucket+"/"+key] = append([]byte(nil), body...)
	f.types[bucket+"/"+key] = contentType
	return nil
}

func (f *fakeObjects) Download(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func TestS3Backend(t *testing.T) {
	objects := newFakeObjects()
	exerciseBackend(t, NewS3(objects, "private", "entity-map"))

	if _, ok := objects.objects["private/snapshots/entity-map.json"]; !ok {
		t.Errorf("object not written at expected key, have %v", objects.objects)
	}
	if ct := objects.types["private/snapshots/entity-map.json"]; ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}

func TestS3BackendErrors(t *testing.T) {
	objects := newFakeObjects()
	objects.fail = errors.New("connection reset")
	b := NewS3(objects, "private", "entity-map")

	_, err := b.Load(context.Background())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load: got %v, want a transport error", err)
	}
	if err := b.Save(context.Background(), []byte("x")); err == nil {
		t.Error("Save: expected error")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, closeFn, err := Open(ctx, &config.Config{StoreBackend: config.BackendMemory})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer closeFn()
		if _, ok := b.(*Memory); !ok {
			t.Errorf("got %T, want *Memory", b)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{
			StoreBackend: config.BackendSQLite,
			SQLitePath:   filepath.Join(t.TempDir(), "open.db"),
			StoreKey:     "entity-map",
		}
		b, closeFn, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer closeFn()
		exerciseBackend(t, b)
	})

	t.Run("s3 unconfigured", func(t *testing.T) {
		if _, _, err := Open(ctx, &config.Config{StoreBackend: config.BackendS3}); err == nil {
			t.Error("expected error without S3 credentials")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, _, err := Open(ctx, &config.Config{StoreBackend: "etcd"}); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}
