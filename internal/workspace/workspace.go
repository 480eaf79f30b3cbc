// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workspace implements every operation that mutates the entity
// store. Each operation keeps the cross references between entities
// consistent (section items pointing at elements, fields pointing at
// modifiers, the per-group badge index pointing at elements) and ends by
// writing the whole store to the snapshot backend.
//
// Operations never fail because an entity is missing: they log a warning
// and return without touching anything. Errors are returned only for
// policy violations, before any mutation happens.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"promptforge/internal/metrics"
	"promptforge/internal/order"
	"promptforge/internal/snapshot"
	"promptforge/internal/store"
)

// Policy violations.
var (
	ErrVersionLocked = errors.New("version is locked")
	ErrNoSelection   = errors.New("no template or section selected")
	ErrDuplicateItem = errors.New("element already exists in section")
	ErrInvalidDrop   = errors.New("invalid drop target")
	ErrInvalidDragID = errors.New("malformed drag id")
)

// Workspace owns the entity store for one session. All operations are
// serialised, so each runs to completion before the next starts.
type Workspace struct {
	mu      sync.Mutex
	store   *store.Store
	backend snapshot.Backend
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workspace) { w.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// New creates a workspace over st persisting to backend.
func New(st *store.Store, backend snapshot.Backend, opts ...Option) *Workspace {
	w := &Workspace{
		store:   st,
		backend: backend,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Store returns the entity store for reading.
func (w *Workspace) Store() *store.Store {
	return w.store
}

// Initialize rehydrates the store from the backend. A missing snapshot is
// the first-run state and leaves the store empty. A snapshot that cannot be
// read or decoded leaves the store untouched and is returned.
func (w *Workspace) Initialize(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := w.backend.Load(ctx)
	if errors.Is(err, snapshot.ErrNotFound) {
		w.log.Warn("no entity snapshot found, starting empty")
		return nil
	}
	if err != nil {
		w.log.Error("entity snapshot load failed", "error", err)
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := w.store.Decode(data); err != nil {
		w.log.Error("entity snapshot decode failed", "error", err, "bytes", len(data))
		return err
	}

	st := w.store.Stats()
	w.log.Info("entity snapshot loaded",
		"bytes", len(data),
		"groups", st.Groups,
		"elements", st.Elements,
		"templates", st.Templates,
		"modifiers", st.Modifiers,
	)
	return nil
}

// Import replaces the whole store with an encoded snapshot and persists it.
func (w *Workspace) Import(ctx context.Context, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Decode(data); err != nil {
		return err
	}
	w.commit(ctx, "Import")
	return nil
}

// Export returns the encoded store.
func (w *Workspace) Export() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Encode()
}

// Flush writes the current store to the backend.
func (w *Workspace) Flush(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flush(ctx)
}

// saveTimeout bounds a single snapshot write.
const saveTimeout = 30 * time.Second

// flush encodes the store and saves it. The mutation has already been
// applied, so the write ignores cancellation of ctx and is bounded by
// saveTimeout instead. Failures are logged and counted; the in-memory state
// stays authoritative and the write is lost.
func (w *Workspace) flush(ctx context.Context) {
	start := time.Now()
	data, err := w.store.Encode()
	if err == nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		err = w.backend.Save(saveCtx, data)
		cancel()
	}
	w.metrics.RecordFlush(len(data), err, time.Since(start))
	if err != nil {
		w.log.Error("entity snapshot write failed", "error", err)
	}
}

// commit ends a state-changing operation.
func (w *Workspace) commit(ctx context.Context, op string) {
	w.flush(ctx)
	w.metrics.RecordOperation(op)
}

func (w *Workspace) notFound(op, what string, attrs ...any) {
	w.log.Warn(what+" not found", append([]any{"op", op}, attrs...)...)
	w.metrics.RecordNotFound(op)
}

func (w *Workspace) reject(op string, err error, attrs ...any) error {
	w.log.Warn("operation rejected", append([]any{"op", op, "reason", err.Error()}, attrs...)...)
	w.metrics.RecordRejection(op, reasonLabel(err))
	return err
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrVersionLocked):
		return "locked"
	case errors.Is(err, ErrNoSelection):
		return "no_selection"
	case errors.Is(err, ErrDuplicateItem):
		return "duplicate"
	case errors.Is(err, ErrInvalidDrop), errors.Is(err, ErrInvalidDragID):
		return "invalid_drop"
	case errors.Is(err, order.ErrExhausted):
		return "order_exhausted"
	default:
		return "other"
	}
}

func (w *Workspace) stamp() time.Time {
	return w.now().UTC()
}
