// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package snapshot persists the encoded entity store under a single
// durable key. Every backend stores one opaque blob and overwrites it on
// each save; there is no merge, so concurrent writers sharing a key see
// last-writer-wins.
package snapshot

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned by Load when nothing has been saved under the key.
var ErrNotFound = errors.New("snapshot: key not found")

// Backend reads and writes the snapshot blob.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Memory is an in-process backend. Several workspaces may share one
// Memory to model writers racing on the same key.
type Memory struct {
	mu     sync.Mutex
	data   []byte
	saved  bool
	writes int
}

// NewMemory returns an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, ErrNotFound
	}
	return slices.Clone(m.data), nil
}

func (m *Memory) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = slices.Clone(data)
	m.saved = true
	m.writes++
	return nil
}

// Writes returns how many times Save has been called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
