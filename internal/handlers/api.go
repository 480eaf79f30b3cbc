// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON handlers for the promptforge API.
// Every mutating handler maps onto exactly one workspace operation; reads
// go straight to the entity store.
package handlers

import (
	"sync/atomic"
	"time"

	"promptforge/internal/cache"
	"promptforge/internal/export"
	"promptforge/internal/store"
	"promptforge/internal/workspace"
)

// API groups the HTTP handlers and their dependencies.
type API struct {
	ws        *workspace.Workspace
	exports   *cache.ExportCache
	publisher *export.Publisher
	events    *broker

	// gen changes on every store write and versions export cache keys.
	gen    atomic.Uint64
	cancel func()
}

// NewAPI creates the API handlers. exports may be nil to disable the
// export cache; publisher may be nil to disable publishing.
func NewAPI(ws *workspace.Workspace, exports *cache.ExportCache, publisher *export.Publisher) *API {
	a := &API{
		ws:        ws,
		exports:   exports,
		publisher: publisher,
		events:    newBroker(),
	}
	// Seeded from the clock so a restarted process never reuses a
	// generation still present in the shared cache.
	a.gen.Store(uint64(time.Now().UnixNano()))
	a.cancel = ws.Store().Subscribe(a.observe)
	return a
}

// Close detaches the API from the store and ends every event stream.
func (a *API) Close() {
	a.cancel()
	a.events.close()
}

// Generation returns the current store generation.
func (a *API) Generation() uint64 {
	return a.gen.Load()
}

// Stats reports entity counts for the health endpoint.
func (a *API) Stats() store.Stats {
	return a.ws.Store().Stats()
}

func (a *API) observe(ev store.Event) {
	a.gen.Add(1)
	a.events.publish(ev)
}
