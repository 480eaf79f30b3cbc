// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// promptforge API. Health and metrics are public; everything under /api
// requires the bearer token when one is configured.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptforge/internal/handlers"
	"promptforge/internal/metrics"
	"promptforge/internal/middleware"
	"promptforge/internal/store"
)

// Options configures the optional middleware.
type Options struct {
	// TokenHash is the bcrypt hash of the API token. Empty disables auth.
	TokenHash string
	// RateLimiter throttles /api per client IP. Nil disables it.
	RateLimiter *middleware.RateLimiter
	// Metrics enables request instrumentation and /metrics.
	Metrics *metrics.Metrics
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(api *handlers.API, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if opts.Metrics != nil {
		r.Use(middleware.Instrument(opts.Metrics))
	}

	// Health check and metrics, no auth.
	r.Get("/health", healthHandler(api.Stats))
	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		r.Use(middleware.RequireToken(opts.TokenHash))

		// Whole-store snapshot and change stream.
		r.Get("/state", api.GetState)
		r.Put("/state", api.PutState)
		r.Get("/events", api.Events)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", api.ListGroups)
			r.Post("/", api.CreateGroup)
			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", api.GetGroup)
				r.Patch("/", api.UpdateGroup)
				r.Delete("/", api.DeleteGroup)
				r.Post("/duplicate", api.DuplicateGroup)
				r.Post("/move", api.MoveGroup)

				r.Route("/elements", func(r chi.Router) {
					r.Get("/", api.ListElements)
					r.Post("/", api.CreateElement)
					r.Route("/{elementID}", func(r chi.Router) {
						r.Get("/", api.GetElement)
						r.Put("/", api.WriteElement)
						r.Delete("/", api.DeleteElement)
						r.Post("/save", api.SaveElement)
						r.Post("/select", api.SelectElementVersion)
						r.Post("/pin", api.PinElement)
						r.Put("/labels", api.SetElementLabels)
						r.Post("/duplicate", api.DuplicateElement)
						r.Post("/move", api.MoveElement)
					})
				})
			})
		})

		r.Route("/badges", func(r chi.Router) {
			r.Get("/", api.ListBadges)
			r.Post("/", api.CreateBadge)
			r.Put("/{badgeID}", api.UpdateBadge)
			r.Delete("/{badgeID}", api.DeleteBadge)
		})

		r.Route("/modifier-groups", func(r chi.Router) {
			r.Get("/", api.ListModifierGroups)
			r.Post("/", api.CreateModifierGroup)
			r.Route("/{modifierGroupID}", func(r chi.Router) {
				r.Patch("/", api.RenameModifierGroup)
				r.Delete("/", api.DeleteModifierGroup)
				r.Post("/modifiers", api.CreateModifier)
				r.Put("/modifiers/{modifierID}", api.UpdateModifier)
				r.Delete("/modifiers/{modifierID}", api.DeleteModifier)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", api.ListTemplates)
			r.Post("/", api.CreateTemplate)
			r.Route("/{templateID}", func(r chi.Router) {
				r.Get("/", api.GetTemplate)
				r.Put("/", api.UpdateTemplate)
				r.Delete("/", api.DeleteTemplate)
				r.Post("/duplicate", api.DuplicateTemplate)
				r.Post("/select", api.SelectTemplateVersion)
				r.Post("/versions", api.IncrementVersion)
				r.Post("/revert", api.RevertVersion)
				r.Post("/sections", api.CreateSection)
				r.Get("/export", api.Export)
				r.Post("/publish", api.Publish)
				r.Delete("/publish", api.Unpublish)
				r.Post("/share", api.Share)

				r.Route("/versions/{version}", func(r chi.Router) {
					r.Post("/dnd/over", api.DragOver)
					r.Post("/dnd/end", api.DragEnd)

					r.Route("/sections/{sectionID}", func(r chi.Router) {
						r.Put("/", api.RenameSection)
						r.Delete("/", api.DeleteSection)
						r.Post("/duplicate", api.DuplicateSection)
						r.Post("/move", api.MoveSection)
						r.Post("/items", api.AddSectionItem)
						r.Route("/items/{elementID}", func(r chi.Router) {
							r.Delete("/", api.RemoveSectionItem)
							r.Post("/refresh-fields", api.RefreshSectionItemFields)
							r.Put("/fields/{fieldID}", api.BindField)
							r.Delete("/fields/{fieldID}", api.UnbindField)
						})
					})
				})
			})
		})
	})

	return r
}

// healthHandler reports liveness with the current entity counts.
func healthHandler(stats func() store.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(struct {
			Status   string      `json:"status"`
			Entities store.Stats `json:"entities"`
		}{"ok", stats()})
	}
}
