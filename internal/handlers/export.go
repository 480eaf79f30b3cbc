// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"promptforge/internal/cache"
	"promptforge/internal/export"
)

// exportVersion reads the optional ?version= parameter, defaulting to the
// template's selected version.
func exportVersion(r *http.Request, selected int) (int, error) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return selected, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version %q", raw)
	}
	return v, nil
}

// exportFormat reads the optional ?format= parameter, defaulting to
// Markdown.
func exportFormat(r *http.Request) (export.Format, error) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return export.FormatMarkdown, nil
	}
	return export.ParseFormat(raw)
}

// Export renders a template version as Markdown or HTML. Renders are
// cached per store generation when an export cache is configured.
func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	version, err := exportVersion(r, t.SelectedVersion)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	format, err := exportFormat(r)
	if err != nil {
		writeOpError(w, r, err)
		return
	}

	gen := a.gen.Load()
	key := cache.ExportKey(string(t.ID), version, string(format), gen)
	body, hit := a.cachedExport(r, key)
	if !hit {
		body, err = export.Render(a.ws.Store(), t.ID, version, format)
		if err != nil {
			writeOpError(w, r, err)
			return
		}
		if a.exports != nil {
			a.exports.Set(r.Context(), key, body)
		}
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", export.FileName(t.Name, version, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("export write failed", "template_id", t.ID, "error", err)
	}
}

func (a *API) cachedExport(r *http.Request, key string) ([]byte, bool) {
	if a.exports == nil {
		return nil, false
	}
	return a.exports.Get(r.Context(), key)
}

// publishRequest selects what to publish. A nil Version means the
// selected version; an empty Format means Markdown.
type publishRequest struct {
	Version   *int          `json:"version"`
	Format    export.Format `json:"format"`
	ExpiresIn string        `json:"expiresIn"`
}

func (req publishRequest) resolve() (int, export.Format, error) {
	version := -1
	if req.Version != nil {
		version = *req.Version
	}
	if req.Format == "" {
		return version, export.FormatMarkdown, nil
	}
	f, err := export.ParseFormat(string(req.Format))
	return version, f, err
}

// Publish uploads a rendered template version to the public bucket.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	var req publishRequest
	if !decode(w, r, &req) {
		return
	}
	version, format, err := req.resolve()
	if err != nil {
		writeOpError(w, r, err)
		return
	}

	pub, err := a.publisher.Publish(r.Context(), t.ID, version, format)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	slog.Info("export published", "template_id", t.ID, "key", pub.Key, "size", pub.Size)
	writeJSON(w, http.StatusCreated, pub)
}

// Unpublish removes a published export from the public bucket.
func (a *API) Unpublish(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	version, err := exportVersion(r, -1)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	format, err := exportFormat(r)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	key, err := a.publisher.Unpublish(r.Context(), t.ID, version, format)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	slog.Info("export unpublished", "template_id", t.ID, "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// Share uploads a rendered template version to the private bucket and
// returns a presigned link. expiresIn is a Go duration such as "24h".
func (a *API) Share(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	var req publishRequest
	if !decode(w, r, &req) {
		return
	}
	version, format, err := req.resolve()
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	var expires time.Duration
	if req.ExpiresIn != "" {
		expires, err = time.ParseDuration(req.ExpiresIn)
		if err != nil || expires <= 0 {
			badRequest(w, fmt.Sprintf("invalid expiresIn %q", req.ExpiresIn))
			return
		}
	}

	pub, err := a.publisher.Share(r.Context(), t.ID, version, format, expires)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	slog.Info("export shared", "template_id", t.ID, "key", pub.Key, "expires_at", pub.ExpiresAt)
	writeJSON(w, http.StatusCreated, pub)
}
