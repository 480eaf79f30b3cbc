// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"promptforge/internal/export"
	"promptforge/internal/order"
	"promptforge/internal/workspace"
)

// maxRequestBytes caps a JSON request body. State imports use
// maxStateBytes instead.
const (
	maxRequestBytes = 1 << 20
	maxStateBytes   = 32 << 20
)

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError sends {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCreated sends the ID of a newly created entity.
func writeCreated(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// decode reads a JSON request body into dst. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// statusFor maps an operation error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrVersionLocked):
		return http.StatusLocked
	case errors.Is(err, workspace.ErrDuplicateItem), errors.Is(err, order.ErrExhausted):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrNoSelection), errors.Is(err, workspace.ErrInvalidDrop):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workspace.ErrInvalidDragID), errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrPublishingDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeOpError reports an operation error. Unexpected errors are logged
// and hidden from the client.
func writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// writeResult sends 204 on success or maps err.
func writeResult(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func notFound(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotFound, what+" not found")
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

// versionParam parses the {version} URL parameter.
func versionParam(r *http.Request) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
