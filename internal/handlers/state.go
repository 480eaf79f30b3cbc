// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// GetState returns the whole store in its snapshot encoding.
func (a *API) GetState(w http.ResponseWriter, r *http.Request) {
	data, err := a.ws.Export()
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// PutState replaces the whole store with a snapshot. A snapshot that does
// not decode leaves the store untouched.
func (a *API) PutState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStateBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "snapshot too large")
			return
		}
		badRequest(w, "could not read snapshot")
		return
	}
	if err := a.ws.Import(r.Context(), data); err != nil {
		slog.Warn("snapshot import rejected", "bytes", len(data), "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if a.exports != nil {
		a.exports.InvalidateAll(r.Context())
	}
	st := a.Stats()
	slog.Info("snapshot imported", "bytes", len(data), "groups", st.Groups, "templates", st.Templates)
	writeJSON(w, http.StatusOK, st)
}
