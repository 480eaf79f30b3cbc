// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptforge/internal/models"
)

type badgeRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (req badgeRequest) validate() string {
	if msg := validateName(req.Name); msg != "" {
		return msg
	}
	return validateTag("Icon", req.Icon)
}

// ListBadges returns every badge.
func (a *API) ListBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ws.Store().Badges())
}

// CreateBadge adds a badge.
func (a *API) CreateBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}
	writeCreated(w, string(a.ws.AddBadge(r.Context(), req.Name, req.Icon)))
}

// UpdateBadge renames a badge or changes its icon.
func (a *API) UpdateBadge(w http.ResponseWriter, r *http.Request) {
	id := models.BadgeID(chi.URLParam(r, "badgeID"))
	if _, ok := a.ws.Store().Badge(id); !ok {
		notFound(w, "badge")
		return
	}
	var req badgeRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}
	a.ws.EditBadge(r.Context(), id, req.Name, req.Icon)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBadge removes a badge from every element and index.
func (a *API) DeleteBadge(w http.ResponseWriter, r *http.Request) {
	id := models.BadgeID(chi.URLParam(r, "badgeID"))
	if _, ok := a.ws.Store().Badge(id); !ok {
		notFound(w, "badge")
		return
	}
	a.ws.DeleteBadge(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func modifierGroupParam(r *http.Request) models.ModifierGroupID {
	return models.ModifierGroupID(chi.URLParam(r, "modifierGroupID"))
}

func modifierParam(r *http.Request) models.ModifierID {
	return models.ModifierID(chi.URLParam(r, "modifierID"))
}

// modifierGroupDetail is a modifier group with its modifiers.
type modifierGroupDetail struct {
	models.ModifierGroup
	Modifiers []models.Modifier `json:"modifiers"`
}

// ListModifierGroups returns every modifier group with its modifiers.
func (a *API) ListModifierGroups(w http.ResponseWriter, r *http.Request) {
	st := a.ws.Store()
	groups := st.ModifierGroups()
	out := make([]modifierGroupDetail, 0, len(groups))
	for _, g := range groups {
		out = append(out, modifierGroupDetail{ModifierGroup: g, Modifiers: st.Modifiers(g.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateModifierGroup adds a modifier group.
func (a *API) CreateModifierGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		badRequest(w, msg)
		return
	}
	writeCreated(w, string(a.ws.AddModifierGroup(r.Context(), req.Name)))
}

// RenameModifierGroup renames a modifier group.
func (a *API) RenameModifierGroup(w http.ResponseWriter, r *http.Request) {
	id := modifierGroupParam(r)
	if _, ok := a.ws.Store().ModifierGroup(id); !ok {
		notFound(w, "modifier group")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		badRequest(w, msg)
		return
	}
	a.ws.NameChangeModifierGroup(r.Context(), id, req.Name)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteModifierGroup removes a modifier group and unbinds its modifiers.
func (a *API) DeleteModifierGroup(w http.ResponseWriter, r *http.Request) {
	id := modifierGroupParam(r)
	if _, ok := a.ws.Store().ModifierGroup(id); !ok {
		notFound(w, "modifier group")
		return
	}
	a.ws.DeleteModifierGroup(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

type modifierRequest struct {
	Name     string `json:"name"`
	Modifier string `json:"modifier"`
	Summary  string `json:"summary"`
}

func (req modifierRequest) validate() string {
	if msg := validateName(req.Name); msg != "" {
		return msg
	}
	return validateText(req.Summary, req.Modifier)
}

// CreateModifier adds a modifier to a group.
func (a *API) CreateModifier(w http.ResponseWriter, r *http.Request) {
	var req modifierRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}
	id := a.ws.AddModifier(r.Context(), modifierGroupParam(r), req.Name, req.Modifier, req.Summary)
	if id == "" {
		notFound(w, "modifier group")
		return
	}
	writeCreated(w, string(id))
}

// UpdateModifier rewrites a modifier's name, text and summary.
func (a *API) UpdateModifier(w http.ResponseWriter, r *http.Request) {
	gid, id := modifierGroupParam(r), modifierParam(r)
	if _, ok := a.ws.Store().Modifier(gid, id); !ok {
		notFound(w, "modifier")
		return
	}
	var req modifierRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}
	a.ws.ChangeModifierAttributes(r.Context(), gid, id, req.Name, req.Modifier, req.Summary)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteModifier removes a modifier and unbinds it from every field.
func (a *API) DeleteModifier(w http.ResponseWriter, r *http.Request) {
	gid, id := modifierGroupParam(r), modifierParam(r)
	if _, ok := a.ws.Store().Modifier(gid, id); !ok {
		notFound(w, "modifier")
		return
	}
	a.ws.DeleteModifier(r.Context(), gid, id)
	w.WriteHeader(http.StatusNoContent)
}
