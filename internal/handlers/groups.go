// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptforge/internal/models"
	"promptforge/internal/workspace"
)

func groupParam(r *http.Request) models.GroupID {
	return models.GroupID(chi.URLParam(r, "groupID"))
}

func elementParam(r *http.Request) models.ElementID {
	return models.ElementID(chi.URLParam(r, "elementID"))
}

// groupRequest is the body of group create and update requests. Nil
// fields are left unchanged on update.
type groupRequest struct {
	Name   *string             `json:"name"`
	Sort   *string             `json:"sort"`
	Status *models.GroupStatus `json:"status"`
}

// moveRequest repositions an entity among its siblings, or for elements
// moves it to another group when GroupID is set.
type moveRequest struct {
	ToIndex int            `json:"toIndex"`
	GroupID models.GroupID `json:"groupId"`
}

// groupDetail is a group with its elements and badge index.
type groupDetail struct {
	models.Group
	Elements []models.Element                      `json:"elements"`
	Badges   map[models.BadgeID][]models.ElementID `json:"badges"`
}

// ListGroups returns every group in display order.
func (a *API) ListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ws.Store().Groups())
}

// CreateGroup adds a group.
func (a *API) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == nil {
		badRequest(w, "Name is required.")
		return
	}
	if msg := validateName(*req.Name); msg != "" {
		badRequest(w, msg)
		return
	}
	var sort string
	if req.Sort != nil {
		sort = *req.Sort
	}
	if msg := validateTag("Sort", sort); msg != "" {
		badRequest(w, msg)
		return
	}
	id := a.ws.AddGroup(r.Context(), *req.Name, sort)
	writeCreated(w, string(id))
}

// GetGroup returns a group with its elements.
func (a *API) GetGroup(w http.ResponseWriter, r *http.Request) {
	st := a.ws.Store()
	id := groupParam(r)
	g, ok := st.Group(id)
	if !ok {
		notFound(w, "group")
		return
	}
	writeJSON(w, http.StatusOK, groupDetail{
		Group:    g,
		Elements: st.Elements(id),
		Badges:   st.GroupBadges(id),
	})
}

// UpdateGroup renames a group or changes its status.
func (a *API) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := groupParam(r)
	if _, ok := a.ws.Store().Group(id); !ok {
		notFound(w, "group")
		return
	}
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Sort != nil {
		badRequest(w, "Sort cannot be changed.")
		return
	}
	if req.Name != nil {
		if msg := validateName(*req.Name); msg != "" {
			badRequest(w, msg)
			return
		}
	}
	if req.Status != nil {
		switch *req.Status {
		case models.GroupStatusActive, models.GroupStatusArchived:
		default:
			badRequest(w, "Unknown status.")
			return
		}
	}

	if req.Name != nil {
		a.ws.NameChangeGroup(r.Context(), id, *req.Name)
	}
	if req.Status != nil {
		a.ws.ChangeGroupStatus(r.Context(), id, *req.Status)
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroup removes a group and everything referencing its elements.
func (a *API) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := groupParam(r)
	if _, ok := a.ws.Store().Group(id); !ok {
		notFound(w, "group")
		return
	}
	a.ws.DeleteGroup(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateGroup copies a group and its elements.
func (a *API) DuplicateGroup(w http.ResponseWriter, r *http.Request) {
	id := a.ws.DuplicateGroup(r.Context(), groupParam(r))
	if id == "" {
		notFound(w, "group")
		return
	}
	writeCreated(w, string(id))
}

// MoveGroup repositions a group in the group list.
func (a *API) MoveGroup(w http.ResponseWriter, r *http.Request) {
	id := groupParam(r)
	if _, ok := a.ws.Store().Group(id); !ok {
		notFound(w, "group")
		return
	}
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, r, a.ws.MoveGroup(r.Context(), id, req.ToIndex))
}

// ListElements returns a group's elements in display order.
func (a *API) ListElements(w http.ResponseWriter, r *http.Request) {
	id := groupParam(r)
	if _, ok := a.ws.Store().Group(id); !ok {
		notFound(w, "group")
		return
	}
	writeJSON(w, http.StatusOK, a.ws.Store().Elements(id))
}

// CreateElement adds an element with an empty body.
func (a *API) CreateElement(w http.ResponseWriter, r *http.Request) {
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
	id := a.ws.AddElement(r.Context(), groupParam(r), req.Name)
	if id == "" {
		notFound(w, "group")
		return
	}
	writeCreated(w, string(id))
}

// element loads the element addressed by the URL or writes 404.
func (a *API) element(w http.ResponseWriter, r *http.Request) (models.Element, bool) {
	e, ok := a.ws.Store().Element(groupParam(r), elementParam(r))
	if !ok {
		notFound(w, "element")
	}
	return e, ok
}

// GetElement returns one element with its full body history.
func (a *API) GetElement(w http.ResponseWriter, r *http.Request) {
	if e, ok := a.element(w, r); ok {
		writeJSON(w, http.StatusOK, e)
	}
}

// WriteElement stores a body at an explicit version.
func (a *API) WriteElement(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.element(w, r); !ok {
		return
	}
	var req workspace.ItemAttributes
	if !decode(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		badRequest(w, msg)
		return
	}
	if msg := validateText(req.Summary, req.Body); msg != "" {
		badRequest(w, msg)
		return
	}
	writeResult(w, r, a.ws.ChangeItemAttributes(r.Context(), groupParam(r), elementParam(r), req))
}

// SaveElement applies an editor save and returns the selected version.
func (a *API) SaveElement(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.element(w, r); !ok {
		return
	}
	var req workspace.ItemEdit
	if !decode(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		badRequest(w, msg)
		return
	}
	if msg := validateText(req.Summary, req.Body); msg != "" {
		badRequest(w, msg)
		return
	}
	v := a.ws.SaveItem(r.Context(), groupParam(r), elementParam(r), req)
	writeJSON(w, http.StatusOK, map[string]int{"version": v})
}

// SelectElementVersion moves an element's read cursor.
func (a *API) SelectElementVersion(w http.ResponseWriter, r *http.Request) {
	e, ok := a.element(w, r)
	if !ok {
		return
	}
	var req struct {
		Version int `json:"version"`
	}
	if !decode(w, r, &req) {
		return
	}
	if _, ok := e.Body[req.Version]; !ok {
		notFound(w, "version")
		return
	}
	a.ws.SelectItemVersion(r.Context(), e.Group, e.ID, req.Version)
	w.WriteHeader(http.StatusNoContent)
}

// PinElement sets or clears the pinned flag.
func (a *API) PinElement(w http.ResponseWriter, r *http.Request) {
	e, ok := a.element(w, r)
	if !ok {
		return
	}
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if !decode(w, r, &req) {
		return
	}
	a.ws.PinItem(r.Context(), e.Group, e.ID, req.Pinned)
	w.WriteHeader(http.StatusNoContent)
}

// SetElementLabels replaces an element's badges.
func (a *API) SetElementLabels(w http.ResponseWriter, r *http.Request) {
	e, ok := a.element(w, r)
	if !ok {
		return
	}
	var req struct {
		Labels []models.BadgeID `json:"labels"`
	}
	if !decode(w, r, &req) {
		return
	}
	a.ws.SetItemLabels(r.Context(), e.Group, e.ID, req.Labels)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteElement removes an element from its group and every template.
func (a *API) DeleteElement(w http.ResponseWriter, r *http.Request) {
	e, ok := a.element(w, r)
	if !ok {
		return
	}
	a.ws.DeleteItem(r.Context(), e.Group, e.ID)
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateElement copies an element into the same group.
func (a *API) DuplicateElement(w http.ResponseWriter, r *http.Request) {
	e, ok := a.element(w, r)
	if !ok {
		return
	}
	writeCreated(w, string(a.ws.DuplicateItem(r.Context(), e.Group, e.ID)))
}

// MoveElement moves an element to another group when groupId is given,
// otherwise to position toIndex within its group.
func (a *API) MoveElement(w http.ResponseWriter, r *http.Request) {
	e, ok := a.element(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.GroupID == "" {
		writeResult(w, r, a.ws.MoveItem(r.Context(), e.Group, e.ID, req.ToIndex))
		return
	}
	if _, ok := a.ws.Store().Group(req.GroupID); !ok {
		notFound(w, "group")
		return
	}
	a.ws.MoveItemToGroup(r.Context(), e.Group, e.ID, req.GroupID)
	w.WriteHeader(http.StatusNoContent)
}
