// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptforge/internal/models"
)

func templateParam(r *http.Request) models.TemplateGroupID {
	return models.TemplateGroupID(chi.URLParam(r, "templateID"))
}

func sectionParam(r *http.Request) models.SectionID {
	return models.SectionID(chi.URLParam(r, "sectionID"))
}

func fieldParam(r *http.Request) models.TemplateFieldID {
	return models.TemplateFieldID(chi.URLParam(r, "fieldID"))
}

type templateRequest struct {
	Name string `json:"name"`
	Sort string `json:"sort"`
}

func (req templateRequest) validate() string {
	if msg := validateName(req.Name); msg != "" {
		return msg
	}
	return validateTag("Sort", req.Sort)
}

// templateSummary is a template without its section history.
type templateSummary struct {
	ID              models.TemplateGroupID `json:"id"`
	Name            string                 `json:"name"`
	Sort            string                 `json:"sort"`
	VersionCounter  int                    `json:"versionCounter"`
	SelectedVersion int                    `json:"selectedVersion"`
	Versions        []int                  `json:"versions"`
}

// ListTemplates returns every template without section contents.
func (a *API) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := a.ws.Store().Templates()
	out := make([]templateSummary, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateSummary{
			ID:              t.ID,
			Name:            t.Name,
			Sort:            t.Sort,
			VersionCounter:  t.VersionCounter,
			SelectedVersion: t.SelectedVersion,
			Versions:        t.Versions(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTemplate adds a template at version 0 with no sections.
func (a *API) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}
	writeCreated(w, string(a.ws.AddTemplateGroup(r.Context(), req.Name, req.Sort)))
}

// template loads the template addressed by the URL or writes 404.
func (a *API) template(w http.ResponseWriter, r *http.Request) (models.TemplateGroup, bool) {
	t, ok := a.ws.Store().Template(templateParam(r))
	if !ok {
		notFound(w, "template")
	}
	return t, ok
}

// GetTemplate returns a template with every version.
func (a *API) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if t, ok := a.template(w, r); ok {
		writeJSON(w, http.StatusOK, t)
	}
}

// UpdateTemplate renames a template or changes its sort category.
func (a *API) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}
	a.ws.EditTemplateGroup(r.Context(), t.ID, req.Name, req.Sort)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTemplate removes a template.
func (a *API) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	a.ws.DeleteTemplateGroup(r.Context(), t.ID)
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateTemplate copies the selected version of a template into a new
// template that starts again at version 0.
func (a *API) DuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	writeCreated(w, string(a.ws.DuplicateTemplateGroup(r.Context(), t.ID)))
}

// SelectTemplateVersion moves a template's read cursor.
func (a *API) SelectTemplateVersion(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	var req struct {
		Version int `json:"version"`
	}
	if !decode(w, r, &req) {
		return
	}
	if _, ok := t.Sections[req.Version]; !ok {
		notFound(w, "version")
		return
	}
	a.ws.SelectTemplateVersion(r.Context(), t.ID, req.Version)
	w.WriteHeader(http.StatusNoContent)
}

// IncrementVersion derives a new head version from the current head.
func (a *API) IncrementVersion(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	v := a.ws.IncrementTemplateGroupVersion(r.Context(), t.ID)
	writeJSON(w, http.StatusCreated, map[string]int{"version": v})
}

// RevertVersion derives a new head version from an earlier version.
func (a *API) RevertVersion(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	var req struct {
		Version int `json:"version"`
	}
	if !decode(w, r, &req) {
		return
	}
	if _, ok := t.Sections[req.Version]; !ok {
		notFound(w, "version")
		return
	}
	v := a.ws.RevertTemplateToPreviousVersion(r.Context(), t.ID, req.Version)
	writeJSON(w, http.StatusCreated, map[string]int{"version": v})
}

// CreateSection appends a section to the head version.
func (a *API) CreateSection(w http.ResponseWriter, r *http.Request) {
	t, ok := a.template(w, r)
	if !ok {
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
	writeCreated(w, string(a.ws.AddTemplateSection(r.Context(), t.ID, req.Name)))
}

// section resolves the template, version and section addressed by the
// URL or writes an error.
func (a *API) section(w http.ResponseWriter, r *http.Request) (models.TemplateGroup, int, models.Section, bool) {
	t, ok := a.template(w, r)
	if !ok {
		return t, 0, models.Section{}, false
	}
	version, ok := versionParam(r)
	if !ok {
		badRequest(w, "Invalid version.")
		return t, 0, models.Section{}, false
	}
	s, ok := t.Sections[version][sectionParam(r)]
	if !ok {
		notFound(w, "section")
		return t, 0, models.Section{}, false
	}
	return t, version, s, true
}

// RenameSection renames a section of the head version.
func (a *API) RenameSection(w http.ResponseWriter, r *http.Request) {
	t, version, s, ok := a.section(w, r)
	if !ok {
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
	writeResult(w, r, a.ws.EditTemplateSection(r.Context(), t.ID, version, s.ID, req.Name))
}

// DeleteSection removes a section of the head version.
func (a *API) DeleteSection(w http.ResponseWriter, r *http.Request) {
	t, version, s, ok := a.section(w, r)
	if !ok {
		return
	}
	writeResult(w, r, a.ws.DeleteTemplateSection(r.Context(), t.ID, version, s.ID))
}

// DuplicateSection copies a section within the head version.
func (a *API) DuplicateSection(w http.ResponseWriter, r *http.Request) {
	t, version, s, ok := a.section(w, r)
	if !ok {
		return
	}
	id, err := a.ws.DuplicateTemplateSection(r.Context(), t.ID, version, s.ID)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeCreated(w, string(id))
}

// MoveSection repositions a section within the head version.
func (a *API) MoveSection(w http.ResponseWriter, r *http.Request) {
	t, version, s, ok := a.section(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, r, a.ws.MoveTemplateSection(r.Context(), t.ID, version, s.ID, req.ToIndex))
}

type sectionItemRequest struct {
	ElementID models.ElementID       `json:"elementId"`
	GroupID   models.GroupID         `json:"groupId"`
	Fields    []models.TemplateField `json:"fields"`
}

// AddSectionItem places an element in a section of the head version.
func (a *API) AddSectionItem(w http.ResponseWriter, r *http.Request) {
	t, version, s, ok := a.section(w, r)
	if !ok {
		return
	}
	var req sectionItemRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := a.ws.Store().Element(req.GroupID, req.ElementID); !ok {
		notFound(w, "element")
		return
	}
	err := a.ws.AddItemToTemplateSection(r.Context(), t.ID, s.ID, req.ElementID, req.GroupID, version, req.Fields)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// sectionItem resolves the section item addressed by the URL.
func (a *API) sectionItem(w http.ResponseWriter, r *http.Request) (models.TemplateGroup, int, models.Section, models.SectionItem, bool) {
	t, version, s, ok := a.section(w, r)
	if !ok {
		return t, 0, s, models.SectionItem{}, false
	}
	i := s.IndexOf(elementParam(r))
	if i < 0 {
		notFound(w, "section item")
		return t, 0, s, models.SectionItem{}, false
	}
	return t, version, s, s.Items[i], true
}

// RemoveSectionItem removes an element from a section of the head version.
func (a *API) RemoveSectionItem(w http.ResponseWriter, r *http.Request) {
	t, version, s, item, ok := a.sectionItem(w, r)
	if !ok {
		return
	}
	writeResult(w, r, a.ws.RemoveItemFromTemplateSection(r.Context(), t.ID, version, s.ID, item.ElementID))
}

// RefreshSectionItemFields reconciles a section item's fields with its
// element's current placeholders.
func (a *API) RefreshSectionItemFields(w http.ResponseWriter, r *http.Request) {
	t, version, s, item, ok := a.sectionItem(w, r)
	if !ok {
		return
	}
	writeResult(w, r, a.ws.UpdateItemFieldsInTemplateSection(r.Context(), t.ID, version, s.ID, item.ElementID))
}

// itemField resolves the section item and the field of it addressed by
// the URL.
func (a *API) itemField(w http.ResponseWriter, r *http.Request) (models.TemplateGroup, int, models.Section, models.SectionItem, models.TemplateFieldID, bool) {
	t, version, s, item, ok := a.sectionItem(w, r)
	if !ok {
		return t, 0, s, item, "", false
	}
	id := fieldParam(r)
	for _, f := range item.Fields {
		if f.TemplateFieldID == id {
			return t, version, s, item, id, true
		}
	}
	notFound(w, "field")
	return t, 0, s, item, "", false
}

// BindField binds a modifier to a field of a section item. Global fields
// bind across the whole template.
func (a *API) BindField(w http.ResponseWriter, r *http.Request) {
	t, version, s, item, fieldID, ok := a.itemField(w, r)
	if !ok {
		return
	}
	var req models.FieldBinding
	if !decode(w, r, &req) {
		return
	}
	if _, ok := a.ws.Store().Modifier(req.ModifierGroupID, req.ModifierID); !ok {
		notFound(w, "modifier")
		return
	}
	writeResult(w, r, a.ws.AddModifierToField(r.Context(), t.ID, version, s.ID, item.ElementID, fieldID, req.ModifierID, req.ModifierGroupID))
}

// UnbindField clears a field's modifier binding.
func (a *API) UnbindField(w http.ResponseWriter, r *http.Request) {
	t, version, s, item, fieldID, ok := a.itemField(w, r)
	if !ok {
		return
	}
	writeResult(w, r, a.ws.RemoveModifierFromField(r.Context(), t.ID, version, s.ID, item.ElementID, fieldID))
}

type dragRequest struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

// DragOver handles an item hovering over another section.
func (a *API) DragOver(w http.ResponseWriter, r *http.Request) {
	a.drag(w, r, false)
}

// DragEnd handles a drop.
func (a *API) DragEnd(w http.ResponseWriter, r *http.Request) {
	a.drag(w, r, true)
}

func (a *API) drag(w http.ResponseWriter, r *http.Request, end bool) {
	t, ok := a.template(w, r)
	if !ok {
		return
	}
	version, ok := versionParam(r)
	if !ok {
		badRequest(w, "Invalid version.")
		return
	}
	var req dragRequest
	if !decode(w, r, &req) {
		return
	}
	if end {
		writeResult(w, r, a.ws.DragEnd(r.Context(), t.ID, version, req.ActiveID, req.OverID))
		return
	}
	writeResult(w, r, a.ws.DragOver(r.Context(), t.ID, version, req.ActiveID, req.OverID))
}
