// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"
	"fmt"
	"slices"

	"promptforge/internal/fields"
	"promptforge/internal/models"
	"promptforge/internal/order"
)

// ItemAttributes is a full write of an element's editable attributes.
// Body is stored under Version. A nil Fields list is re-extracted from
// Body.
type ItemAttributes struct {
	Name    string                 `json:"name"`
	Summary string                 `json:"summary"`
	Body    string                 `json:"body"`
	Fields  []models.TemplateField `json:"fields"`
	Version int                    `json:"version"`
}

// ItemEdit is what an editor submits; SaveItem decides the version.
type ItemEdit struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Body    string `json:"body"`
}

// AddElement creates an element at version 0 with an empty body.
func (w *Workspace) AddElement(ctx context.Context, groupID models.GroupID, name string) models.ElementID {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Group(groupID); !ok {
		w.notFound("AddElement", "group", "group_id", groupID)
		return ""
	}

	now := w.stamp()
	e := models.Element{
		ID:         models.NewID[models.ElementID](),
		Group:      groupID,
		Name:       name,
		Fields:     []models.TemplateField{},
		Labels:     []models.BadgeID{},
		Body:       map[int]string{0: ""},
		Order:      w.store.NextOrder(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	w.store.SetElement(e)
	w.commit(ctx, "AddElement")
	return e.ID
}

// ChangeItemAttributes stores attrs.Body under attrs.Version. Writing the
// head version overwrites it; writing above the head appends a new history
// entry and advances the version counter to it. History below the head is
// immutable and writes to it are rejected.
func (w *Workspace) ChangeItemAttributes(ctx context.Context, groupID models.GroupID, id models.ElementID, attrs ItemAttributes) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("ChangeItemAttributes", "element", "group_id", groupID, "element_id", id)
		return nil
	}
	if attrs.Version < e.VersionCounter {
		return w.reject("ChangeItemAttributes", fmt.Errorf("write to version %d below head %d: %w",
			attrs.Version, e.VersionCounter, ErrVersionLocked), "element_id", id)
	}

	w.writeItem(&e, attrs)
	w.store.SetElement(e)
	w.commit(ctx, "ChangeItemAttributes")
	return nil
}

func (w *Workspace) writeItem(e *models.Element, attrs ItemAttributes) {
	e.Name = attrs.Name
	e.Summary = attrs.Summary
	e.Body[attrs.Version] = attrs.Body
	if attrs.Fields != nil {
		e.Fields = models.CloneFields(attrs.Fields)
	} else {
		e.Fields = fields.Extract(attrs.Body, e.Fields)
	}
	e.VersionCounter = max(e.VersionCounter, attrs.Version)
	e.SelectedVersion = attrs.Version
	e.ModifiedAt = w.stamp()
}

// SaveItem applies an editor's changes. Title or summary edits are stored
// in place; a changed body or placeholder set mints version
// versionCounter+1 and selects it. It returns the selected version.
func (w *Workspace) SaveItem(ctx context.Context, groupID models.GroupID, id models.ElementID, edit ItemEdit) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("SaveItem", "element", "group_id", groupID, "element_id", id)
		return 0
	}

	fresh := fields.Extract(edit.Body, e.Fields)
	bodyChanged := edit.Body != e.SelectedBody() || fields.Changed(e.Fields, fresh)

	switch {
	case bodyChanged:
		w.writeItem(&e, ItemAttributes{
			Name:    edit.Name,
			Summary: edit.Summary,
			Body:    edit.Body,
			Fields:  fresh,
			Version: e.VersionCounter + 1,
		})
	case edit.Name != e.Name || edit.Summary != e.Summary:
		e.Name = edit.Name
		e.Summary = edit.Summary
		e.ModifiedAt = w.stamp()
	default:
		return e.SelectedVersion
	}

	w.store.SetElement(e)
	w.commit(ctx, "SaveItem")
	return e.SelectedVersion
}

// SelectItemVersion moves the element's read cursor to version v.
func (w *Workspace) SelectItemVersion(ctx context.Context, groupID models.GroupID, id models.ElementID, v int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("SelectItemVersion", "element", "group_id", groupID, "element_id", id)
		return
	}
	if _, ok := e.Body[v]; !ok {
		w.notFound("SelectItemVersion", "version", "element_id", id, "version", v)
		return
	}
	e.SelectedVersion = v
	w.store.SetElement(e)
	w.commit(ctx, "SelectItemVersion")
}

// PinItem sets or clears the pinned flag.
func (w *Workspace) PinItem(ctx context.Context, groupID models.GroupID, id models.ElementID, pinned bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("PinItem", "element", "group_id", groupID, "element_id", id)
		return
	}
	e.Pinned = pinned
	e.ModifiedAt = w.stamp()
	w.store.SetElement(e)
	w.commit(ctx, "PinItem")
}

// SetItemLabels replaces the element's badges and brings the group badge
// index in line. Unknown badges are dropped.
func (w *Workspace) SetItemLabels(ctx context.Context, groupID models.GroupID, id models.ElementID, labels []models.BadgeID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("SetItemLabels", "element", "group_id", groupID, "element_id", id)
		return
	}
	e.Labels = w.knownBadges(labels)
	e.ModifiedAt = w.stamp()
	w.store.SetElement(e)
	w.indexLabels(groupID, id, e.Labels)
	w.commit(ctx, "SetItemLabels")
}

// DeleteItem removes the element from every template section, then from
// its group and the group badge index.
func (w *Workspace) DeleteItem(ctx context.Context, groupID models.GroupID, id models.ElementID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.store.HasElement(groupID, id) {
		w.notFound("DeleteItem", "element", "group_id", groupID, "element_id", id)
		return
	}
	removed := w.removeFromTemplates(id)
	w.store.DeleteElement(groupID, id)
	w.indexLabels(groupID, id, nil)

	w.log.Info("element deleted", "element_id", id, "section_items_removed", removed)
	w.commit(ctx, "DeleteItem")
}

// DuplicateItem copies an element within its group as "<name> - Copy",
// carrying the selected body only. Badge associations are re-created for
// the copy.
func (w *Workspace) DuplicateItem(ctx context.Context, groupID models.GroupID, id models.ElementID) models.ElementID {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("DuplicateItem", "element", "group_id", groupID, "element_id", id)
		return ""
	}
	c := w.freshCopy(e, groupID, e.Name+" - Copy")
	w.store.SetElement(c)
	w.indexLabels(groupID, c.ID, c.Labels)
	w.commit(ctx, "DuplicateItem")
	return c.ID
}

// MoveItemToGroup moves an element to another group and repoints every
// section item referencing it. The destination group's badge index is not
// updated; the element is only dropped from the source index.
func (w *Workspace) MoveItemToGroup(ctx context.Context, groupID models.GroupID, id models.ElementID, newGroupID models.GroupID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if groupID == newGroupID {
		return
	}
	e, ok := w.store.Element(groupID, id)
	if !ok {
		w.notFound("MoveItemToGroup", "element", "group_id", groupID, "element_id", id)
		return
	}
	if _, ok := w.store.Group(newGroupID); !ok {
		w.notFound("MoveItemToGroup", "group", "group_id", newGroupID)
		return
	}

	w.rewriteGroupRefs(id, newGroupID)
	e.Group = newGroupID
	e.ModifiedAt = w.stamp()
	w.store.DeleteElement(groupID, id)
	w.store.SetElement(e)
	w.indexLabels(groupID, id, nil)
	w.commit(ctx, "MoveItemToGroup")
}

// MoveItem moves an element to position toIndex within its group.
func (w *Workspace) MoveItem(ctx context.Context, groupID models.GroupID, id models.ElementID, toIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	elements := w.store.Elements(groupID)
	from := slices.IndexFunc(elements, func(e models.Element) bool { return e.ID == id })
	if from < 0 {
		w.notFound("MoveItem", "element", "group_id", groupID, "element_id", id)
		return nil
	}
	keys := make([]float64, len(elements))
	for i, e := range elements {
		keys[i] = e.Order
	}
	key, err := order.Reposition(keys, from, toIndex)
	if err != nil {
		return w.reject("MoveItem", err, "element_id", id)
	}

	e := elements[from]
	e.Order = key
	w.store.SetElement(e)
	w.commit(ctx, "MoveItem")
	return nil
}
