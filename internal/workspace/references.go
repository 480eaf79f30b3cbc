// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"slices"

	"promptforge/internal/models"
)

// Cascade helpers. None of them can fail, so a cascade either completes
// for every template or is never started.

// eachItem calls fn for every section item of every version of t and
// reports whether fn changed anything. fn receives a pointer into a copy
// owned by the caller.
func eachItem(t *models.TemplateGroup, fn func(version int, s *models.Section, item *models.SectionItem) bool) bool {
	changed := false
	for v, sections := range t.Sections {
		for sid, s := range sections {
			touched := false
			for i := range s.Items {
				if fn(v, &s, &s.Items[i]) {
					touched = true
				}
			}
			if touched {
				sections[sid] = s
				changed = true
			}
		}
	}
	return changed
}

// removeFromTemplates filters the element out of every section of every
// version of every template.
func (w *Workspace) removeFromTemplates(id models.ElementID) int {
	removed := 0
	for _, t := range w.store.Templates() {
		changed := false
		for _, sections := range t.Sections {
			for sid, s := range sections {
				n := len(s.Items)
				s.Items = slices.DeleteFunc(s.Items, func(item models.SectionItem) bool {
					return item.ElementID == id
				})
				if len(s.Items) != n {
					sections[sid] = s
					removed += n - len(s.Items)
					changed = true
				}
			}
		}
		if changed {
			w.store.SetTemplate(t)
		}
	}
	return removed
}

// rewriteGroupRefs points every section item referencing the element at
// its new owning group.
func (w *Workspace) rewriteGroupRefs(id models.ElementID, groupID models.GroupID) {
	for _, t := range w.store.Templates() {
		changed := eachItem(&t, func(_ int, _ *models.Section, item *models.SectionItem) bool {
			if item.ElementID != id || item.GroupID == groupID {
				return false
			}
			item.GroupID = groupID
			return true
		})
		if changed {
			w.store.SetTemplate(t)
		}
	}
}

// unbindModifiers clears every field binding that points at one of the
// modifiers, in section items, element field lists and the global field
// registries.
func (w *Workspace) unbindModifiers(ids map[models.ModifierID]bool) {
	if len(ids) == 0 {
		return
	}
	unbind := func(fields []models.TemplateField) bool {
		changed := false
		for i := range fields {
			if ids[fields[i].ModifierID] {
				fields[i].ModifierID = ""
				fields[i].ModifierGroupID = ""
				changed = true
			}
		}
		return changed
	}

	for _, t := range w.store.Templates() {
		changed := eachItem(&t, func(_ int, _ *models.Section, item *models.SectionItem) bool {
			return unbind(item.Fields)
		})
		for name, b := range t.GlobalFields {
			if ids[b.ModifierID] {
				delete(t.GlobalFields, name)
				changed = true
			}
		}
		if changed {
			w.store.SetTemplate(t)
		}
	}

	for _, g := range w.store.Groups() {
		for _, e := range w.store.Elements(g.ID) {
			if unbind(e.Fields) {
				w.store.SetElement(e)
			}
		}
	}
}

// indexLabels makes the group's badge index agree with the element's
// labels and prunes references to elements no longer in the group.
// Passing nil labels drops the element from the index.
func (w *Workspace) indexLabels(groupID models.GroupID, id models.ElementID, labels []models.BadgeID) {
	index := w.store.GroupBadges(groupID)
	for bid, ids := range index {
		index[bid] = slices.DeleteFunc(ids, func(x models.ElementID) bool {
			return x == id || !w.store.HasElement(groupID, x)
		})
	}
	for _, bid := range labels {
		if !slices.Contains(index[bid], id) {
			index[bid] = append(index[bid], id)
		}
	}
	for bid, ids := range index {
		if len(ids) == 0 {
			delete(index, bid)
		}
	}
	w.store.SetGroupBadges(groupID, index)
}

// freshCopy builds a new element from e carrying only the selected
// version's body, restarting history at version 0.
func (w *Workspace) freshCopy(e models.Element, groupID models.GroupID, name string) models.Element {
	now := w.stamp()
	c := e.Clone()
	c.ID = models.NewID[models.ElementID]()
	c.Group = groupID
	c.Name = name
	c.Body = map[int]string{0: e.SelectedBody()}
	c.VersionCounter = 0
	c.SelectedVersion = 0
	c.Order = w.store.NextOrder()
	c.CreatedAt = now
	c.ModifiedAt = now
	return c
}

// knownBadges filters labels to registered badges, dropping duplicates.
func (w *Workspace) knownBadges(labels []models.BadgeID) []models.BadgeID {
	out := make([]models.BadgeID, 0, len(labels))
	for _, bid := range labels {
		if _, ok := w.store.Badge(bid); ok && !slices.Contains(out, bid) {
			out = append(out, bid)
		}
	}
	return out
}
