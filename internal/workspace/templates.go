// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"
	"slices"

	"promptforge/internal/fields"
	"promptforge/internal/models"
	"promptforge/internal/order"
)

// AddTemplateGroup creates a template at version 0 with no sections.
func (w *Workspace) AddTemplateGroup(ctx context.Context, name, sort string) models.TemplateGroupID {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.stamp()
	t := models.TemplateGroup{
		ID:           models.NewID[models.TemplateGroupID](),
		Name:         name,
		Sort:         sort,
		Order:        w.store.NextOrder(),
		Sections:     map[int]models.SectionMap{0: {}},
		GlobalFields: map[string]models.FieldBinding{},
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	w.store.SetTemplate(t)
	w.commit(ctx, "AddTemplateGroup")
	return t.ID
}

// EditTemplateGroup renames a template and changes its category tag.
func (w *Workspace) EditTemplateGroup(ctx context.Context, id models.TemplateGroupID, name, sort string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.store.Template(id)
	if !ok {
		w.notFound("EditTemplateGroup", "template", "template_id", id)
		return
	}
	t.Name = name
	t.Sort = sort
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, "EditTemplateGroup")
}

// DeleteTemplateGroup removes a template with all of its versions.
func (w *Workspace) DeleteTemplateGroup(ctx context.Context, id models.TemplateGroupID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Template(id); !ok {
		w.notFound("DeleteTemplateGroup", "template", "template_id", id)
		return
	}
	w.store.DeleteTemplate(id)
	w.commit(ctx, "DeleteTemplateGroup")
}

// DuplicateTemplateGroup copies the selected version of a template into a
// new template starting at version 0. Sections get fresh IDs and are
// unlocked.
func (w *Workspace) DuplicateTemplateGroup(ctx context.Context, id models.TemplateGroupID) models.TemplateGroupID {
	w.mu.Lock()
	defer w.mu.Unlock()

	src, ok := w.store.Template(id)
	if !ok {
		w.notFound("DuplicateTemplateGroup", "template", "template_id", id)
		return ""
	}

	sections := make(models.SectionMap)
	for _, s := range src.Sections[src.SelectedVersion].Sorted() {
		s.ID = models.NewID[models.SectionID]()
		s.IsLocked = false
		sections[s.ID] = s
	}

	now := w.stamp()
	t := src
	t.ID = models.NewID[models.TemplateGroupID]()
	t.Name = src.Name + " - Copy"
	t.Order = w.store.NextOrder()
	t.VersionCounter = 0
	t.SelectedVersion = 0
	t.Sections = map[int]models.SectionMap{0: sections}
	t.CreatedAt = now
	t.ModifiedAt = now
	w.store.SetTemplate(t)
	w.commit(ctx, "DuplicateTemplateGroup")
	return t.ID
}

// SelectTemplateVersion moves the template's read cursor to version v.
func (w *Workspace) SelectTemplateVersion(ctx context.Context, id models.TemplateGroupID, v int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.store.Template(id)
	if !ok {
		w.notFound("SelectTemplateVersion", "template", "template_id", id)
		return
	}
	if _, ok := t.Sections[v]; !ok {
		w.notFound("SelectTemplateVersion", "version", "template_id", id, "version", v)
		return
	}
	t.SelectedVersion = v
	w.store.SetTemplate(t)
	w.commit(ctx, "SelectTemplateVersion")
}

// headSection loads a section for mutation. found is false when something
// did not resolve (already logged). A non-nil error is a policy rejection:
// only unlocked sections of the head version may change.
func (w *Workspace) headSection(op string, tid models.TemplateGroupID, version int, sid models.SectionID) (models.TemplateGroup, models.Section, bool, error) {
	t, ok := w.store.Template(tid)
	if !ok {
		w.notFound(op, "template", "template_id", tid)
		return t, models.Section{}, false, nil
	}
	s, ok := t.Sections[version][sid]
	if !ok {
		w.notFound(op, "section", "template_id", tid, "version", version, "section_id", sid)
		return t, s, false, nil
	}
	if version != t.VersionCounter || s.IsLocked {
		return t, s, true, w.reject(op, ErrVersionLocked, "template_id", tid, "version", version, "head", t.VersionCounter)
	}
	return t, s, true, nil
}

// AddTemplateSection appends a section to the head version. The head
// version map is materialised if absent.
func (w *Workspace) AddTemplateSection(ctx context.Context, tid models.TemplateGroupID, name string) models.SectionID {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.store.Template(tid)
	if !ok {
		w.notFound("AddTemplateSection", "template", "template_id", tid)
		return ""
	}
	head := t.Sections[t.VersionCounter].Clone()
	s := models.Section{
		ID:    models.NewID[models.SectionID](),
		Name:  name,
		Order: w.store.NextOrder(),
		Items: []models.SectionItem{},
	}
	head[s.ID] = s
	t.Sections[t.VersionCounter] = head
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, "AddTemplateSection")
	return s.ID
}

// EditTemplateSection renames a section of the head version.
func (w *Workspace) EditTemplateSection(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, s, found, err := w.headSection("EditTemplateSection", tid, version, sid)
	if err != nil || !found {
		return err
	}
	s.Name = name
	t.Sections[version][sid] = s
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, "EditTemplateSection")
	return nil
}

// DuplicateTemplateSection appends a copy of a section named
// "<name> - Copy" to the same version.
func (w *Workspace) DuplicateTemplateSection(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID) (models.SectionID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, s, found, err := w.headSection("DuplicateTemplateSection", tid, version, sid)
	if err != nil || !found {
		return "", err
	}
	c := s.Clone()
	c.ID = models.NewID[models.SectionID]()
	c.Name = s.Name + " - Copy"
	c.Order = w.store.NextOrder()
	t.Sections[version][c.ID] = c
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, "DuplicateTemplateSection")
	return c.ID, nil
}

// DeleteTemplateSection removes a section from the head version.
func (w *Workspace) DeleteTemplateSection(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, _, found, err := w.headSection("DeleteTemplateSection", tid, version, sid)
	if err != nil || !found {
		return err
	}
	delete(t.Sections[version], sid)
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, "DeleteTemplateSection")
	return nil
}

// MoveTemplateSection moves a section to position toIndex among the
// sections of its version.
func (w *Workspace) MoveTemplateSection(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID, toIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, _, found, err := w.headSection("MoveTemplateSection", tid, version, sid)
	if err != nil || !found {
		return err
	}
	if err := w.repositionSection(&t, version, sid, toIndex); err != nil {
		return w.reject("MoveTemplateSection", err, "template_id", tid, "section_id", sid)
	}
	w.store.SetTemplate(t)
	w.commit(ctx, "MoveTemplateSection")
	return nil
}

func (w *Workspace) repositionSection(t *models.TemplateGroup, version int, sid models.SectionID, toIndex int) error {
	sorted := t.Sections[version].Sorted()
	from := slices.IndexFunc(sorted, func(s models.Section) bool { return s.ID == sid })
	keys := make([]float64, len(sorted))
	for i, s := range sorted {
		keys[i] = s.Order
	}
	key, err := order.Reposition(keys, from, toIndex)
	if err != nil {
		return err
	}
	s := t.Sections[version][sid]
	s.Order = key
	t.Sections[version][sid] = s
	return nil
}

// AddItemToTemplateSection places an element in a section of the head
// version. A nil fields list copies the element's fields. Global fields
// pick up the template's registered bindings.
func (w *Workspace) AddItemToTemplateSection(ctx context.Context, tid models.TemplateGroupID, sid models.SectionID, elementID models.ElementID, groupID models.GroupID, version int, fieldList []models.TemplateField) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "AddItemToTemplateSection"
	if tid == "" || sid == "" {
		return w.reject(op, ErrNoSelection)
	}
	t, ok := w.store.Template(tid)
	if !ok {
		w.notFound(op, "template", "template_id", tid)
		return nil
	}
	if version != t.VersionCounter {
		return w.reject(op, ErrVersionLocked, "template_id", tid, "version", version, "head", t.VersionCounter)
	}
	t, s, found, err := w.headSection(op, tid, version, sid)
	if err != nil || !found {
		return err
	}
	e, ok := w.store.Element(groupID, elementID)
	if !ok {
		w.notFound(op, "element", "group_id", groupID, "element_id", elementID)
		return nil
	}
	if s.IndexOf(elementID) >= 0 {
		return w.reject(op, ErrDuplicateItem, "section_id", sid, "element_id", elementID)
	}

	if fieldList == nil {
		fieldList = e.Fields
	}
	item := models.SectionItem{
		ElementID: elementID,
		GroupID:   groupID,
		Order:     w.store.NextOrder(),
		Fields:    applyGlobalBindings(t, models.CloneFields(fieldList)),
	}
	s.Items = append(s.Items, item)
	t.Sections[version][sid] = s
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, op)
	return nil
}

func applyGlobalBindings(t models.TemplateGroup, list []models.TemplateField) []models.TemplateField {
	for i, f := range list {
		if f.Type != models.FieldTypeGlobal {
			continue
		}
		if b, ok := t.GlobalFields[f.Name]; ok {
			list[i].ModifierID = b.ModifierID
			list[i].ModifierGroupID = b.ModifierGroupID
		}
	}
	return list
}

// RemoveItemFromTemplateSection drops an element from a section of the
// head version.
func (w *Workspace) RemoveItemFromTemplateSection(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID, elementID models.ElementID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "RemoveItemFromTemplateSection"
	t, s, found, err := w.headSection(op, tid, version, sid)
	if err != nil || !found {
		return err
	}
	idx := s.IndexOf(elementID)
	if idx < 0 {
		w.notFound(op, "section item", "section_id", sid, "element_id", elementID)
		return nil
	}
	s.Items = slices.Delete(s.Items, idx, idx+1)
	t.Sections[version][sid] = s
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, op)
	return nil
}

// UpdateItemFieldsInTemplateSection re-extracts the element's head body
// and reconciles the section item's fields against it: retained fields
// keep their bindings, vanished fields are dropped, new ones arrive
// unbound unless the template has a global binding for them.
func (w *Workspace) UpdateItemFieldsInTemplateSection(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID, elementID models.ElementID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "UpdateItemFieldsInTemplateSection"
	t, s, found, err := w.headSection(op, tid, version, sid)
	if err != nil || !found {
		return err
	}
	idx := s.IndexOf(elementID)
	if idx < 0 {
		w.notFound(op, "section item", "section_id", sid, "element_id", elementID)
		return nil
	}
	item := s.Items[idx]
	e, ok := w.store.Element(item.GroupID, elementID)
	if !ok {
		w.notFound(op, "element", "group_id", item.GroupID, "element_id", elementID)
		return nil
	}

	fresh := fields.Extract(e.Body[e.VersionCounter], item.Fields)
	reconciled := fields.Reconcile(item.Fields, fresh)
	s.Items[idx].Fields = applyGlobalBindings(t, reconciled)
	t.Sections[version][sid] = s
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, op)
	return nil
}

// AddModifierToField binds a modifier to a field of a section item. A
// global field's binding is fanned out to every same-named global field in
// every section of every version of the template and recorded in the
// template's global field registry.
func (w *Workspace) AddModifierToField(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID, elementID models.ElementID, fieldID models.TemplateFieldID, modifierID models.ModifierID, modifierGroupID models.ModifierGroupID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Modifier(modifierGroupID, modifierID); !ok {
		w.notFound("AddModifierToField", "modifier", "modifier_group_id", modifierGroupID, "modifier_id", modifierID)
		return nil
	}
	return w.bindField(ctx, "AddModifierToField", tid, version, sid, elementID, fieldID,
		models.FieldBinding{ModifierID: modifierID, ModifierGroupID: modifierGroupID})
}

// RemoveModifierFromField clears a field's binding, with the same fan-out
// as AddModifierToField.
func (w *Workspace) RemoveModifierFromField(ctx context.Context, tid models.TemplateGroupID, version int, sid models.SectionID, elementID models.ElementID, fieldID models.TemplateFieldID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.bindField(ctx, "RemoveModifierFromField", tid, version, sid, elementID, fieldID, models.FieldBinding{})
}

func (w *Workspace) bindField(ctx context.Context, op string, tid models.TemplateGroupID, version int, sid models.SectionID, elementID models.ElementID, fieldID models.TemplateFieldID, b models.FieldBinding) error {
	t, s, found, err := w.headSection(op, tid, version, sid)
	if err != nil || !found {
		return err
	}
	idx := s.IndexOf(elementID)
	if idx < 0 {
		w.notFound(op, "section item", "section_id", sid, "element_id", elementID)
		return nil
	}
	fi := slices.IndexFunc(s.Items[idx].Fields, func(f models.TemplateField) bool { return f.TemplateFieldID == fieldID })
	if fi < 0 {
		w.notFound(op, "field", "element_id", elementID, "field_id", fieldID)
		return nil
	}
	field := s.Items[idx].Fields[fi]

	if field.Type == models.FieldTypeGlobal {
		bound := 0
		eachItem(&t, func(_ int, _ *models.Section, item *models.SectionItem) bool {
			changed := false
			for i := range item.Fields {
				f := &item.Fields[i]
				if f.Type == models.FieldTypeGlobal && f.Name == field.Name {
					f.ModifierID = b.ModifierID
					f.ModifierGroupID = b.ModifierGroupID
					changed = true
					bound++
				}
			}
			return changed
		})
		if b.ModifierID == "" {
			delete(t.GlobalFields, field.Name)
		} else {
			t.GlobalFields[field.Name] = b
		}
		w.log.Debug("global field binding fanned out", "template_id", tid, "field", field.Name, "fields", bound)
	} else {
		s.Items[idx].Fields[fi].ModifierID = b.ModifierID
		s.Items[idx].Fields[fi].ModifierGroupID = b.ModifierGroupID
		t.Sections[version][sid] = s
	}

	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, op)
	return nil
}
