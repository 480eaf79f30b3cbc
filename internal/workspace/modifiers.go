// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"

	"promptforge/internal/models"
)

// AddModifierGroup creates an empty modifier group.
func (w *Workspace) AddModifierGroup(ctx context.Context, name string) models.ModifierGroupID {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.stamp()
	g := models.ModifierGroup{
		ID:         models.NewID[models.ModifierGroupID](),
		Name:       name,
		Order:      w.store.NextOrder(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	w.store.SetModifierGroup(g)
	w.commit(ctx, "AddModifierGroup")
	return g.ID
}

// NameChangeModifierGroup renames a modifier group.
func (w *Workspace) NameChangeModifierGroup(ctx context.Context, id models.ModifierGroupID, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g, ok := w.store.ModifierGroup(id)
	if !ok {
		w.notFound("NameChangeModifierGroup", "modifier group", "modifier_group_id", id)
		return
	}
	g.Name = name
	g.ModifiedAt = w.stamp()
	w.store.SetModifierGroup(g)
	w.commit(ctx, "NameChangeModifierGroup")
}

// DeleteModifierGroup removes the group with its modifiers and unbinds
// every field that pointed at one of them.
func (w *Workspace) DeleteModifierGroup(ctx context.Context, id models.ModifierGroupID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.ModifierGroup(id); !ok {
		w.notFound("DeleteModifierGroup", "modifier group", "modifier_group_id", id)
		return
	}
	ids := make(map[models.ModifierID]bool)
	for _, m := range w.store.Modifiers(id) {
		ids[m.ID] = true
	}
	w.store.DeleteModifierGroup(id)
	w.unbindModifiers(ids)
	w.commit(ctx, "DeleteModifierGroup")
}

// AddModifier creates a modifier in the group.
func (w *Workspace) AddModifier(ctx context.Context, groupID models.ModifierGroupID, name, text, summary string) models.ModifierID {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.ModifierGroup(groupID); !ok {
		w.notFound("AddModifier", "modifier group", "modifier_group_id", groupID)
		return ""
	}

	now := w.stamp()
	m := models.Modifier{
		ID:              models.NewID[models.ModifierID](),
		Name:            name,
		ModifierGroupID: groupID,
		Modifier:        text,
		Summary:         summary,
		Order:           w.store.NextOrder(),
		CreatedAt:       now,
		ModifiedAt:      now,
	}
	w.store.SetModifier(m)
	w.commit(ctx, "AddModifier")
	return m.ID
}

// ChangeModifierAttributes updates a modifier's name, text and summary.
func (w *Workspace) ChangeModifierAttributes(ctx context.Context, groupID models.ModifierGroupID, id models.ModifierID, name, text, summary string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.store.Modifier(groupID, id)
	if !ok {
		w.notFound("ChangeModifierAttributes", "modifier", "modifier_group_id", groupID, "modifier_id", id)
		return
	}
	m.Name = name
	m.Modifier = text
	m.Summary = summary
	m.ModifiedAt = w.stamp()
	w.store.SetModifier(m)
	w.commit(ctx, "ChangeModifierAttributes")
}

// DeleteModifier removes a modifier and unbinds every field pointing at it.
func (w *Workspace) DeleteModifier(ctx context.Context, groupID models.ModifierGroupID, id models.ModifierID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Modifier(groupID, id); !ok {
		w.notFound("DeleteModifier", "modifier", "modifier_group_id", groupID, "modifier_id", id)
		return
	}
	w.store.DeleteModifier(groupID, id)
	w.unbindModifiers(map[models.ModifierID]bool{id: true})
	w.commit(ctx, "DeleteModifier")
}
