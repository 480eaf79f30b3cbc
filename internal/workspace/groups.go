// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"
	"slices"

	"promptforge/internal/models"
	"promptforge/internal/order"
)

// AddGroup creates an empty active group and returns its ID.
func (w *Workspace) AddGroup(ctx context.Context, name, sort string) models.GroupID {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.stamp()
	g := models.Group{
		ID:         models.NewID[models.GroupID](),
		Name:       name,
		Sort:       sort,
		Status:     models.GroupStatusActive,
		Order:      w.store.NextOrder(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	w.store.SetGroup(g)
	w.commit(ctx, "AddGroup")
	return g.ID
}

// NameChangeGroup renames a group.
func (w *Workspace) NameChangeGroup(ctx context.Context, id models.GroupID, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g, ok := w.store.Group(id)
	if !ok {
		w.notFound("NameChangeGroup", "group", "group_id", id)
		return
	}
	g.Name = name
	g.ModifiedAt = w.stamp()
	w.store.SetGroup(g)
	w.commit(ctx, "NameChangeGroup")
}

// ChangeGroupStatus sets the lifecycle flag of a group.
func (w *Workspace) ChangeGroupStatus(ctx context.Context, id models.GroupID, status models.GroupStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g, ok := w.store.Group(id)
	if !ok {
		w.notFound("ChangeGroupStatus", "group", "group_id", id)
		return
	}
	g.Status = status
	g.ModifiedAt = w.stamp()
	w.store.SetGroup(g)
	w.commit(ctx, "ChangeGroupStatus")
}

// DeleteGroup removes a group with all of its elements. Every element is
// first removed from every template section.
func (w *Workspace) DeleteGroup(ctx context.Context, id models.GroupID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Group(id); !ok {
		w.notFound("DeleteGroup", "group", "group_id", id)
		return
	}
	removed := 0
	elements := w.store.Elements(id)
	for _, e := range elements {
		removed += w.removeFromTemplates(e.ID)
	}
	w.store.DeleteGroup(id)

	w.log.Info("group deleted", "group_id", id, "elements", len(elements), "section_items_removed", removed)
	w.commit(ctx, "DeleteGroup")
}

// DuplicateGroup copies a group and all of its elements. The copied
// elements keep their names and carry only their selected body, with
// history restarting at version 0. Badge associations are re-created in
// the new group's index.
func (w *Workspace) DuplicateGroup(ctx context.Context, id models.GroupID) models.GroupID {
	w.mu.Lock()
	defer w.mu.Unlock()

	src, ok := w.store.Group(id)
	if !ok {
		w.notFound("DuplicateGroup", "group", "group_id", id)
		return ""
	}

	now := w.stamp()
	g := src
	g.ID = models.NewID[models.GroupID]()
	g.Name = src.Name + " - Copy"
	g.Order = w.store.NextOrder()
	g.CreatedAt = now
	g.ModifiedAt = now
	w.store.SetGroup(g)

	index := make(map[models.BadgeID][]models.ElementID)
	for _, e := range w.store.Elements(id) {
		c := w.freshCopy(e, g.ID, e.Name)
		w.store.SetElement(c)
		for _, bid := range c.Labels {
			if !slices.Contains(index[bid], c.ID) {
				index[bid] = append(index[bid], c.ID)
			}
		}
	}
	if len(index) > 0 {
		w.store.SetGroupBadges(g.ID, index)
	}

	w.commit(ctx, "DuplicateGroup")
	return g.ID
}

// MoveGroup moves a group to position toIndex of the ordered group list.
// Only the moved group's order key changes.
func (w *Workspace) MoveGroup(ctx context.Context, id models.GroupID, toIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	groups := w.store.Groups()
	from := slices.IndexFunc(groups, func(g models.Group) bool { return g.ID == id })
	if from < 0 {
		w.notFound("MoveGroup", "group", "group_id", id)
		return nil
	}
	keys := make([]float64, len(groups))
	for i, g := range groups {
		keys[i] = g.Order
	}
	key, err := order.Reposition(keys, from, toIndex)
	if err != nil {
		return w.reject("MoveGroup", err, "group_id", id)
	}

	g := groups[from]
	g.Order = key
	w.store.SetGroup(g)
	w.commit(ctx, "MoveGroup")
	return nil
}
