// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"
	"slices"

	"promptforge/internal/models"
)

// AddBadge registers a badge and returns its ID.
func (w *Workspace) AddBadge(ctx context.Context, name, icon string) models.BadgeID {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := models.Badge{ID: models.NewID[models.BadgeID](), Name: name, Icon: icon}
	w.store.SetBadge(b)
	w.commit(ctx, "AddBadge")
	return b.ID
}

// EditBadge renames a badge and changes its icon.
func (w *Workspace) EditBadge(ctx context.Context, id models.BadgeID, name, icon string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.store.Badge(id)
	if !ok {
		w.notFound("EditBadge", "badge", "badge_id", id)
		return
	}
	b.Name = name
	b.Icon = icon
	w.store.SetBadge(b)
	w.commit(ctx, "EditBadge")
}

// DeleteBadge removes a badge from the registry, from every group index
// and from every element carrying it.
func (w *Workspace) DeleteBadge(ctx context.Context, id models.BadgeID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Badge(id); !ok {
		w.notFound("DeleteBadge", "badge", "badge_id", id)
		return
	}
	w.store.DeleteBadge(id)

	for _, gid := range w.store.GroupBadgeIDs() {
		index := w.store.GroupBadges(gid)
		if _, ok := index[id]; ok {
			delete(index, id)
			w.store.SetGroupBadges(gid, index)
		}
	}
	for _, g := range w.store.Groups() {
		for _, e := range w.store.Elements(g.ID) {
			if !e.HasLabel(id) {
				continue
			}
			e.Labels = slices.DeleteFunc(e.Labels, func(b models.BadgeID) bool { return b == id })
			w.store.SetElement(e)
		}
	}
	w.commit(ctx, "DeleteBadge")
}
