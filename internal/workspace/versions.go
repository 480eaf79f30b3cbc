// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"

	"promptforge/internal/models"
)

// Template versions are append-only. Deriving a version copies a source
// version's sections into versionCounter+1, unlocked, and locks the
// source. The previous head is locked too, so every version other than the
// head is read-only.

// IncrementTemplateGroupVersion derives a new head from the current head.
func (w *Workspace) IncrementTemplateGroupVersion(ctx context.Context, id models.TemplateGroupID) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.store.Template(id)
	if !ok {
		w.notFound("IncrementTemplateGroupVersion", "template", "template_id", id)
		return 0
	}
	next := w.derive(&t, t.VersionCounter)
	w.store.SetTemplate(t)

	w.log.Info("template version created", "template_id", id, "version", next)
	w.commit(ctx, "IncrementTemplateGroupVersion")
	return next
}

// RevertTemplateToPreviousVersion derives a new head from version target.
// An unknown target is a no-op.
func (w *Workspace) RevertTemplateToPreviousVersion(ctx context.Context, id models.TemplateGroupID, target int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.store.Template(id)
	if !ok {
		w.notFound("RevertTemplateToPreviousVersion", "template", "template_id", id)
		return 0
	}
	if _, ok := t.Sections[target]; !ok {
		w.notFound("RevertTemplateToPreviousVersion", "version", "template_id", id, "version", target)
		return t.VersionCounter
	}
	next := w.derive(&t, target)
	w.store.SetTemplate(t)

	w.log.Info("template reverted", "template_id", id, "from", target, "version", next)
	w.commit(ctx, "RevertTemplateToPreviousVersion")
	return next
}

func (w *Workspace) derive(t *models.TemplateGroup, src int) int {
	next := t.VersionCounter + 1

	head := t.Sections[src].Clone()
	for sid, s := range head {
		s.IsLocked = false
		head[sid] = s
	}

	lockVersion(t, src)
	lockVersion(t, t.VersionCounter)

	t.Sections[next] = head
	t.VersionCounter = next
	t.SelectedVersion = next
	t.ModifiedAt = w.stamp()
	return next
}

func lockVersion(t *models.TemplateGroup, v int) {
	sections, ok := t.Sections[v]
	if !ok {
		return
	}
	for sid, s := range sections {
		s.IsLocked = true
		sections[sid] = s
	}
}
