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

// DragKind is the type of a draggable or droppable.
type DragKind int

const (
	DragSection DragKind = iota + 1
	DragItem
)

func (k DragKind) String() string {
	switch k {
	case DragSection:
		return "section"
	case DragItem:
		return "item"
	default:
		return "unknown"
	}
}

// DragID identifies a section ("<sectionID>") or a section item
// ("<sectionID>-<elementID>").
type DragID struct {
	Kind    DragKind
	Section models.SectionID
	Element models.ElementID
}

// String renders the ID in its wire form.
func (d DragID) String() string {
	if d.Kind == DragItem {
		return string(d.Section) + "-" + string(d.Element)
	}
	return string(d.Section)
}

// ParseDragID splits a composite drag ID. IDs are fixed-width UUIDs, so
// the separator sits at a known offset and the UUIDs' own dashes do not
// confuse the split.
func ParseDragID(s string) (DragID, error) {
	const n = models.IDLength
	switch {
	case len(s) == n:
		sid := models.SectionID(s)
		if !models.ValidID(sid) {
			return DragID{}, ErrInvalidDragID
		}
		return DragID{Kind: DragSection, Section: sid}, nil
	case len(s) == 2*n+1 && s[n] == '-':
		sid, eid := models.SectionID(s[:n]), models.ElementID(s[n+1:])
		if !models.ValidID(sid) || !models.ValidID(eid) {
			return DragID{}, ErrInvalidDragID
		}
		return DragID{Kind: DragItem, Section: sid, Element: eid}, nil
	}
	return DragID{}, ErrInvalidDragID
}

// CanDrop reports whether a draggable of kind active may land on a
// droppable of kind over. Sections only drop onto sections; items drop
// onto sections or other items.
func CanDrop(active, over DragKind) bool {
	switch active {
	case DragSection:
		return over == DragSection
	case DragItem:
		return over == DragSection || over == DragItem
	}
	return false
}

func parsePair(activeID, overID string) (DragID, DragID, error) {
	active, err := ParseDragID(activeID)
	if err != nil {
		return DragID{}, DragID{}, err
	}
	over, err := ParseDragID(overID)
	if err != nil {
		return DragID{}, DragID{}, err
	}
	if !CanDrop(active.Kind, over.Kind) {
		return DragID{}, DragID{}, ErrInvalidDrop
	}
	return active, over, nil
}

// DragOver handles an item hovering over another section, or over an
// item in another section: the item moves into that section, ahead of the
// hovered item or at the end. Hovering within the item's own section is a
// no-op; reordering happens on DragEnd.
func (w *Workspace) DragOver(ctx context.Context, tid models.TemplateGroupID, version int, activeID, overID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "DragOver"
	active, over, err := parsePair(activeID, overID)
	if err != nil {
		return w.reject(op, err, "active", activeID, "over", overID)
	}
	if active.Kind != DragItem || active.Section == over.Section {
		return nil
	}
	return w.moveAcross(ctx, op, tid, version, active, over)
}

func (w *Workspace) moveAcross(ctx context.Context, op string, tid models.TemplateGroupID, version int, active, over DragID) error {
	t, src, found, err := w.headSection(op, tid, version, active.Section)
	if err != nil || !found {
		return err
	}
	_, dst, found, err := w.headSection(op, tid, version, over.Section)
	if err != nil || !found {
		return err
	}
	idx := src.IndexOf(active.Element)
	if idx < 0 {
		w.notFound(op, "section item", "section_id", active.Section, "element_id", active.Element)
		return nil
	}
	if dst.IndexOf(active.Element) >= 0 {
		return w.reject(op, ErrDuplicateItem, "section_id", over.Section, "element_id", active.Element)
	}

	sorted := dst.SortedItems()
	at := len(sorted)
	if over.Kind == DragItem {
		if i := slices.IndexFunc(sorted, func(it models.SectionItem) bool { return it.ElementID == over.Element }); i >= 0 {
			at = i
		}
	}
	var before, after *float64
	if at > 0 {
		before = &sorted[at-1].Order
	}
	if at < len(sorted) {
		after = &sorted[at].Order
	}
	key, err := order.Between(before, after)
	if err != nil {
		return w.reject(op, err, "section_id", over.Section)
	}

	item := src.Items[idx]
	item.Order = key
	src.Items = slices.Delete(src.Items, idx, idx+1)
	dst.Items = append(dst.Items, item)
	t.Sections[version][active.Section] = src
	t.Sections[version][over.Section] = dst
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, op)
	return nil
}

// DragEnd completes a drag: the active section or item moves to the
// position of the one it was dropped on. Only the moved record's order key
// is written. An item dropped on an item of another section moves across
// first.
func (w *Workspace) DragEnd(ctx context.Context, tid models.TemplateGroupID, version int, activeID, overID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "DragEnd"
	active, over, err := parsePair(activeID, overID)
	if err != nil {
		return w.reject(op, err, "active", activeID, "over", overID)
	}
	if active == over {
		return nil
	}

	if active.Kind == DragSection {
		t, _, found, err := w.headSection(op, tid, version, active.Section)
		if err != nil || !found {
			return err
		}
		sorted := t.Sections[version].Sorted()
		to := slices.IndexFunc(sorted, func(s models.Section) bool { return s.ID == over.Section })
		if to < 0 {
			w.notFound(op, "section", "template_id", tid, "section_id", over.Section)
			return nil
		}
		if err := w.repositionSection(&t, version, active.Section, to); err != nil {
			return w.reject(op, err, "section_id", active.Section)
		}
		t.ModifiedAt = w.stamp()
		w.store.SetTemplate(t)
		w.commit(ctx, op)
		return nil
	}

	if active.Section != over.Section {
		return w.moveAcross(ctx, op, tid, version, active, over)
	}
	if over.Kind == DragSection {
		return nil
	}

	t, s, found, err := w.headSection(op, tid, version, active.Section)
	if err != nil || !found {
		return err
	}
	sorted := s.SortedItems()
	from := slices.IndexFunc(sorted, func(it models.SectionItem) bool { return it.ElementID == active.Element })
	to := slices.IndexFunc(sorted, func(it models.SectionItem) bool { return it.ElementID == over.Element })
	if from < 0 || to < 0 {
		w.notFound(op, "section item", "section_id", active.Section)
		return nil
	}
	keys := make([]float64, len(sorted))
	for i, it := range sorted {
		keys[i] = it.Order
	}
	key, err := order.Reposition(keys, from, to)
	if err != nil {
		return w.reject(op, err, "section_id", active.Section, "element_id", active.Element)
	}
	idx := s.IndexOf(active.Element)
	s.Items[idx].Order = key
	t.Sections[version][active.Section] = s
	t.ModifiedAt = w.stamp()
	w.store.SetTemplate(t)
	w.commit(ctx, op)
	return nil
}
