// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store holds the in-memory entity graph: groups and their
// elements, badges and the per-group badge index, modifier groups and
// modifiers, and versioned templates. Records are stored by value and
// every read hands out a deep copy, so the only way to change a record is
// to write a whole new one back (copy-on-write). Observers are notified
// synchronously after each write.
package store

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"promptforge/internal/models"
	"promptforge/internal/order"
)

// Store is the entity store. It is constructed once per process and shared
// by reference with the workspace and any observers.
type Store struct {
	mu             sync.RWMutex
	groups         map[models.GroupID]models.Group
	items          map[models.GroupID]map[models.ElementID]models.Element
	badges         map[models.BadgeID]models.Badge
	groupBadges    map[models.GroupID]map[models.BadgeID][]models.ElementID
	templates      map[models.TemplateGroupID]models.TemplateGroup
	modifierGroups map[models.ModifierGroupID]models.ModifierGroup
	modifiers      map[models.ModifierGroupID]map[models.ModifierID]models.Modifier
	order          *order.Generator

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		order:     order.NewGenerator(),
		observers: make(map[int]Observer),
	}
	s.clear()
	return s
}

// clear replaces every map with an empty one. Caller holds mu (or owns s).
func (s *Store) clear() {
	s.groups = make(map[models.GroupID]models.Group)
	s.items = make(map[models.GroupID]map[models.ElementID]models.Element)
	s.badges = make(map[models.BadgeID]models.Badge)
	s.groupBadges = make(map[models.GroupID]map[models.BadgeID][]models.ElementID)
	s.templates = make(map[models.TemplateGroupID]models.TemplateGroup)
	s.modifierGroups = make(map[models.ModifierGroupID]models.ModifierGroup)
	s.modifiers = make(map[models.ModifierGroupID]map[models.ModifierID]models.Modifier)
	s.order.Reset(order.Seed)
}

// Reset empties the store and rewinds the order counter.
func (s *Store) Reset() {
	s.mu.Lock()
	s.clear()
	s.mu.Unlock()
	s.notify(Event{Kind: KindAll, Op: OpReset})
}

// NextOrder returns the next order key for a new entity.
func (s *Store) NextOrder() float64 {
	return s.order.Next()
}

// --- Groups ---

// Group returns a copy of the group record.
func (s *Store) Group(id models.GroupID) (models.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g.Clone(), ok
}

// Groups returns all groups ordered by their order key.
func (s *Store) Groups() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		return lessOrder(out[a].Order, out[b].Order, string(out[a].ID), string(out[b].ID))
	})
	return out
}

// SetGroup writes the group record. A group always has an element map,
// possibly empty.
func (s *Store) SetGroup(g models.Group) {
	s.mu.Lock()
	s.groups[g.ID] = g.Clone()
	if _, ok := s.items[g.ID]; !ok {
		s.items[g.ID] = make(map[models.ElementID]models.Element)
	}
	s.mu.Unlock()
	s.notify(Event{Kind: KindGroup, Op: OpSet, ID: string(g.ID)})
}

// DeleteGroup removes the group record, its element map and its badge
// index.
func (s *Store) DeleteGroup(id models.GroupID) {
	s.mu.Lock()
	delete(s.groups, id)
	delete(s.items, id)
	delete(s.groupBadges, id)
	s.mu.Unlock()
	s.notify(Event{Kind: KindGroup, Op: OpDelete, ID: string(id)})
}

// --- Elements ---

// Element returns a copy of an element of the group.
func (s *Store) Element(groupID models.GroupID, id models.ElementID) (models.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[groupID][id]
	if !ok {
		return models.Element{}, false
	}
	return e.Clone(), true
}

// Elements returns the elements of a group ordered by their order key.
func (s *Store) Elements(groupID models.GroupID) []models.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Element, 0, len(s.items[groupID]))
	for _, e := range s.items[groupID] {
		out = append(out, e.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		return lessOrder(out[a].Order, out[b].Order, string(out[a].ID), string(out[b].ID))
	})
	return out
}

// FindElement looks an element up by ID across all groups.
func (s *Store) FindElement(id models.ElementID) (models.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.items {
		if e, ok := m[id]; ok {
			return e.Clone(), true
		}
	}
	return models.Element{}, false
}

// HasElement reports whether the group's element map contains id.
func (s *Store) HasElement(groupID models.GroupID, id models.ElementID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[groupID][id]
	return ok
}

// SetElement writes the element into the map of its owning group.
func (s *Store) SetElement(e models.Element) {
	s.mu.Lock()
	m, ok := s.items[e.Group]
	if !ok {
		m = make(map[models.ElementID]models.Element)
		s.items[e.Group] = m
	}
	m[e.ID] = e.Clone()
	s.mu.Unlock()
	s.notify(Event{Kind: KindElement, Op: OpSet, ID: string(e.ID), Parent: string(e.Group)})
}

// DeleteElement removes the element from the group's element map.
func (s *Store) DeleteElement(groupID models.GroupID, id models.ElementID) {
	s.mu.Lock()
	delete(s.items[groupID], id)
	s.mu.Unlock()
	s.notify(Event{Kind: KindElement, Op: OpDelete, ID: string(id), Parent: string(groupID)})
}

// --- Badges ---

// Badge returns a badge from the registry.
func (s *Store) Badge(id models.BadgeID) (models.Badge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.badges[id]
	return b, ok
}

// Badges returns the badge registry ordered by name.
func (s *Store) Badges() []models.Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.badges))
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Name == out[b].Name {
			return out[a].ID < out[b].ID
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// SetBadge writes a badge into the registry.
func (s *Store) SetBadge(b models.Badge) {
	s.mu.Lock()
	s.badges[b.ID] = b
	s.mu.Unlock()
	s.notify(Event{Kind: KindBadge, Op: OpSet, ID: string(b.ID)})
}

// DeleteBadge removes a badge from the registry only; callers clean up
// the group index and element labels.
func (s *Store) DeleteBadge(id models.BadgeID) {
	s.mu.Lock()
	delete(s.badges, id)
	s.mu.Unlock()
	s.notify(Event{Kind: KindBadge, Op: OpDelete, ID: string(id)})
}

// GroupBadges returns a copy of the group's badge→elements index.
func (s *Store) GroupBadges(groupID models.GroupID) map[models.BadgeID][]models.ElementID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBadgeIndex(s.groupBadges[groupID])
}

// GroupBadgeIDs returns the groups that have a badge index.
func (s *Store) GroupBadgeIDs() []models.GroupID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.groupBadges))
}

// SetGroupBadges replaces the group's badge index.
func (s *Store) SetGroupBadges(groupID models.GroupID, index map[models.BadgeID][]models.ElementID) {
	s.mu.Lock()
	s.groupBadges[groupID] = cloneBadgeIndex(index)
	s.mu.Unlock()
	s.notify(Event{Kind: KindGroupBadge, Op: OpSet, ID: string(groupID)})
}

func cloneBadgeIndex(index map[models.BadgeID][]models.ElementID) map[models.BadgeID][]models.ElementID {
	out := make(map[models.BadgeID][]models.ElementID, len(index))
	for k, v := range index {
		out[k] = slices.Clone(v)
	}
	return out
}

// --- Templates ---

// Template returns a deep copy of the template.
func (s *Store) Template(id models.TemplateGroupID) (models.TemplateGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return models.TemplateGroup{}, false
	}
	return t.Clone(), true
}

// Templates returns all templates ordered by their order key.
func (s *Store) Templates() []models.TemplateGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TemplateGroup, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		return lessOrder(out[a].Order, out[b].Order, string(out[a].ID), string(out[b].ID))
	})
	return out
}

// SetTemplate writes the template record.
func (s *Store) SetTemplate(t models.TemplateGroup) {
	s.mu.Lock()
	s.templates[t.ID] = t.Clone()
	s.mu.Unlock()
	s.notify(Event{Kind: KindTemplate, Op: OpSet, ID: string(t.ID)})
}

// DeleteTemplate removes the template with all its versions.
func (s *Store) DeleteTemplate(id models.TemplateGroupID) {
	s.mu.Lock()
	delete(s.templates, id)
	s.mu.Unlock()
	s.notify(Event{Kind: KindTemplate, Op: OpDelete, ID: string(id)})
}

// --- Modifiers ---

// ModifierGroup returns a modifier group record.
func (s *Store) ModifierGroup(id models.ModifierGroupID) (models.ModifierGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.modifierGroups[id]
	return g, ok
}

// ModifierGroups returns all modifier groups ordered by their order key.
func (s *Store) ModifierGroups() []models.ModifierGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.modifierGroups))
	sort.SliceStable(out, func(a, b int) bool {
		return lessOrder(out[a].Order, out[b].Order, string(out[a].ID), string(out[b].ID))
	})
	return out
}

// SetModifierGroup writes the modifier group record.
func (s *Store) SetModifierGroup(g models.ModifierGroup) {
	s.mu.Lock()
	s.modifierGroups[g.ID] = g
	if _, ok := s.modifiers[g.ID]; !ok {
		s.modifiers[g.ID] = make(map[models.ModifierID]models.Modifier)
	}
	s.mu.Unlock()
	s.notify(Event{Kind: KindModifierGroup, Op: OpSet, ID: string(g.ID)})
}

// DeleteModifierGroup removes the group and all of its modifiers.
func (s *Store) DeleteModifierGroup(id models.ModifierGroupID) {
	s.mu.Lock()
	delete(s.modifierGroups, id)
	delete(s.modifiers, id)
	s.mu.Unlock()
	s.notify(Event{Kind: KindModifierGroup, Op: OpDelete, ID: string(id)})
}

// Modifier returns a modifier of the group.
func (s *Store) Modifier(groupID models.ModifierGroupID, id models.ModifierID) (models.Modifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modifiers[groupID][id]
	return m, ok
}

// FindModifier looks a modifier up by ID across all groups.
func (s *Store) FindModifier(id models.ModifierID) (models.Modifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.modifiers {
		if mod, ok := m[id]; ok {
			return mod, true
		}
	}
	return models.Modifier{}, false
}

// Modifiers returns the modifiers of a group ordered by their order key.
func (s *Store) Modifiers(groupID models.ModifierGroupID) []models.Modifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.modifiers[groupID]))
	sort.SliceStable(out, func(a, b int) bool {
		return lessOrder(out[a].Order, out[b].Order, string(out[a].ID), string(out[b].ID))
	})
	return out
}

// SetModifier writes a modifier into its group's map.
func (s *Store) SetModifier(m models.Modifier) {
	s.mu.Lock()
	mm, ok := s.modifiers[m.ModifierGroupID]
	if !ok {
		mm = make(map[models.ModifierID]models.Modifier)
		s.modifiers[m.ModifierGroupID] = mm
	}
	mm[m.ID] = m
	s.mu.Unlock()
	s.notify(Event{Kind: KindModifier, Op: OpSet, ID: string(m.ID), Parent: string(m.ModifierGroupID)})
}

// DeleteModifier removes a modifier from its group.
func (s *Store) DeleteModifier(groupID models.ModifierGroupID, id models.ModifierID) {
	s.mu.Lock()
	delete(s.modifiers[groupID], id)
	s.mu.Unlock()
	s.notify(Event{Kind: KindModifier, Op: OpDelete, ID: string(id), Parent: string(groupID)})
}

// Stats counts the records held by the store.
type Stats struct {
	Groups         int `json:"groups"`
	Elements       int `json:"elements"`
	Badges         int `json:"badges"`
	Templates      int `json:"templates"`
	ModifierGroups int `json:"modifier_groups"`
	Modifiers      int `json:"modifiers"`
}

// Stats returns record counts for health reporting.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Groups:         len(s.groups),
		Badges:         len(s.badges),
		Templates:      len(s.templates),
		ModifierGroups: len(s.modifierGroups),
	}
	for _, m := range s.items {
		st.Elements += len(m)
	}
	for _, m := range s.modifiers {
		st.Modifiers += len(m)
	}
	return st
}

// lessOrder orders by key, breaking ties by ID so listings are stable.
func lessOrder(a, b float64, idA, idB string) bool {
	if a == b {
		return idA < idB
	}
	return a < b
}
