// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// FieldType distinguishes placeholders bound per placement from those
// bound once for a whole template.
type FieldType string

const (
	// FieldTypeLocal is a {{name}} placeholder, bound per section item.
	FieldTypeLocal FieldType = "local"
	// FieldTypeGlobal is a ${{name}} placeholder, bound template-wide by name.
	FieldTypeGlobal FieldType = "global"
)

// TemplateField is a named placeholder extracted from an element body,
// optionally bound to a modifier.
type TemplateField struct {
	TemplateFieldID TemplateFieldID `json:"templateFieldId"`
	Name            string          `json:"name"`
	Type            FieldType       `json:"type"`
	ModifierID      ModifierID      `json:"modifierId"`
	ModifierGroupID ModifierGroupID `json:"modifierGroupId"`
	Order           int             `json:"order"`
}

// Bound reports whether a modifier is attached to the field.
func (f TemplateField) Bound() bool {
	return f.ModifierID != ""
}

// CloneFields copies a field list into new backing storage.
func CloneFields(fields []TemplateField) []TemplateField {
	if fields == nil {
		return []TemplateField{}
	}
	return slices.Clone(fields)
}

// FieldBinding is the modifier attached to a global field name.
type FieldBinding struct {
	ModifierID      ModifierID      `json:"modifierId"`
	ModifierGroupID ModifierGroupID `json:"modifierGroupId"`
}

// SectionItem places an element inside a section together with the field
// bindings specific to that placement.
type SectionItem struct {
	ElementID ElementID       `json:"elementId"`
	GroupID   GroupID         `json:"groupId"`
	Order     float64         `json:"order"`
	Fields    []TemplateField `json:"fields"`
}

// Clone returns a copy of the item with its own field slice.
func (i SectionItem) Clone() SectionItem {
	c := i
	c.Fields = CloneFields(i.Fields)
	return c
}

// Section is an ordered list of element references within one template
// version. An element appears at most once per section.
type Section struct {
	ID       SectionID     `json:"id"`
	Name     string        `json:"name"`
	Order    float64       `json:"order"`
	IsLocked bool          `json:"isLocked"`
	Items    []SectionItem `json:"items"`
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	c := s
	c.Items = make([]SectionItem, len(s.Items))
	for i, item := range s.Items {
		c.Items[i] = item.Clone()
	}
	return c
}

// IndexOf returns the position of the element in the section's item list,
// or -1 when it is not present.
func (s Section) IndexOf(id ElementID) int {
	return slices.IndexFunc(s.Items, func(item SectionItem) bool {
		return item.ElementID == id
	})
}

// SortedItems returns a copy of the items ordered by their order key.
func (s Section) SortedItems() []SectionItem {
	items := s.Clone().Items
	sort.SliceStable(items, func(a, b int) bool { return items[a].Order < items[b].Order })
	return items
}

// SectionMap is the set of sections of one template version.
type SectionMap map[SectionID]Section

// Clone deep-copies every section in the map.
func (m SectionMap) Clone() SectionMap {
	c := make(SectionMap, len(m))
	for id, s := range m {
		c[id] = s.Clone()
	}
	return c
}

// Sorted returns the sections ordered by their order key.
func (m SectionMap) Sorted() []Section {
	out := make([]Section, 0, len(m))
	for _, s := range m {
		out = append(out, s.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Order == out[b].Order {
			return out[a].ID < out[b].ID
		}
		return out[a].Order < out[b].Order
	})
	return out
}

// TemplateGroup is a versioned composition of sections. Every version in
// Sections is a full snapshot, not a diff. GlobalFields records the
// modifier bound to each global field name across the whole template.
type TemplateGroup struct {
	ID              TemplateGroupID         `json:"id"`
	Name            string                  `json:"name"`
	Sort            string                  `json:"sort"`
	Order           float64                 `json:"order"`
	VersionCounter  int                     `json:"versionCounter"`
	SelectedVersion int                     `json:"selectedVersion"`
	Sections        map[int]SectionMap      `json:"sections"`
	GlobalFields    map[string]FieldBinding `json:"globalFields"`
	CreatedAt       time.Time               `json:"date_created"`
	ModifiedAt      time.Time               `json:"date_modified"`
}

// Clone returns a deep copy of the template including every version.
func (t TemplateGroup) Clone() TemplateGroup {
	c := t
	c.Sections = make(map[int]SectionMap, len(t.Sections))
	for v, m := range t.Sections {
		c.Sections[v] = m.Clone()
	}
	c.GlobalFields = maps.Clone(t.GlobalFields)
	if c.GlobalFields == nil {
		c.GlobalFields = map[string]FieldBinding{}
	}
	return c
}

// Versions returns the stored version numbers in ascending order.
func (t TemplateGroup) Versions() []int {
	return slices.Sorted(maps.Keys(t.Sections))
}

// Head returns the section map of the newest version.
func (t TemplateGroup) Head() SectionMap {
	return t.Sections[t.VersionCounter]
}
