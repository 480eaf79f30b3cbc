// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"maps"
	"slices"
	"time"
)

// GroupStatus is the lifecycle flag of a group.
type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "active"
	GroupStatusArchived GroupStatus = "archived"
)

// Group is a named collection of elements with a category tag.
type Group struct {
	ID         GroupID     `json:"id"`
	Name       string      `json:"name"`
	Order      float64     `json:"order"`
	Sort       string      `json:"sort"`
	Status     GroupStatus `json:"status"`
	CreatedAt  time.Time   `json:"date_created"`
	ModifiedAt time.Time   `json:"date_modified"`
}

// Clone returns a copy of the group. Groups hold no reference types, so
// this is a plain value copy; it exists for symmetry with the other records.
func (g Group) Clone() Group {
	return g
}

// Element is a reusable, versioned text fragment belonging to a group.
// Body holds the text of every version ever created, keyed by version
// number. VersionCounter is the newest version; SelectedVersion is the one
// currently being viewed and may point at history.
type Element struct {
	ID              ElementID       `json:"id"`
	Group           GroupID         `json:"group"`
	Name            string          `json:"name"`
	Summary         string          `json:"summary"`
	Fields          []TemplateField `json:"fields"`
	Labels          []BadgeID       `json:"labels"`
	VersionCounter  int             `json:"versionCounter"`
	SelectedVersion int             `json:"selectedVersion"`
	Body            map[int]string  `json:"body"`
	Pinned          bool            `json:"pinned"`
	Order           float64         `json:"order"`
	CreatedAt       time.Time       `json:"date_created"`
	ModifiedAt      time.Time       `json:"date_modified"`
}

// Clone returns a deep copy of the element: body history, fields and
// labels get fresh backing storage.
func (e Element) Clone() Element {
	c := e
	c.Body = maps.Clone(e.Body)
	if c.Body == nil {
		c.Body = map[int]string{}
	}
	c.Fields = CloneFields(e.Fields)
	c.Labels = slices.Clone(e.Labels)
	return c
}

// SelectedBody returns the text of the selected version, falling back to
// the head version when the cursor points at a missing entry.
func (e Element) SelectedBody() string {
	if text, ok := e.Body[e.SelectedVersion]; ok {
		return text
	}
	return e.Body[e.VersionCounter]
}

// HasLabel reports whether the element carries the badge.
func (e Element) HasLabel(id BadgeID) bool {
	return slices.Contains(e.Labels, id)
}

// Badge is a tag attachable to elements.
type Badge struct {
	ID   BadgeID `json:"id"`
	Name string  `json:"name"`
	Icon string  `json:"icon"`
}
