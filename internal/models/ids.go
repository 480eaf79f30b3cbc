// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the entity records held by the entity store:
// groups of reusable prompt elements, badges, modifiers and versioned
// templates. Every entity kind has its own identifier type so IDs of
// different kinds cannot be mixed up.
package models

import "github.com/google/uuid"

// Identifier types. Each is a UUID string, but they are distinct types
// so a BadgeID can never be passed where an ElementID is expected.
type (
	GroupID         string
	ElementID       string
	BadgeID         string
	ModifierID      string
	ModifierGroupID string
	TemplateGroupID string
	SectionID       string
	TemplateFieldID string
)

// IDLength is the length of every generated identifier (canonical UUID form).
const IDLength = 36

// ID is the set of identifier types.
type ID interface {
	~string
}

// NewID mints a fresh random identifier of the requested kind.
func NewID[T ID]() T {
	return T(uuid.NewString())
}

// ValidID reports whether s looks like an identifier produced by NewID.
func ValidID[T ID](s T) bool {
	if len(s) != IDLength {
		return false
	}
	_, err := uuid.Parse(string(s))
	return err == nil
}
