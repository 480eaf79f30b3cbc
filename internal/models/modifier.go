// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ModifierGroup is a named collection of modifiers.
type ModifierGroup struct {
	ID         ModifierGroupID `json:"id"`
	Name       string          `json:"name"`
	Order      float64         `json:"order"`
	CreatedAt  time.Time       `json:"date_created"`
	ModifiedAt time.Time       `json:"date_modified"`
}

// Modifier is a named text snippet that fills a field's placeholder at
// render time.
type Modifier struct {
	ID              ModifierID      `json:"id"`
	Name            string          `json:"name"`
	ModifierGroupID ModifierGroupID `json:"modifierGroupId"`
	Modifier        string          `json:"modifier"`
	Summary         string          `json:"summary"`
	Order           float64         `json:"order"`
	CreatedAt       time.Time       `json:"date_created"`
	ModifiedAt      time.Time       `json:"date_modified"`
}
