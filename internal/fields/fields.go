// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fields extracts template fields from element bodies and resolves
// them back into text. A body may contain local placeholders ({{name}}),
// bound per section item, and global placeholders (${{name}}), bound once
// per template.
package fields

import (
	"regexp"
	"strings"

	"promptforge/internal/models"
)

// placeholder matches ${{name}} and {{name}}. The optional leading $ marks
// a global field. Names may carry surrounding whitespace inside the braces.
var placeholder = regexp.MustCompile(`(\$?)\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

type fieldKey struct {
	name string
	typ  models.FieldType
}

// Extract scans body for placeholders in order of first appearance. A field
// matching an entry in previous by name and kind keeps that entry's
// identity and modifier binding; failing that, an unclaimed entry with the
// same name is reused. Re-extracting an edited body therefore does not
// orphan bindings unless the field is renamed.
func Extract(body string, previous []models.TemplateField) []models.TemplateField {
	var keys []fieldKey
	seen := make(map[fieldKey]bool)
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		key := fieldKey{name: m[2], typ: kindOf(m[1])}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	matched := make([]int, len(keys))
	claimed := make([]bool, len(previous))
	for i, key := range keys {
		matched[i] = claim(previous, claimed, func(f models.TemplateField) bool {
			return f.Name == key.name && f.Type == key.typ
		})
	}
	for i, key := range keys {
		if matched[i] < 0 {
			matched[i] = claim(previous, claimed, func(f models.TemplateField) bool {
				return f.Name == key.name
			})
		}
	}

	out := make([]models.TemplateField, 0, len(keys))
	for i, key := range keys {
		f := models.TemplateField{
			TemplateFieldID: models.NewID[models.TemplateFieldID](),
			Name:            key.name,
			Type:            key.typ,
			Order:           i,
		}
		if j := matched[i]; j >= 0 {
			f.TemplateFieldID = previous[j].TemplateFieldID
			f.ModifierID = previous[j].ModifierID
			f.ModifierGroupID = previous[j].ModifierGroupID
		}
		out = append(out, f)
	}
	return out
}

// claim returns the index of the first unclaimed entry of previous that
// satisfies match and marks it claimed, or -1.
func claim(previous []models.TemplateField, claimed []bool, match func(models.TemplateField) bool) int {
	for j, f := range previous {
		if !claimed[j] && match(f) {
			claimed[j] = true
			return j
		}
	}
	return -1
}

func kindOf(prefix string) models.FieldType {
	if prefix == "$" {
		return models.FieldTypeGlobal
	}
	return models.FieldTypeLocal
}

// Key is the lookup key Substitute uses for a field: the name, prefixed
// with "$" for globals, so a local and a global field sharing a name
// resolve independently.
func Key(name string, typ models.FieldType) string {
	if typ == models.FieldTypeGlobal {
		return "$" + name
	}
	return name
}

// Reconcile re-synchronises the field list of a section item against a
// freshly extracted list. Fields present in both (matched by ID) keep
// their current modifier binding, vanished fields are dropped and new ones
// arrive unbound.
func Reconcile(current, fresh []models.TemplateField) []models.TemplateField {
	bound := make(map[models.TemplateFieldID]models.TemplateField, len(current))
	for _, f := range current {
		bound[f.TemplateFieldID] = f
	}

	out := make([]models.TemplateField, 0, len(fresh))
	for i, f := range fresh {
		if prev, ok := bound[f.TemplateFieldID]; ok {
			f.ModifierID = prev.ModifierID
			f.ModifierGroupID = prev.ModifierGroupID
		} else {
			f.ModifierID = ""
			f.ModifierGroupID = ""
		}
		f.Order = i
		out = append(out, f)
	}
	return out
}

// Changed reports whether two field lists differ in their set of
// placeholders. Bindings and IDs are ignored.
func Changed(a, b []models.TemplateField) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return true
		}
	}
	return false
}

// Substitute replaces every placeholder whose Key appears in values
// (compared case-insensitively) with the mapped text. Unmatched
// placeholders are left verbatim.
func Substitute(text string, values map[string]string) string {
	if len(values) == 0 {
		return text
	}
	folded := make(map[string]string, len(values))
	for k, v := range values {
		folded[strings.ToLower(k)] = v
	}

	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		m := placeholder.FindStringSubmatch(match)
		if v, ok := folded[strings.ToLower(Key(m[2], kindOf(m[1])))]; ok {
			return v
		}
		return match
	})
}

// Names returns the distinct placeholder names in text, globals prefixed
// with "$".
func Names(text string) []string {
	var out []string
	for _, f := range Extract(text, nil) {
		out = append(out, Key(f.Name, f.Type))
	}
	return out
}
