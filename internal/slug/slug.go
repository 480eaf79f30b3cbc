// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns template names into names that are safe as file
// names and object storage keys.
package slug

import "strings"

// MaxLength caps the length of a generated slug.
const MaxLength = 64

// Generate lowercases s and keeps ASCII letters and digits. Every run of
// whitespace or ASCII punctuation becomes a single hyphen; apostrophes and
// non-ASCII characters are dropped. Leading and trailing hyphens are
// trimmed, and slugs longer than MaxLength are cut at the last hyphen that
// fits.
// Example: "Villain's Lair: Act 2.0" → "villains-lair-act-2-0"
func Generate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		case r == '\'' || r > 0x7f:
		default:
			pending = true
		}
	}

	out := b.String()
	if len(out) <= MaxLength {
		return out
	}
	out = out[:MaxLength]
	if i := strings.LastIndexByte(out, '-'); i > 0 {
		out = out[:i]
	}
	return strings.TrimRight(out, "-")
}
