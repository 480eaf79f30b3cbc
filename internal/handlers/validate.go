// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for entity text fields.
const (
	maxNameLen    = 200
	maxSummaryLen = 2_000
	maxBodyLen    = 100_000
	maxIconLen    = 100
	maxSortLen    = 100
)

// validateName checks a required display name and returns the first
// problem found, or "".
func validateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}

// validateText checks the optional free-text attributes of an element or
// modifier.
func validateText(summary, body string) string {
	if utf8.RuneCountInString(summary) > maxSummaryLen {
		return "Summary is too long (max 2,000 characters)."
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Body is too long (max 100,000 characters)."
	}
	return ""
}

// validateTag checks a short tag such as a badge icon or a group sort
// category.
func validateTag(field, value string) string {
	if utf8.RuneCountInString(value) > maxTagLen(field) {
		return field + " is too long."
	}
	return ""
}

func maxTagLen(field string) int {
	if field == "Icon" {
		return maxIconLen
	}
	return maxSortLen
}
