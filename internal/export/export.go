// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export projects a template version into a flat document: the
// template name as a title, one heading per section, and each section
// item's element text with its placeholders filled in from the bound
// modifiers. Rendering never writes to the store.
package export

import (
	"errors"
	"fmt"
	"strings"

	"promptforge/internal/fields"
	"promptforge/internal/markdown"
	"promptforge/internal/models"
	"promptforge/internal/slug"
)

// ErrNotFound is returned when the template or version does not exist.
var ErrNotFound = errors.New("export: template version not found")

// ErrUnknownFormat is returned for a format other than FormatMarkdown or
// FormatHTML.
var ErrUnknownFormat = errors.New("export: unknown format")

// Format is an output format, named by its file extension.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// ParseFormat accepts "md", "markdown" and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Source is the read side of the entity store an export needs.
type Source interface {
	Template(id models.TemplateGroupID) (models.TemplateGroup, bool)
	Element(groupID models.GroupID, id models.ElementID) (models.Element, bool)
	FindModifier(id models.ModifierID) (models.Modifier, bool)
}

// Markdown renders version of template tid. A negative version renders
// the template's selected version.
func Markdown(src Source, tid models.TemplateGroupID, version int) (string, error) {
	t, ok := src.Template(tid)
	if !ok {
		return "", ErrNotFound
	}
	if version < 0 {
		version = t.SelectedVersion
	}
	sections, ok := t.Sections[version]
	if !ok {
		return "", fmt.Errorf("%w: version %d", ErrNotFound, version)
	}

	var b strings.Builder
	b.WriteString("# " + t.Name + "\n")
	for _, s := range sections.Sorted() {
		b.WriteString("\n## " + s.Name + "\n")
		for _, item := range s.SortedItems() {
			e, ok := src.Element(item.GroupID, item.ElementID)
			if !ok {
				continue
			}
			text := fields.Substitute(e.SelectedBody(), values(src, t, item))
			b.WriteString("\n" + strings.TrimRight(text, "\n") + "\n")
		}
	}
	return b.String(), nil
}

// values maps the fields.Key of every bound field of the item to its
// modifier's text. Global fields without an item-level binding fall back to the
// template's registry.
func values(src Source, t models.TemplateGroup, item models.SectionItem) map[string]string {
	out := make(map[string]string, len(item.Fields))
	for _, f := range item.Fields {
		id := f.ModifierID
		if id == "" && f.Type == models.FieldTypeGlobal {
			id = t.GlobalFields[f.Name].ModifierID
		}
		if id == "" {
			continue
		}
		if m, ok := src.FindModifier(id); ok {
			out[fields.Key(f.Name, f.Type)] = m.Modifier
		}
	}
	return out
}

// HTML renders the Markdown export through goldmark.
func HTML(src Source, tid models.TemplateGroupID, version int) (string, error) {
	md, err := Markdown(src, tid, version)
	if err != nil {
		return "", err
	}
	out, err := markdown.ToHTML(md)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return out, nil
}

// Render produces the export in the requested format.
func Render(src Source, tid models.TemplateGroupID, version int, format Format) ([]byte, error) {
	var (
		out string
		err error
	)
	switch format {
	case FormatMarkdown:
		out, err = Markdown(src, tid, version)
	case FormatHTML:
		out, err = HTML(src, tid, version)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// FileName builds a download name such as "fantasy-story-v3.md".
func FileName(name string, version int, format Format) string {
	base := slug.Generate(name)
	if base == "" {
		base = "template"
	}
	return fmt.Sprintf("%s-v%d.%s", base, version, format)
}
