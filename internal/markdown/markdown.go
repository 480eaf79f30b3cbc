// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders exported templates to HTML using goldmark.
// Element bodies are free text and may already contain HTML, so raw HTML
// is passed through unchanged.
package markdown

import (
	"bytes"
	"io"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // section headings become anchors
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(), // prompt text is line oriented
		html.WithUnsafe(),
	),
)

// Render writes the HTML rendering of source to w.
func Render(w io.Writer, source []byte) error {
	return md.Convert(source, w)
}

// ToHTML converts Markdown source into an HTML fragment.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, []byte(source)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
