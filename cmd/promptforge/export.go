// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"promptforge/internal/export"
	"promptforge/internal/models"
	"promptforge/internal/store"
)

var (
	exportVersion int
	exportFormat  string
	exportOut     string
	exportPublish bool
	exportShare   time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export <template>",
	Short: "Render a template version as Markdown or HTML",
	Long: `Render a template version from the stored snapshot.

The template is matched by ID, or by name when no ID matches.
Without --version the template's selected version is rendered.

Examples:
  promptforge export "Space Opera"                 # Markdown to stdout
  promptforge export "Space Opera" -v 2 -f html    # HTML of version 2
  promptforge export "Space Opera" -o story.md     # write to a file
  promptforge export "Space Opera" --publish       # upload to the public bucket
  promptforge export "Space Opera" --share 24h     # private link valid for a day`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		ws, closeBackend, err := openWorkspace(ctx, nil)
		if err != nil {
			return err
		}
		defer closeBackend()

		t, ok := findTemplate(ws.Store(), args[0])
		if !ok {
			return fmt.Errorf("template %q not found", args[0])
		}

		if exportPublish || exportShare > 0 {
			objects, err := newObjectStore()
			if err != nil {
				return err
			}
			p := export.NewPublisher(objects, ws.Store())
			var pub export.Published
			if exportShare > 0 {
				pub, err = p.Share(ctx, t.ID, exportVersion, format, exportShare)
			} else {
				pub, err = p.Publish(ctx, t.ID, exportVersion, format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pub.URL)
			return nil
		}

		body, err := export.Render(ws.Store(), t.ID, exportVersion, format)
		if err != nil {
			return err
		}
		if exportOut == "" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		return os.WriteFile(exportOut, body, 0o644)
	},
}

func init() {
	exportCmd.Flags().IntVarP(&exportVersion, "version", "v", -1, "template version (default: selected version)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "output format: md or html")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportPublish, "publish", false, "upload to the public bucket and print the URL")
	exportCmd.Flags().DurationVar(&exportShare, "share", 0, "upload to the private bucket and print a presigned URL valid this long")
}

// findTemplate matches ref against template IDs first, then names
// case-insensitively.
func findTemplate(st *store.Store, ref string) (models.TemplateGroup, bool) {
	if t, ok := st.Template(models.TemplateGroupID(ref)); ok {
		return t, true
	}
	for _, t := range st.Templates() {
		if strings.EqualFold(t.Name, ref) {
			return t, true
		}
	}
	return models.TemplateGroup{}, false
}
