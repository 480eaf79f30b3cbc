// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Dump or load the stored snapshot",
}

var snapshotDumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Write the stored snapshot to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, closeBackend, err := openWorkspace(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeBackend()

		data, err := ws.Export()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(args[0], data, 0o600); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		slog.Info("snapshot dumped", "file", args[0], "bytes", len(data))
		return nil
	},
}

var snapshotLoadCmd = &cobra.Command{
	Use:   "load <file|->",
	Short: "Replace the stored snapshot with a file (- reads stdin)",
	Long: `Replace the stored snapshot with the contents of a file.

The file is decoded before anything is written, so a malformed file
leaves the stored snapshot untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}

		ws, closeBackend, err := openWorkspace(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeBackend()

		if err := ws.Import(cmd.Context(), data); err != nil {
			return err
		}
		st := ws.Store().Stats()
		slog.Info("snapshot loaded",
			"bytes", len(data),
			"groups", st.Groups,
			"elements", st.Elements,
			"templates", st.Templates,
		)
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotDumpCmd, snapshotLoadCmd)
}
