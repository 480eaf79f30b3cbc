// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"promptforge/internal/config"
	"promptforge/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations for the SQL backends",
	Long: `Apply pending goose migrations to the configured SQL backend.

Only the sqlite and postgres backends have a schema; other backends
need no migration. serve also migrates on startup.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			db      *sql.DB
			dialect database.Dialect
			err     error
		)
		switch cfg.StoreBackend {
		case config.BackendSQLite:
			db, err = database.OpenSQLite(cfg.SQLitePath)
			dialect = database.DialectSQLite
		case config.BackendPostgres:
			db, err = database.Connect(cfg.DSN())
			dialect = database.DialectPostgres
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "backend %s has no schema, nothing to migrate\n", cfg.StoreBackend)
			return nil
		}
		if err != nil {
			return err
		}
		defer db.Close()

		return database.Migrate(cmd.Context(), db, dialect)
	},
}
