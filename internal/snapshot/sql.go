// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQL stores the snapshot as one row of a key/value table. The table is
// created by the database package migrations.
type SQL struct {
	db       *sql.DB
	key      string
	selectQ  string
	upsertQ  string
	describe string
}

// NewSQLite returns a backend over the kv table of a SQLite database.
func NewSQLite(db *sql.DB, key string) *SQL {
	return &SQL{
		db:      db,
		key:     key,
		selectQ: `SELECT value FROM kv WHERE key = ?`,
		upsertQ: `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		describe: "sqlite",
	}
}

// NewPostgres returns a backend over the entity_snapshots table.
func NewPostgres(db *sql.DB, key string) *SQL {
	return &SQL{
		db:      db,
		key:     key,
		selectQ: `SELECT value FROM entity_snapshots WHERE key = $1`,
		upsertQ: `INSERT INTO entity_snapshots (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		describe: "postgres",
	}
}

func (s *SQL) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.selectQ, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s load %q: %w", s.describe, s.key, err)
	}
	return value, nil
}

func (s *SQL) Save(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQ, s.key, data); err != nil {
		return fmt.Errorf("%s save %q: %w", s.describe, s.key, err)
	}
	return nil
}
