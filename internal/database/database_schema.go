// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS check_history_id_seq START 1`,

		// Accounts with approval workflow. Status is pending until an admin
		// approves, unless open registration is enabled.
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Published playlists. Token is the public handle; rules are the
		// ordered rule list captured at generation time, stored as JSON and
		// reapplied verbatim on every auto-update cycle.
		`CREATE TABLE IF NOT EXISTS playlists (
			token TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_id BIGINT,
			content TEXT NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			rules TEXT NOT NULL DEFAULT '[]',
			auto_update BOOLEAN NOT NULL DEFAULT false,
			auto_update_interval INTEGER NOT NULL DEFAULT 3600,
			show_on_board BOOLEAN NOT NULL DEFAULT false,
			last_check_status TEXT NOT NULL DEFAULT 'UNKNOWN',
			last_checked_at TIMESTAMP,
			last_updated_at TIMESTAMP,
			update_error TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			total_hits BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per playlist per calendar day; the basis for windowed
		// board ranking.
		`CREATE TABLE IF NOT EXISTS daily_hits (
			token TEXT NOT NULL,
			day DATE NOT NULL,
			count BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (token, day)
		)`,

		// Append-only health probe outcomes, pruned to a bounded number of
		// entries per token.
		`CREATE TABLE IF NOT EXISTS check_history (
			id BIGINT PRIMARY KEY DEFAULT nextval('check_history_id_seq'),
			token TEXT NOT NULL,
			checked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL,
			http_code INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS system_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
}

// createIndexes creates indexes for the query patterns the API and the
// background loops use.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_playlists_owner ON playlists (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_auto_update ON playlists (auto_update)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_board ON playlists (show_on_board)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_hits_day ON daily_hits (day)`,
		`CREATE INDEX IF NOT EXISTS idx_check_history_token ON check_history (token, checked_at)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
