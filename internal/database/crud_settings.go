// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingOpenRegistration controls whether new accounts are approved
// immediately instead of entering the pending queue.
const SettingOpenRegistration = "open_registration"

// GetSetting returns a system setting value, or the fallback when the key
// has never been written.
func (db *DB) GetSetting(ctx context.Context, key, fallback string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting writes a system setting, inserting or overwriting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO system_settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// OpenRegistration reports whether new registrations are auto-approved.
// Defaults to false when the setting was never written.
func (db *DB) OpenRegistration(ctx context.Context) (bool, error) {
	value, err := db.GetSetting(ctx, SettingOpenRegistration, "false")
	if err != nil {
		return false, err
	}
	return value == "true", nil
}
