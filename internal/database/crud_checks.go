// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/playlistforge/internal/models"
)

// RecordCheck appends a probe outcome to the history, mirrors the status
// onto the playlist, and prunes history entries beyond historyLimit for the
// token. The manual and scheduled probe paths both land here so the two can
// never diverge in what they record.
func (db *DB) RecordCheck(ctx context.Context, entry *models.CheckHistoryEntry, historyLimit int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO check_history (token, checked_at, status, http_code, detail) VALUES (?, ?, ?, ?, ?)`,
		entry.Token, entry.CheckedAt, entry.Status, entry.HTTPCode, entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to insert check entry: %w", err)
	}

	lastError := ""
	if entry.Status != models.CheckStatusOK {
		lastError = entry.Detail
	}
	_, err = db.conn.ExecContext(ctx,
		`UPDATE playlists SET last_check_status = ?, last_checked_at = ?, last_error = ? WHERE token = ?`,
		entry.Status, entry.CheckedAt, lastError, entry.Token)
	if err != nil {
		return fmt.Errorf("failed to mirror check status: %w", err)
	}

	if historyLimit > 0 {
		_, err = db.conn.ExecContext(ctx,
			`DELETE FROM check_history WHERE token = ? AND id NOT IN (
				SELECT id FROM check_history WHERE token = ? ORDER BY checked_at DESC, id DESC LIMIT ?
			)`, entry.Token, entry.Token, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to prune check history: %w", err)
		}
	}
	return nil
}

// CheckHistory returns the most recent probe outcomes for a token, newest
// first.
func (db *DB) CheckHistory(ctx context.Context, token string, limit int) ([]models.CheckHistoryEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, token, checked_at, status, http_code, detail
		 FROM check_history WHERE token = ?
		 ORDER BY checked_at DESC, id DESC LIMIT ?`, token, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check history: %w", err)
	}
	defer rows.Close()

	var entries []models.CheckHistoryEntry
	for rows.Next() {
		var e models.CheckHistoryEntry
		if err := rows.Scan(&e.ID, &e.Token, &e.CheckedAt, &e.Status, &e.HTTPCode, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan check entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
