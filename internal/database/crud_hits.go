// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/playlistforge/internal/models"
)

// RecordHit increments today's daily counter and the playlist's all-time
// counter. Called on every raw-content read, independent of auth, so both
// statements go through the prepared statement cache.
func (db *DB) RecordHit(ctx context.Context, token string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	upsert, err := db.getStmt(ctx, `INSERT INTO daily_hits (token, day, count)
		VALUES (?, CURRENT_DATE, 1)
		ON CONFLICT (token, day) DO UPDATE SET count = count + 1`)
	if err != nil {
		return err
	}
	if _, err := upsert.ExecContext(ctx, token); err != nil {
		return fmt.Errorf("failed to record daily hit: %w", err)
	}

	total, err := db.getStmt(ctx, `UPDATE playlists SET total_hits = total_hits + 1 WHERE token = ?`)
	if err != nil {
		return err
	}
	if _, err := total.ExecContext(ctx, token); err != nil {
		return fmt.Errorf("failed to record total hit: %w", err)
	}
	return nil
}

// HitsSince returns the summed daily hits for a token from the cutoff date
// onward.
func (db *DB) HitsSince(ctx context.Context, token string, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var hits int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0) FROM daily_hits WHERE token = ? AND day >= ?`,
		token, cutoff).Scan(&hits)
	if err != nil {
		return 0, fmt.Errorf("failed to sum hits: %w", err)
	}
	return hits, nil
}

// boardLimit caps the public board at 50 entries regardless of hit volume.
const boardLimit = 50

// Board ranks playlists opted into the public board by hits over the given
// period, descending, ties broken by most recent last_updated_at. Period
// total ranks by the all-time counter; the windowed periods sum daily hits
// from the cutoff date onward.
func (db *DB) Board(ctx context.Context, period string) ([]models.BoardEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		rowsQuery string
		args      []interface{}
	)

	if period == models.PeriodTotal {
		rowsQuery = `SELECT token, name, total_hits AS hits, last_updated_at
			FROM playlists
			WHERE show_on_board
			ORDER BY hits DESC, last_updated_at DESC NULLS LAST
			LIMIT ?`
		args = []interface{}{boardLimit}
	} else {
		cutoff, err := boardCutoff(period)
		if err != nil {
			return nil, err
		}
		rowsQuery = `SELECT p.token, p.name, COALESCE(SUM(d.count), 0) AS hits, p.last_updated_at
			FROM playlists p
			LEFT JOIN daily_hits d ON d.token = p.token AND d.day >= ?
			WHERE p.show_on_board
			GROUP BY p.token, p.name, p.last_updated_at
			ORDER BY hits DESC, p.last_updated_at DESC NULLS LAST
			LIMIT ?`
		args = []interface{}{cutoff, boardLimit}
	}

	rows, err := db.conn.QueryContext(ctx, rowsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query board: %w", err)
	}
	defer rows.Close()

	var entries []models.BoardEntry
	for rows.Next() {
		var (
			e         models.BoardEntry
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&e.Token, &e.Name, &e.Hits, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board row: %w", err)
		}
		if updatedAt.Valid {
			e.LastUpdatedAt = &updatedAt.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// boardCutoff maps a windowed period to its inclusive start date.
func boardCutoff(period string) (time.Time, error) {
	now := time.Now().UTC()
	switch period {
	case models.Period24h:
		return now.AddDate(0, 0, -1), nil
	case models.Period7d:
		return now.AddDate(0, 0, -7), nil
	case models.Period30d:
		return now.AddDate(0, 0, -30), nil
	default:
		return time.Time{}, fmt.Errorf("unknown board period %q", period)
	}
}
