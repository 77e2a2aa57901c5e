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
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/playlistforge/internal/models"
	"github.com/tomtom215/playlistforge/internal/rules"
)

// playlistColumns is the column list shared by every full-playlist SELECT.
const playlistColumns = `token, name, owner_id, content, source_url, rules,
	auto_update, auto_update_interval, show_on_board,
	last_check_status, last_checked_at, last_updated_at,
	update_error, last_error, total_hits, created_at`

// CreatePlaylist inserts a new playlist record. A missing token is generated
// and a missing name defaults to "Playlist " plus the token's first eight
// characters, matching the public handle shown to users.
func (db *DB) CreatePlaylist(ctx context.Context, p *models.Playlist) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if p.Token == "" {
		p.Token = uuid.New().String()
	}
	if p.Name == "" {
		p.Name = "Playlist " + p.Token[:8]
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.LastCheckStatus == "" {
		p.LastCheckStatus = models.CheckStatusUnknown
	}

	rulesJSON, err := json.Marshal(p.Rules)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `INSERT INTO playlists (
		token, name, owner_id, content, source_url, rules,
		auto_update, auto_update_interval, show_on_board,
		last_check_status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Token, p.Name, p.OwnerID, p.Content, p.SourceURL, string(rulesJSON),
		p.AutoUpdate, p.AutoUpdateInterval, p.ShowOnBoard,
		p.LastCheckStatus, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

// GetPlaylist returns the full playlist record for a token, including
// content and rules. Returns ErrNotFound for unknown tokens.
func (db *DB) GetPlaylist(ctx context.Context, token string) (*models.Playlist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE token = ?`, token)
	return scanPlaylist(row)
}

// GetPlaylistContent returns only the stored content for a token. This is
// the raw-read hot path and uses a cached prepared statement.
func (db *DB) GetPlaylistContent(ctx context.Context, token string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.getStmt(ctx, `SELECT content FROM playlists WHERE token = ?`)
	if err != nil {
		return "", err
	}

	var content string
	if err := stmt.QueryRowContext(ctx, token).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read playlist content: %w", err)
	}
	return content, nil
}

// UpdatePlaylist applies a partial update. Nil patch fields leave the stored
// value untouched. Returns ErrNotFound when the token does not exist.
func (db *DB) UpdatePlaylist(ctx context.Context, token string, patch *models.PlaylistPatch) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?", "last_updated_at = ?")
		args = append(args, *patch.Content, time.Now().UTC())
	}
	if patch.SourceURL != nil {
		sets = append(sets, "source_url = ?")
		args = append(args, *patch.SourceURL)
	}
	if patch.Rules != nil {
		rulesJSON, err := json.Marshal(*patch.Rules)
		if err != nil {
			return fmt.Errorf("failed to marshal rules: %w", err)
		}
		sets = append(sets, "rules = ?")
		args = append(args, string(rulesJSON))
	}
	if patch.AutoUpdate != nil {
		sets = append(sets, "auto_update = ?")
		args = append(args, *patch.AutoUpdate)
	}
	if patch.AutoUpdateInterval != nil {
		sets = append(sets, "auto_update_interval = ?")
		args = append(args, *patch.AutoUpdateInterval)
	}
	if patch.ShowOnBoard != nil {
		sets = append(sets, "show_on_board = ?")
		args = append(args, *patch.ShowOnBoard)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, token)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE playlists SET `+strings.Join(sets, ", ")+` WHERE token = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return requireRowAffected(result)
}

// ReplaceContent atomically swaps the stored content and stamps
// last_updated_at in a single UPDATE. Concurrent readers observe either the
// previous body or the new one in full. A successful refresh also clears any
// recorded update error.
func (db *DB) ReplaceContent(ctx context.Context, token, content string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE playlists SET content = ?, last_updated_at = ?, update_error = '' WHERE token = ?`,
		content, time.Now().UTC(), token)
	if err != nil {
		return fmt.Errorf("failed to replace playlist content: %w", err)
	}
	return requireRowAffected(result)
}

// SetUpdateError records a failed refresh attempt. Content and
// last_updated_at are deliberately untouched so the stale body remains
// servable and the playlist comes due again on the next tick.
func (db *DB) SetUpdateError(ctx context.Context, token, detail string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE playlists SET update_error = ? WHERE token = ?`, detail, token)
	if err != nil {
		return fmt.Errorf("failed to record update error: %w", err)
	}
	return requireRowAffected(result)
}

// DeletePlaylist removes a playlist and cascades its check history and hit
// counters.
func (db *DB) DeletePlaylist(ctx context.Context, token string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM playlists WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM check_history WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete check history: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM daily_hits WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete hit counters: %w", err)
	}
	return nil
}

// ListPlaylistsByOwner returns summaries of all playlists owned by a user,
// newest first.
func (db *DB) ListPlaylistsByOwner(ctx context.Context, ownerID int64) ([]models.PlaylistSummary, error) {
	return db.listSummaries(ctx,
		`SELECT `+summaryColumns+` FROM playlists WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// SearchPlaylists returns summaries across all owners, optionally filtered
// by a case-insensitive name or token match. Used by the admin panel.
func (db *DB) SearchPlaylists(ctx context.Context, query string, limit, offset int) ([]models.PlaylistSummary, error) {
	if query == "" {
		return db.listSummaries(ctx,
			`SELECT `+summaryColumns+` FROM playlists ORDER BY created_at DESC LIMIT ? OFFSET ?`,
			limit, offset)
	}
	pattern := "%" + strings.ToLower(query) + "%"
	return db.listSummaries(ctx,
		`SELECT `+summaryColumns+` FROM playlists
		 WHERE lower(name) LIKE ? OR lower(token) LIKE ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pattern, pattern, limit, offset)
}

// AutoUpdateCandidates returns every playlist with auto-update enabled and a
// source URL. Dueness against the configured interval is decided by the
// scheduler, not here.
func (db *DB) AutoUpdateCandidates(ctx context.Context) ([]models.Playlist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE auto_update AND source_url <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-update candidates: %w", err)
	}
	defer rows.Close()

	var result []models.Playlist
	for rows.Next() {
		p, err := scanPlaylistRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// HealthCheckCandidates returns tokens and source URLs of playlists whose
// last probe is older than the cutoff (or that were never probed).
func (db *DB) HealthCheckCandidates(ctx context.Context, cutoff time.Time) ([]models.Playlist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT token, source_url FROM playlists
		 WHERE source_url <> '' AND (last_checked_at IS NULL OR last_checked_at <= ?)`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query health check candidates: %w", err)
	}
	defer rows.Close()

	var result []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.Token, &p.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// summaryColumns is the column list for PlaylistSummary queries.
const summaryColumns = `token, name, owner_id, auto_update, show_on_board,
	last_check_status, last_checked_at, last_updated_at, total_hits, created_at`

func (db *DB) listSummaries(ctx context.Context, query string, args ...interface{}) ([]models.PlaylistSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var result []models.PlaylistSummary
	for rows.Next() {
		var (
			s         models.PlaylistSummary
			ownerID   sql.NullInt64
			checkedAt sql.NullTime
			updatedAt sql.NullTime
		)
		err := rows.Scan(&s.Token, &s.Name, &ownerID, &s.AutoUpdate, &s.ShowOnBoard,
			&s.LastCheckStatus, &checkedAt, &updatedAt, &s.Hits, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist summary: %w", err)
		}
		if ownerID.Valid {
			s.OwnerID = &ownerID.Int64
		}
		if checkedAt.Valid {
			s.LastCheckedAt = &checkedAt.Time
		}
		if updatedAt.Valid {
			s.LastUpdatedAt = &updatedAt.Time
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlaylist(row *sql.Row) (*models.Playlist, error) {
	p, err := scanPlaylistFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPlaylistRows(rows *sql.Rows) (*models.Playlist, error) {
	return scanPlaylistFrom(rows)
}

func scanPlaylistFrom(scanner rowScanner) (*models.Playlist, error) {
	var (
		p         models.Playlist
		ownerID   sql.NullInt64
		rulesJSON string
		checkedAt sql.NullTime
		updatedAt sql.NullTime
	)

	err := scanner.Scan(&p.Token, &p.Name, &ownerID, &p.Content, &p.SourceURL, &rulesJSON,
		&p.AutoUpdate, &p.AutoUpdateInterval, &p.ShowOnBoard,
		&p.LastCheckStatus, &checkedAt, &updatedAt,
		&p.UpdateError, &p.LastError, &p.TotalHits, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan playlist row: %w", err)
	}

	if ownerID.Valid {
		p.OwnerID = &ownerID.Int64
	}
	if checkedAt.Valid {
		p.LastCheckedAt = &checkedAt.Time
	}
	if updatedAt.Valid {
		p.LastUpdatedAt = &updatedAt.Time
	}
	if err := json.Unmarshal([]byte(rulesJSON), &p.Rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules for %s: %w", p.Token, err)
	}
	if p.Rules == nil {
		p.Rules = []rules.Rule{}
	}
	return &p, nil
}

// requireRowAffected translates a zero-row UPDATE or DELETE into ErrNotFound.
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
