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

	"github.com/tomtom215/playlistforge/internal/models"
)

// CreateUser inserts a new account and fills in the generated ID. Returns
// ErrDuplicate when the username is already taken.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, role, status, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		user.Username, user.PasswordHash, user.Role, user.Status, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByUsername returns the account with the given username or
// ErrNotFound.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, username, password_hash, role, status, created_at
		FROM users WHERE username = ?`, username)
}

// GetUserByID returns the account with the given ID or ErrNotFound.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, username, password_hash, role, status, created_at
		FROM users WHERE id = ?`, id)
}

func (db *DB) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var u models.User
	err := db.conn.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// ListUsers returns all accounts, pending first, then by creation time.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, password_hash, role, status, created_at
		 FROM users ORDER BY status DESC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserStatus updates an account's approval status.
func (db *DB) SetUserStatus(ctx context.Context, id int64, status string) error {
	return db.updateUserField(ctx, `UPDATE users SET status = ? WHERE id = ?`, status, id)
}

// SetUserRole updates an account's role.
func (db *DB) SetUserRole(ctx context.Context, id int64, role string) error {
	return db.updateUserField(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
}

func (db *DB) updateUserField(ctx context.Context, query string, args ...interface{}) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteUser removes an account. The caller is responsible for the last-admin
// check; playlists owned by the user become ownerless rather than deleted.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if _, err := db.conn.ExecContext(ctx, `UPDATE playlists SET owner_id = NULL WHERE owner_id = ?`, id); err != nil {
		return fmt.Errorf("failed to orphan playlists: %w", err)
	}
	return nil
}

// CountAdmins returns the number of approved admin accounts. Used for
// last-admin protection before demotions and deletions.
func (db *DB) CountAdmins(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND status = ?`,
		models.RoleAdmin, models.UserStatusApproved).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// AdminStats returns the aggregate counters shown on the admin panel.
func (db *DB) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stats := &models.AdminStats{}
	err := db.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE status = 'pending'),
		(SELECT COUNT(*) FROM playlists),
		(SELECT COUNT(*) FROM playlists WHERE auto_update),
		(SELECT COALESCE(SUM(total_hits), 0) FROM playlists)`).
		Scan(&stats.TotalUsers, &stats.PendingUsers, &stats.TotalPlaylists,
			&stats.AutoUpdating, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin stats: %w", err)
	}
	return stats, nil
}

// isUniqueViolation detects a uniqueness constraint failure from DuckDB.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
