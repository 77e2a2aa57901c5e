// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package models

import "time"

// Roles and account states used by the approval workflow.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the already-authenticated caller attached to a request by the
// HTTP layer. A nil *Identity means anonymous.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role. Safe on nil.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// CanManage reports whether the identity may mutate a playlist owned by
// ownerID. Admins manage everything; owners manage their own; anonymous and
// foreign identities manage nothing. Ownerless playlists are manageable only
// by admins.
func (i *Identity) CanManage(ownerID *int64) bool {
	if i == nil {
		return false
	}
	if i.Role == RoleAdmin {
		return true
	}
	return ownerID != nil && *ownerID == i.UserID
}
