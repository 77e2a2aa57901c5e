// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package models

import (
	"time"
)

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only when Status is "error".
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "INVALID_RULE",
//	    "message": "invalid rule at index 1",
//	    "details": {"index": 1}
//	  },
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability. QueryTimeMS is the
// database execution time for fresh queries and 0 for cache hits.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed session token and account info.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ProcessRequest is the payload for a rewrite preview without persistence.
type ProcessRequest struct {
	Content string      `json:"content" validate:"required"`
	Rules   []RuleInput `json:"rules" validate:"dive"`
}

// RuleInput mirrors rules.Rule for request decoding and validation.
type RuleInput struct {
	Search        string `json:"search"`
	Replace       string `json:"replace"`
	IsRegex       bool   `json:"is_regex"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// GenerateRequest is the payload for publishing a playlist.
type GenerateRequest struct {
	Content            string      `json:"content" validate:"required"`
	Rules              []RuleInput `json:"rules" validate:"dive"`
	Name               string      `json:"name" validate:"max=128"`
	SourceURL          string      `json:"source_url" validate:"omitempty,url"`
	AutoUpdate         bool        `json:"auto_update"`
	AutoUpdateInterval int         `json:"auto_update_interval"`
	ShowOnBoard        bool        `json:"show_on_board"`
}

// FetchRequest is the payload for a server-side source fetch.
type FetchRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// UpdatePlaylistRequest is the payload for mutating a published playlist.
type UpdatePlaylistRequest struct {
	Name               *string      `json:"name,omitempty" validate:"omitempty,max=128"`
	Content            *string      `json:"content,omitempty"`
	SourceURL          *string      `json:"source_url,omitempty" validate:"omitempty,url"`
	Rules              *[]RuleInput `json:"rules,omitempty"`
	AutoUpdate         *bool        `json:"auto_update,omitempty"`
	AutoUpdateInterval *int         `json:"auto_update_interval,omitempty"`
	ShowOnBoard        *bool        `json:"show_on_board,omitempty"`
}

// SettingsUpdateRequest is the admin payload for system settings.
type SettingsUpdateRequest struct {
	OpenRegistration *bool `json:"open_registration,omitempty"`
}

// AdminStats summarizes service state for the admin panel.
type AdminStats struct {
	TotalUsers     int64 `json:"total_users"`
	PendingUsers   int64 `json:"pending_users"`
	TotalPlaylists int64 `json:"total_playlists"`
	AutoUpdating   int64 `json:"auto_updating"`
	TotalHits      int64 `json:"total_hits"`
}
