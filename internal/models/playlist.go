// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package models

import (
	"time"

	"github.com/tomtom215/playlistforge/internal/rules"
)

// Check status values mirrored onto a playlist after each health probe.
const (
	CheckStatusOK      = "OK"
	CheckStatusFail    = "FAIL"
	CheckStatusUnknown = "UNKNOWN"
)

// Auto-update interval bounds in seconds.
const (
	MinUpdateInterval = 30
	MaxUpdateInterval = 86400
)

// Playlist is the published artifact. Token is the immutable public handle;
// Content is replaced wholesale on edit or auto-update, never mutated in
// place.
type Playlist struct {
	Token              string       `json:"token"`
	Name               string       `json:"name"`
	OwnerID            *int64       `json:"owner_id,omitempty"`
	Content            string       `json:"-"`
	SourceURL          string       `json:"source_url,omitempty"`
	Rules              []rules.Rule `json:"rules"`
	AutoUpdate         bool         `json:"auto_update"`
	AutoUpdateInterval int          `json:"auto_update_interval"`
	ShowOnBoard        bool         `json:"show_on_board"`
	LastCheckStatus    string       `json:"last_check_status"`
	LastCheckedAt      *time.Time   `json:"last_checked_at,omitempty"`
	LastUpdatedAt      *time.Time   `json:"last_updated_at,omitempty"`
	UpdateError        string       `json:"update_error,omitempty"`
	LastError          string       `json:"last_error,omitempty"`
	TotalHits          int64        `json:"total_hits"`
	CreatedAt          time.Time    `json:"created_at"`
}

// PlaylistSummary is the reduced shape used for listings and the public
// board. Content is intentionally absent.
type PlaylistSummary struct {
	Token           string     `json:"token"`
	Name            string     `json:"name"`
	OwnerID         *int64     `json:"owner_id,omitempty"`
	AutoUpdate      bool       `json:"auto_update"`
	ShowOnBoard     bool       `json:"show_on_board"`
	LastCheckStatus string     `json:"last_check_status"`
	LastCheckedAt   *time.Time `json:"last_checked_at,omitempty"`
	LastUpdatedAt   *time.Time `json:"last_updated_at,omitempty"`
	Hits            int64      `json:"hits"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CheckHistoryEntry records one health probe outcome for a playlist.
// Entries are append-only with bounded retention per token.
type CheckHistoryEntry struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	CheckedAt time.Time `json:"checked_at"`
	Status    string    `json:"status"`
	HTTPCode  int       `json:"http_code,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// DailyHit is one row per playlist per calendar day, the basis for
// time-windowed board ranking.
type DailyHit struct {
	Token string    `json:"token"`
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// BoardPeriod values accepted by the popularity aggregator.
const (
	PeriodTotal = "total"
	Period24h   = "24h"
	Period7d    = "7d"
	Period30d   = "30d"
)

// BoardEntry is a ranked row on the public board.
type BoardEntry struct {
	Token         string     `json:"token"`
	Name          string     `json:"name"`
	Hits          int64      `json:"hits"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

// PlaylistPatch carries the mutable playlist fields for an update. Nil
// pointers leave the stored value untouched.
type PlaylistPatch struct {
	Name               *string       `json:"name,omitempty"`
	Content            *string       `json:"content,omitempty"`
	SourceURL          *string       `json:"source_url,omitempty"`
	Rules              *[]rules.Rule `json:"rules,omitempty"`
	AutoUpdate         *bool         `json:"auto_update,omitempty"`
	AutoUpdateInterval *int          `json:"auto_update_interval,omitempty"`
	ShowOnBoard        *bool         `json:"show_on_board,omitempty"`
}
