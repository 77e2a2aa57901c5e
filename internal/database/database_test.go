// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/models"
	"github.com/tomtom215/playlistforge/internal/rules"
)

// newTestDB creates a database in a temp directory, cleaned up with the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:                   filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory:              "512MB",
		Threads:                1,
		PreserveInsertionOrder: true,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func TestPlaylistCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("create fills token and default name", func(t *testing.T) {
		p := &models.Playlist{
			Content: "#EXTM3U\n",
			Rules:   []rules.Rule{{Search: "a", Replace: "b"}},
		}
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if p.Token == "" {
			t.Fatal("expected generated token")
		}
		if p.Name != "Playlist "+p.Token[:8] {
			t.Errorf("name = %q, want default from token", p.Name)
		}

		got, err := db.GetPlaylist(ctx, p.Token)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Content != "#EXTM3U\n" {
			t.Errorf("content = %q", got.Content)
		}
		if len(got.Rules) != 1 || got.Rules[0].Search != "a" {
			t.Errorf("rules did not round-trip: %+v", got.Rules)
		}
		if got.LastCheckStatus != models.CheckStatusUnknown {
			t.Errorf("initial check status = %q, want UNKNOWN", got.LastCheckStatus)
		}
	})

	t.Run("get unknown token returns ErrNotFound", func(t *testing.T) {
		if _, err := db.GetPlaylist(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("patch updates only set fields", func(t *testing.T) {
		p := &models.Playlist{Content: "orig"}
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		name := "Renamed"
		board := true
		err := db.UpdatePlaylist(ctx, p.Token, &models.PlaylistPatch{Name: &name, ShowOnBoard: &board})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := db.GetPlaylist(ctx, p.Token)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Name != "Renamed" || !got.ShowOnBoard {
			t.Errorf("patch not applied: name=%q board=%v", got.Name, got.ShowOnBoard)
		}
		if got.Content != "orig" {
			t.Errorf("content changed unexpectedly: %q", got.Content)
		}
	})

	t.Run("replace content stamps last_updated_at and clears error", func(t *testing.T) {
		p := &models.Playlist{Content: "old"}
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := db.SetUpdateError(ctx, p.Token, "fetch timed out"); err != nil {
			t.Fatalf("set update error failed: %v", err)
		}

		if err := db.ReplaceContent(ctx, p.Token, "new"); err != nil {
			t.Fatalf("replace failed: %v", err)
		}

		got, err := db.GetPlaylist(ctx, p.Token)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Content != "new" {
			t.Errorf("content = %q, want new", got.Content)
		}
		if got.LastUpdatedAt == nil {
			t.Error("expected last_updated_at to be set")
		}
		if got.UpdateError != "" {
			t.Errorf("update_error = %q, want cleared", got.UpdateError)
		}
	})

	t.Run("delete cascades history and hits", func(t *testing.T) {
		p := &models.Playlist{Content: "x"}
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := db.RecordHit(ctx, p.Token); err != nil {
			t.Fatalf("record hit failed: %v", err)
		}
		entry := &models.CheckHistoryEntry{Token: p.Token, Status: models.CheckStatusOK, HTTPCode: 200}
		if err := db.RecordCheck(ctx, entry, 50); err != nil {
			t.Fatalf("record check failed: %v", err)
		}

		if err := db.DeletePlaylist(ctx, p.Token); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if _, err := db.GetPlaylist(ctx, p.Token); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		history, err := db.CheckHistory(ctx, p.Token, 10)
		if err != nil {
			t.Fatalf("history query failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected cascaded history, got %d entries", len(history))
		}
	})
}

func TestRecordHit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &models.Playlist{Content: "x"}
	if err := db.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := db.RecordHit(ctx, p.Token); err != nil {
			t.Fatalf("record hit %d failed: %v", i, err)
		}
	}

	got, err := db.GetPlaylist(ctx, p.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TotalHits != 3 {
		t.Errorf("total hits = %d, want 3", got.TotalHits)
	}

	hits, err := db.HitsSince(ctx, p.Token, time.Now().UTC().AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("hits since failed: %v", err)
	}
	if hits != 3 {
		t.Errorf("windowed hits = %d, want 3", hits)
	}
}

func TestBoard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	visible := &models.Playlist{Content: "a", ShowOnBoard: true, Name: "Visible"}
	hidden := &models.Playlist{Content: "b", ShowOnBoard: false, Name: "Hidden"}
	for _, p := range []*models.Playlist{visible, hidden} {
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	// Hidden playlist gets more hits but must never appear.
	for i := 0; i < 5; i++ {
		if err := db.RecordHit(ctx, hidden.Token); err != nil {
			t.Fatalf("record hit failed: %v", err)
		}
	}
	if err := db.RecordHit(ctx, visible.Token); err != nil {
		t.Fatalf("record hit failed: %v", err)
	}

	for _, period := range []string{models.PeriodTotal, models.Period24h, models.Period7d, models.Period30d} {
		entries, err := db.Board(ctx, period)
		if err != nil {
			t.Fatalf("board %s failed: %v", period, err)
		}
		if len(entries) != 1 {
			t.Fatalf("board %s returned %d entries, want 1", period, len(entries))
		}
		if entries[0].Token != visible.Token {
			t.Errorf("board %s ranked hidden playlist", period)
		}
	}

	if _, err := db.Board(ctx, "fortnight"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestCheckHistoryRetention(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &models.Playlist{Content: "x", SourceURL: "http://src.example/list.m3u"}
	if err := db.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 8; i++ {
		entry := &models.CheckHistoryEntry{
			Token:     p.Token,
			Status:    models.CheckStatusFail,
			Detail:    "connection refused",
			CheckedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := db.RecordCheck(ctx, entry, 5); err != nil {
			t.Fatalf("record check %d failed: %v", i, err)
		}
	}

	history, err := db.CheckHistory(ctx, p.Token, 100)
	if err != nil {
		t.Fatalf("history query failed: %v", err)
	}
	if len(history) != 5 {
		t.Errorf("history length = %d, want 5 after pruning", len(history))
	}

	got, err := db.GetPlaylist(ctx, p.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.LastCheckStatus != models.CheckStatusFail {
		t.Errorf("mirrored status = %q, want FAIL", got.LastCheckStatus)
	}
	if got.LastCheckedAt == nil {
		t.Error("expected mirrored last_checked_at")
	}
	if got.LastError != "connection refused" {
		t.Errorf("mirrored last_error = %q", got.LastError)
	}
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		u := &models.User{Username: "alice", PasswordHash: "hash", Role: models.RoleUser, Status: models.UserStatusPending}
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if u.ID == 0 {
			t.Error("expected generated user ID")
		}

		got, err := db.GetUserByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Status != models.UserStatusPending {
			t.Errorf("status = %q, want pending", got.Status)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		u := &models.User{Username: "alice", PasswordHash: "other", Role: models.RoleUser, Status: models.UserStatusPending}
		if err := db.CreateUser(ctx, u); !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("approve and count admins", func(t *testing.T) {
		admin := &models.User{Username: "root", PasswordHash: "hash", Role: models.RoleAdmin, Status: models.UserStatusApproved}
		if err := db.CreateUser(ctx, admin); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		count, err := db.CountAdmins(ctx)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("admin count = %d, want 1", count)
		}
	})

	t.Run("delete orphans playlists", func(t *testing.T) {
		u := &models.User{Username: "bob", PasswordHash: "hash", Role: models.RoleUser, Status: models.UserStatusApproved}
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		p := &models.Playlist{Content: "x", OwnerID: &u.ID}
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create playlist failed: %v", err)
		}

		if err := db.DeleteUser(ctx, u.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		got, err := db.GetPlaylist(ctx, p.Token)
		if err != nil {
			t.Fatalf("get playlist failed: %v", err)
		}
		if got.OwnerID != nil {
			t.Errorf("expected orphaned playlist, owner = %v", *got.OwnerID)
		}
	})
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	open, err := db.OpenRegistration(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if open {
		t.Error("open registration should default to false")
	}

	if err := db.SetSetting(ctx, SettingOpenRegistration, "true"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	open, err = db.OpenRegistration(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !open {
		t.Error("expected open registration after write")
	}

	// Overwrite through the upsert path.
	if err := db.SetSetting(ctx, SettingOpenRegistration, "false"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	open, _ = db.OpenRegistration(ctx)
	if open {
		t.Error("expected closed registration after overwrite")
	}
}

func TestAutoUpdateCandidates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enabled := &models.Playlist{Content: "x", SourceURL: "http://a.example/p.m3u", AutoUpdate: true, AutoUpdateInterval: 60}
	noSource := &models.Playlist{Content: "y", AutoUpdate: true}
	disabled := &models.Playlist{Content: "z", SourceURL: "http://b.example/p.m3u"}
	for _, p := range []*models.Playlist{enabled, noSource, disabled} {
		if err := db.CreatePlaylist(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	candidates, err := db.AutoUpdateCandidates(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Token != enabled.Token {
		t.Errorf("candidates = %+v, want only the enabled playlist", candidates)
	}
}
