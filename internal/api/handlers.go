// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package api provides the HTTP layer: Chi routing, middleware, and the
// handlers for playlist processing, publishing, accounts, the public board,
// and raw playlist delivery.
package api

import (
	"context"
	"time"

	"github.com/tomtom215/playlistforge/internal/auth"
	"github.com/tomtom215/playlistforge/internal/cache"
	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/models"
)

// boardCacheTTL bounds how stale the public board may get.
const boardCacheTTL = time.Minute

// SourceFetcher downloads playlist content from a source URL.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Refresher triggers an immediate content refresh for one playlist.
type Refresher interface {
	TriggerRefresh(ctx context.Context, token string) error
}

// SourceChecker probes one source and records the outcome.
type SourceChecker interface {
	CheckNow(ctx context.Context, token, sourceURL string) (*models.CheckHistoryEntry, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by area:
//   - handlers_auth.go: registration, login, current identity
//   - handlers_process.go: stateless preview, server-side fetch, publishing
//   - handlers_playlists.go: playlist CRUD, manual check and refresh, history
//   - handlers_board.go: public popularity board
//   - handlers_public.go: raw playlist delivery at /p/{token}
//   - handlers_admin.go: admin panel endpoints
//   - handlers_health.go: liveness and readiness
type Handler struct {
	db         *database.DB
	cfg        *config.Config
	jwtManager *auth.JWTManager
	fetcher    SourceFetcher
	refresher  Refresher
	checker    SourceChecker
	boardCache *cache.Cache
	startTime  time.Time
}

// NewHandler creates the API handler with all required dependencies.
func NewHandler(db *database.DB, cfg *config.Config, jwtManager *auth.JWTManager, fetcher SourceFetcher, refresher Refresher, checker SourceChecker) *Handler {
	return &Handler{
		db:         db,
		cfg:        cfg,
		jwtManager: jwtManager,
		fetcher:    fetcher,
		refresher:  refresher,
		checker:    checker,
		boardCache: cache.New(boardCacheTTL),
		startTime:  time.Now(),
	}
}

// ClearBoardCache invalidates the cached board rankings. Called when a
// playlist's board visibility changes so the next read re-queries.
func (h *Handler) ClearBoardCache() {
	if h.boardCache != nil {
		h.boardCache.Clear()
		logging.Debug().Msg("Board cache cleared")
	}
}
