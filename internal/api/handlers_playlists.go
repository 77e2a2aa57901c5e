// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/m3u"
	"github.com/tomtom215/playlistforge/internal/models"
	"github.com/tomtom215/playlistforge/internal/rules"
	"github.com/tomtom215/playlistforge/internal/scheduler"
)

// playlistDetail is the owner-facing playlist shape. Unlike the embedded
// model, it carries the stored content for the editor.
type playlistDetail struct {
	*models.Playlist
	Content string `json:"content"`
}

// loadManaged loads the playlist from the URL token and enforces that the
// caller may manage it. Returns nil after writing the error response.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) *models.Playlist {
	token := chi.URLParam(r, "token")
	p, err := h.db.GetPlaylist(r.Context(), token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "Playlist not found", nil)
			return nil
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load playlist", err)
		return nil
	}

	if !identityFromContext(r.Context()).CanManage(p.OwnerID) {
		respondError(w, http.StatusForbidden, CodeForbidden, "You do not manage this playlist", nil)
		return nil
	}
	return p
}

// ListPlaylists returns the caller's playlists, newest first.
func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	summaries, err := h.db.ListPlaylistsByOwner(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to list playlists", err)
		return
	}
	respondData(w, http.StatusOK, summaries)
}

// GetPlaylist returns full playlist detail including stored content.
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	p := h.loadManaged(w, r)
	if p == nil {
		return
	}
	respondData(w, http.StatusOK, &playlistDetail{Playlist: p, Content: p.Content})
}

// UpdatePlaylist mutates playlist fields. Content updates replace the
// stored text wholesale and stamp last_updated_at.
func (h *Handler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePlaylistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	p := h.loadManaged(w, r)
	if p == nil {
		return
	}

	patch, ok := h.buildPatch(w, p, &req)
	if !ok {
		return
	}

	if err := h.db.UpdatePlaylist(r.Context(), p.Token, patch); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to update playlist", err)
		return
	}
	if patch.ShowOnBoard != nil {
		h.ClearBoardCache()
	}

	updated, err := h.db.GetPlaylist(r.Context(), p.Token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to reload playlist", err)
		return
	}
	respondData(w, http.StatusOK, &playlistDetail{Playlist: updated, Content: updated.Content})
}

// buildPatch validates the update request against the playlist's resulting
// state and converts it to a storage patch. The auto-update invariants are
// checked against the merged state, so disabling the source URL of an
// auto-updating playlist is rejected.
func (h *Handler) buildPatch(w http.ResponseWriter, p *models.Playlist, req *models.UpdatePlaylistRequest) (*models.PlaylistPatch, bool) {
	patch := &models.PlaylistPatch{
		Name:               req.Name,
		Content:            req.Content,
		SourceURL:          req.SourceURL,
		AutoUpdate:         req.AutoUpdate,
		AutoUpdateInterval: req.AutoUpdateInterval,
		ShowOnBoard:        req.ShowOnBoard,
	}

	if req.Content != nil && !m3u.CheckSize(*req.Content) {
		respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Playlist exceeds the 5MB limit", nil)
		return nil, false
	}

	if req.Rules != nil {
		ruleList := toRules(*req.Rules)
		if err := rules.Validate(ruleList); err != nil {
			var ruleErr *rules.InvalidRuleError
			if errors.As(err, &ruleErr) {
				respondInvalidRule(w, ruleErr)
				return nil, false
			}
			respondError(w, http.StatusBadRequest, CodeInvalidRule, err.Error(), nil)
			return nil, false
		}
		patch.Rules = &ruleList
	}

	// Merged state after the patch would apply.
	autoUpdate := p.AutoUpdate
	if req.AutoUpdate != nil {
		autoUpdate = *req.AutoUpdate
	}
	sourceURL := p.SourceURL
	if req.SourceURL != nil {
		sourceURL = *req.SourceURL
	}
	interval := p.AutoUpdateInterval
	if req.AutoUpdateInterval != nil {
		interval = *req.AutoUpdateInterval
	}

	if autoUpdate {
		if sourceURL == "" {
			respondError(w, http.StatusBadRequest, CodeInvalidConfiguration, "Auto-update requires a source URL", nil)
			return nil, false
		}
		if interval < models.MinUpdateInterval || interval > models.MaxUpdateInterval {
			respondError(w, http.StatusBadRequest, CodeInvalidConfiguration, "Auto-update interval must be between 30 and 86400 seconds", nil)
			return nil, false
		}
	}
	return patch, true
}

// DeletePlaylist removes the playlist and all its hits and check history.
func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	p := h.loadManaged(w, r)
	if p == nil {
		return
	}

	if err := h.db.DeletePlaylist(r.Context(), p.Token); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to delete playlist", err)
		return
	}
	h.ClearBoardCache()
	respondData(w, http.StatusOK, map[string]string{"deleted": p.Token})
}

// CheckPlaylist probes the playlist's source immediately and returns the
// recorded outcome.
func (h *Handler) CheckPlaylist(w http.ResponseWriter, r *http.Request) {
	p := h.loadManaged(w, r)
	if p == nil {
		return
	}
	if p.SourceURL == "" {
		respondError(w, http.StatusBadRequest, CodeInvalidConfiguration, "Playlist has no source URL to check", nil)
		return
	}

	entry, err := h.checker.CheckNow(r.Context(), p.Token, p.SourceURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to record check", err)
		return
	}
	respondData(w, http.StatusOK, entry)
}

// RefreshPlaylist re-fetches and rewrites the playlist's content
// immediately. A refresh already in flight is reported, not queued.
func (h *Handler) RefreshPlaylist(w http.ResponseWriter, r *http.Request) {
	p := h.loadManaged(w, r)
	if p == nil {
		return
	}

	if err := h.refresher.TriggerRefresh(r.Context(), p.Token); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrRefreshInFlight):
			respondError(w, http.StatusConflict, CodeRefreshInFlight, "A refresh is already running for this playlist", nil)
		case errors.Is(err, scheduler.ErrNoSource):
			respondError(w, http.StatusBadRequest, CodeInvalidConfiguration, "Playlist has no source URL to refresh from", nil)
		default:
			respondFetchError(w, err)
		}
		return
	}

	updated, err := h.db.GetPlaylist(r.Context(), p.Token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to reload playlist", err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// PlaylistHistory returns recent health check outcomes, newest first.
func (h *Handler) PlaylistHistory(w http.ResponseWriter, r *http.Request) {
	p := h.loadManaged(w, r)
	if p == nil {
		return
	}

	limit := getIntParam(r, "limit", 20)
	if limit < 1 || limit > 50 {
		limit = 20
	}
	entries, err := h.db.CheckHistory(r.Context(), p.Token, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load check history", err)
		return
	}
	respondData(w, http.StatusOK, entries)
}
