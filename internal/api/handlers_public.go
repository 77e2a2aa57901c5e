// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/metrics"
)

// RawPlaylist serves the stored playlist text for IPTV players. The token
// may carry a .m3u suffix so the URL pastes cleanly into player apps.
// Every successful read counts as a hit.
func (h *Handler) RawPlaylist(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSuffix(chi.URLParam(r, "token"), ".m3u")

	content, err := h.db.GetPlaylistContent(r.Context(), token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load playlist", err)
		return
	}

	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", `attachment; filename="playlist.m3u"`)
	if _, err := w.Write([]byte(content)); err != nil {
		logging.Error().Err(err).Msg("Failed to write playlist response")
		return
	}
	metrics.RecordPlaylistRead(len(content))

	// A failed hit write must not fail the read the player already got.
	if err := h.db.RecordHit(r.Context(), token); err != nil {
		logging.Error().Err(err).Str("token", sanitizeLogValue(token)).Msg("Failed to record playlist hit")
	}
}
