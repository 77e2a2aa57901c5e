// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/playlistforge/internal/models"
)

// Board returns the public popularity ranking for the requested period.
// Results are cached briefly since the underlying aggregation scans the
// hits table.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = models.PeriodTotal
	}
	switch period {
	case models.PeriodTotal, models.Period24h, models.Period7d, models.Period30d:
	default:
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "Period must be one of: total, 24h, 7d, 30d", nil)
		return
	}

	cacheKey := "board:" + period
	if cached, ok := h.boardCache.Get(cacheKey); ok {
		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status:   "success",
			Data:     cached,
			Metadata: models.Metadata{Timestamp: time.Now().UTC(), Cached: true},
		})
		return
	}

	start := time.Now()
	entries, err := h.db.Board(r.Context(), period)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to build board", err)
		return
	}
	queryTime := time.Since(start).Milliseconds()

	h.boardCache.Set(cacheKey, entries)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     entries,
		Metadata: models.Metadata{Timestamp: time.Now().UTC(), QueryTimeMS: queryTime},
	})
}
