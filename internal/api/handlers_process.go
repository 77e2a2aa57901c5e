// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/playlistforge/internal/fetch"
	"github.com/tomtom215/playlistforge/internal/m3u"
	"github.com/tomtom215/playlistforge/internal/models"
	"github.com/tomtom215/playlistforge/internal/rules"
)

// previewBytes caps the preview returned by Process so a 5MB paste does not
// round-trip on every keystroke.
const previewBytes = 5000

// processResponse is the result of a stateless rewrite preview.
type processResponse struct {
	Preview   string    `json:"preview"`
	Truncated bool      `json:"truncated"`
	Stats     m3u.Stats `json:"stats"`
}

// fetchResponse is the result of a server-side source fetch.
type fetchResponse struct {
	Content string    `json:"content"`
	Stats   m3u.Stats `json:"stats"`
}

// Process applies rules to pasted content and returns a bounded preview
// with stats. Nothing is persisted.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}
	if !m3u.CheckSize(req.Content) {
		respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Playlist exceeds the 5MB limit", nil)
		return
	}

	result, err := rules.Apply(req.Content, toRules(req.Rules))
	if err != nil {
		var ruleErr *rules.InvalidRuleError
		if errors.As(err, &ruleErr) {
			respondInvalidRule(w, ruleErr)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to apply rules", err)
		return
	}

	preview, truncated := m3u.Preview(result, previewBytes)
	respondData(w, http.StatusOK, &processResponse{
		Preview:   preview,
		Truncated: truncated,
		Stats:     m3u.Analyze(result),
	})
}

// FetchM3U downloads a playlist from a source URL on the caller's behalf,
// working around CORS restrictions that block browser-side fetches.
func (h *Handler) FetchM3U(w http.ResponseWriter, r *http.Request) {
	var req models.FetchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	content, err := h.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		respondFetchError(w, err)
		return
	}

	respondData(w, http.StatusOK, &fetchResponse{
		Content: content,
		Stats:   m3u.Analyze(content),
	})
}

// respondFetchError maps outbound fetch failures onto API error codes.
func respondFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, fetch.ErrTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Source playlist exceeds the 5MB limit", nil)
		return
	}
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		respondAPIError(w, http.StatusBadGateway, &models.APIError{
			Code:    CodeFetchFailed,
			Message: statusErr.Error(),
			Details: map[string]interface{}{"http_code": statusErr.Code},
		})
		return
	}
	respondError(w, http.StatusBadGateway, CodeFetchFailed, "Failed to fetch source playlist", err)
}

// Generate publishes a playlist: the submitted content is rewritten with
// the submitted rules and stored under a fresh token.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}
	if !m3u.CheckSize(req.Content) {
		respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Playlist exceeds the 5MB limit", nil)
		return
	}

	ruleList := toRules(req.Rules)
	content, err := rules.Apply(req.Content, ruleList)
	if err != nil {
		var ruleErr *rules.InvalidRuleError
		if errors.As(err, &ruleErr) {
			respondInvalidRule(w, ruleErr)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to apply rules", err)
		return
	}

	if req.AutoUpdate {
		if req.SourceURL == "" {
			respondError(w, http.StatusBadRequest, CodeInvalidConfiguration, "Auto-update requires a source URL", nil)
			return
		}
		if req.AutoUpdateInterval < models.MinUpdateInterval || req.AutoUpdateInterval > models.MaxUpdateInterval {
			respondError(w, http.StatusBadRequest, CodeInvalidConfiguration, "Auto-update interval must be between 30 and 86400 seconds", nil)
			return
		}
	}

	identity := identityFromContext(r.Context())
	p := &models.Playlist{
		Name:               req.Name,
		Content:            content,
		SourceURL:          req.SourceURL,
		Rules:              ruleList,
		AutoUpdate:         req.AutoUpdate,
		AutoUpdateInterval: req.AutoUpdateInterval,
		ShowOnBoard:        req.ShowOnBoard,
	}
	if identity != nil {
		ownerID := identity.UserID
		p.OwnerID = &ownerID
	}

	if err := h.db.CreatePlaylist(r.Context(), p); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to create playlist", err)
		return
	}
	respondData(w, http.StatusCreated, p)
}
