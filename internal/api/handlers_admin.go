// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/models"
)

// AdminStats returns service-wide counts for the admin dashboard.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.AdminStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load stats", err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

// ListUsers returns all accounts, pending first.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to list users", err)
		return
	}
	respondData(w, http.StatusOK, users)
}

// userIDParam parses the {id} URL segment. Returns -1 after writing the
// error response.
func userIDParam(w http.ResponseWriter, r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid user ID", nil)
		return -1
	}
	return id
}

// loadUser fetches the target account. Returns nil after writing the error
// response.
func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request, id int64) *models.User {
	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "User not found", nil)
			return nil
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load user", err)
		return nil
	}
	return user
}

// guardLastAdmin blocks an operation that would leave the system with no
// admin account. Returns false after writing the error response.
func (h *Handler) guardLastAdmin(w http.ResponseWriter, r *http.Request, target *models.User) bool {
	if !target.IsAdmin() {
		return true
	}
	count, err := h.db.CountAdmins(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to count admins", err)
		return false
	}
	if count <= 1 {
		respondError(w, http.StatusBadRequest, CodeLastAdmin, "Cannot remove the last admin account", nil)
		return false
	}
	return true
}

// ApproveUser moves a pending account to approved.
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id < 0 {
		return
	}
	user := h.loadUser(w, r, id)
	if user == nil {
		return
	}

	if err := h.db.SetUserStatus(r.Context(), id, models.UserStatusApproved); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to approve user", err)
		return
	}
	logging.Info().Str("username", sanitizeLogValue(user.Username)).Msg("Account approved")

	user.Status = models.UserStatusApproved
	respondData(w, http.StatusOK, user)
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// SetUserRole changes an account's role. Demoting the last remaining admin
// is refused.
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id < 0 {
		return
	}

	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	user := h.loadUser(w, r, id)
	if user == nil {
		return
	}
	if req.Role != models.RoleAdmin && !h.guardLastAdmin(w, r, user) {
		return
	}

	if err := h.db.SetUserRole(r.Context(), id, req.Role); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to change role", err)
		return
	}
	logging.Info().
		Str("username", sanitizeLogValue(user.Username)).
		Str("role", req.Role).
		Msg("Account role changed")

	user.Role = req.Role
	respondData(w, http.StatusOK, user)
}

// DeleteUser removes an account. Playlists owned by the account survive as
// ownerless. Deleting the last remaining admin is refused.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id < 0 {
		return
	}
	user := h.loadUser(w, r, id)
	if user == nil {
		return
	}
	if !h.guardLastAdmin(w, r, user) {
		return
	}

	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to delete user", err)
		return
	}
	logging.Info().Str("username", sanitizeLogValue(user.Username)).Msg("Account deleted")
	respondData(w, http.StatusOK, map[string]int64{"deleted": id})
}

// SearchPlaylists searches playlists across all owners by name or token
// fragment.
func (h *Handler) SearchPlaylists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := getIntParam(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	summaries, err := h.db.SearchPlaylists(r.Context(), query, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to search playlists", err)
		return
	}
	respondData(w, http.StatusOK, summaries)
}

// GetSettings returns the mutable system settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	open, err := h.db.OpenRegistration(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to read settings", err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"open_registration": open})
}

// UpdateSettings applies changes to the mutable system settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SettingsUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.OpenRegistration != nil {
		if err := h.db.SetSetting(r.Context(), database.SettingOpenRegistration, strconv.FormatBool(*req.OpenRegistration)); err != nil {
			respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to update settings", err)
			return
		}
		logging.Info().Bool("open_registration", *req.OpenRegistration).Msg("Registration setting changed")
	}

	h.GetSettings(w, r)
}
