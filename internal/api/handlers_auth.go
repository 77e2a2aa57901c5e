// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/playlistforge/internal/auth"
	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/models"
)

// Register creates a new account. When open registration is enabled the
// account is approved immediately; otherwise it waits in the pending queue
// until an admin approves it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	open, err := h.db.OpenRegistration(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to read registration setting", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, err.Error(), nil)
		return
	}

	status := models.UserStatusPending
	if open {
		status = models.UserStatusApproved
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       status,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondError(w, http.StatusConflict, CodeDuplicateUsername, "Username is already taken", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to create account", err)
		return
	}

	logging.Info().Str("username", sanitizeLogValue(user.Username)).Str("status", user.Status).Msg("Account registered")
	respondData(w, http.StatusCreated, user)
}

// Login verifies credentials and returns a session token. Pending accounts
// authenticate but are refused until approved.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load account", err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password", nil)
		return
	}
	if user.Status != models.UserStatusApproved {
		respondError(w, http.StatusForbidden, CodePendingApproval, "Account is awaiting approval", nil)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to create session", err)
		return
	}

	respondData(w, http.StatusOK, &models.LoginResponse{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	})
}

// Me returns the authenticated caller's identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	respondData(w, http.StatusOK, identity)
}
