// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFromContext returns the authenticated caller, or nil for
// anonymous requests.
func identityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityKey).(*models.Identity)
	return identity
}

// extractToken pulls the bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Authenticate requires a valid session token and a still-approved account.
// The account lookup on every request means deleting or suspending a user
// takes effect immediately, despite tokens being stateless.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := h.jwtManager.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token", nil)
			return
		}

		user, err := h.db.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, CodeUnauthorized, "Account no longer exists", nil)
				return
			}
			respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load account", err)
			return
		}
		if user.Status != models.UserStatusApproved {
			respondError(w, http.StatusForbidden, CodePendingApproval, "Account is awaiting approval", nil)
			return
		}

		identity := &models.Identity{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

// OptionalIdentity resolves the caller's identity when a bearer token is
// present and proceeds anonymously otherwise. The editor workflow uses
// this: anyone may preview and publish, and playlists published without an
// identity are ownerless. A malformed or expired token is still rejected;
// a token whose account is gone or not yet approved degrades to anonymous.
func (h *Handler) OptionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := h.jwtManager.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token", nil)
			return
		}

		user, err := h.db.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load account", err)
			return
		}
		if user.Status != models.UserStatusApproved {
			next.ServeHTTP(w, r)
			return
		}

		identity := &models.Identity{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

// RequireAdmin allows only admin identities through. Must run after
// Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFromContext(r.Context()).IsAdmin() {
			respondError(w, http.StatusForbidden, CodeForbidden, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
