// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

// Machine-readable error codes returned in APIError.Code. Clients switch on
// these; messages are for humans and may change.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeInvalidRule          = "INVALID_RULE"
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodePendingApproval      = "PENDING_APPROVAL"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeDuplicateUsername    = "DUPLICATE_USERNAME"
	CodeFetchFailed          = "FETCH_FAILED"
	CodeRefreshInFlight      = "REFRESH_IN_FLIGHT"
	CodeLastAdmin            = "LAST_ADMIN"
	CodeInternalError        = "INTERNAL_ERROR"
)
