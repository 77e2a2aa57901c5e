// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler *Handler
	chiMw   *ChiMiddleware
}

// NewRouter creates a router for the given handler and middleware set.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	return &Router{handler: handler, chiMw: chiMw}
}

// SetupChi builds the full route tree.
//
// Layout:
//   - /health, /metrics: operational endpoints, no auth
//   - /api/auth: registration and login, tight rate limits
//   - /api/process, /api/fetch-m3u, /api/generate: the editor workflow
//   - /api/playlists: management of published playlists
//   - /api/board: public popularity ranking
//   - /api/admin: admin panel, admin role required
//   - /p/{token}: raw playlist delivery for IPTV players
func (rt *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := rt.handler
	mw := rt.chiMw

	// CORS must run before routing so OPTIONS preflights are answered.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(PrometheusMetrics())

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimitCustom(RateLimitPublic))
		r.Get("/health", h.Health)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Route("/auth", func(r chi.Router) {
			r.With(mw.RateLimitCustom(RateLimitAuth)).Post("/register", h.Register)
			r.With(mw.RateLimitCustom(RateLimitLogin)).Post("/login", h.Login)
			r.With(h.Authenticate, mw.RateLimitCustom(RateLimitAPI)).Get("/me", h.Me)
		})

		// The editor workflow is open to anonymous callers; a playlist
		// published without an identity is ownerless.
		r.Group(func(r chi.Router) {
			r.Use(h.OptionalIdentity)
			r.Use(mw.RateLimitCustom(RateLimitWrite))
			r.Post("/process", h.Process)
			r.Post("/fetch-m3u", h.FetchM3U)
			r.Post("/generate", h.Generate)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.With(mw.RateLimitCustom(RateLimitAPI)).Get("/", h.ListPlaylists)

			r.Route("/{token}", func(r chi.Router) {
				r.With(mw.RateLimitCustom(RateLimitAPI)).Get("/", h.GetPlaylist)
				r.With(mw.RateLimitCustom(RateLimitAPI)).Get("/history", h.PlaylistHistory)
				r.Group(func(r chi.Router) {
					r.Use(mw.RateLimitCustom(RateLimitWrite))
					r.Put("/", h.UpdatePlaylist)
					r.Delete("/", h.DeletePlaylist)
					r.Post("/check", h.CheckPlaylist)
					r.Post("/refresh", h.RefreshPlaylist)
				})
			})
		})

		r.With(mw.RateLimitCustom(RateLimitPublic)).Get("/board", h.Board)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Use(h.RequireAdmin)
			r.Use(mw.RateLimitCustom(RateLimitAPI))
			r.Get("/stats", h.AdminStats)
			r.Get("/users", h.ListUsers)
			r.Post("/users/{id}/approve", h.ApproveUser)
			r.Put("/users/{id}/role", h.SetUserRole)
			r.Delete("/users/{id}", h.DeleteUser)
			r.Get("/playlists", h.SearchPlaylists)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)
		})
	})

	r.With(mw.RateLimitCustom(RateLimitRaw)).Get("/p/{token}", h.RawPlaylist)

	return r
}
