// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package main is the entry point for the Playlistforge server.
//
// Playlistforge rewrites IPTV M3U playlists with ordered search/replace
// rules and publishes the result under a stable token URL that players can
// poll. Published playlists can re-fetch themselves from their source on a
// schedule, and sources are health checked daily.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Database: DuckDB with versioned migrations
//  3. Bootstrap: admin account from ADMIN_USERNAME / ADMIN_PASSWORD
//  4. Outbound client: rate-limited fetcher with circuit breaker
//  5. Background managers: auto-update scheduler, source health checker
//  6. HTTP server: Chi router with JWT authentication
//  7. Supervisor tree: Suture supervision of managers and the server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
//
// Required for authenticated operation:
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME / ADMIN_PASSWORD: bootstrap admin credentials
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains in-flight requests (10s timeout), the background managers stop,
// and the database closes last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/playlistforge/internal/api"
	"github.com/tomtom215/playlistforge/internal/auth"
	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/database"
	"github.com/tomtom215/playlistforge/internal/fetch"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/models"
	"github.com/tomtom215/playlistforge/internal/scheduler"
	"github.com/tomtom215/playlistforge/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("updater_enabled", cfg.Updater.Enabled).
		Bool("health_enabled", cfg.Health.Enabled).
		Msg("Starting Playlistforge")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if err := bootstrapAdmin(context.Background(), db, &cfg.Security); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	logging.Info().Msg("JWT authentication enabled")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
		logging.Warn().Msg("This should only be used for local development and tests!")
	}

	// Context canceled by the shutdown signal handler below.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetchClient := fetch.NewClient(&cfg.Fetch)
	updater := scheduler.NewUpdateManager(db, fetchClient, &cfg.Updater)
	health := scheduler.NewHealthManager(db, fetchClient, &cfg.Health)

	handler := api.NewHandler(db, cfg, jwtManager, fetchClient, updater, health)

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(mwCfg))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// sutureslog needs slog; the adapter bridges it into zerolog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Updater.Enabled {
		tree.AddWorkerService(supervisor.NewManagerService(updater, "auto-updater"))
		logging.Info().
			Dur("tick_interval", cfg.Updater.TickInterval).
			Int("workers", cfg.Updater.Workers).
			Msg("Auto-update manager added to supervisor tree")
	} else {
		logging.Info().Msg("Auto-update manager disabled (UPDATER_ENABLED=false)")
	}

	if cfg.Health.Enabled {
		tree.AddWorkerService(supervisor.NewManagerService(health, "health-checker"))
		logging.Info().
			Dur("check_interval", cfg.Health.CheckInterval).
			Msg("Health check manager added to supervisor tree")
	} else {
		logging.Info().Msg("Health check manager disabled (HEALTH_ENABLED=false)")
	}

	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// bootstrapAdmin ensures an approved admin account exists when bootstrap
// credentials are configured. An existing account is left untouched so a
// changed password in the environment does not silently rotate it.
func bootstrapAdmin(ctx context.Context, db *database.DB, sec *config.SecurityConfig) error {
	if sec.AdminUsername == "" || sec.AdminPassword == "" {
		logging.Warn().Msg("No bootstrap admin configured (ADMIN_USERNAME/ADMIN_PASSWORD unset)")
		return nil
	}

	_, err := db.GetUserByUsername(ctx, sec.AdminUsername)
	if err == nil {
		logging.Info().Str("username", sec.AdminUsername).Msg("Bootstrap admin already exists")
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	hash, err := auth.HashPassword(sec.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     sec.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserStatusApproved,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logging.Info().Str("username", sec.AdminUsername).Msg("Bootstrap admin account created")
	return nil
}
