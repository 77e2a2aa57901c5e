// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package scheduler runs the two background loops: periodic playlist
// refresh from source URLs and periodic source health probing. Both expose
// the same manual entry points the API uses, so a manual refresh or check
// behaves identically to a scheduled one.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/metrics"
	"github.com/tomtom215/playlistforge/internal/models"
	"github.com/tomtom215/playlistforge/internal/rules"
)

// ErrRefreshInFlight is returned when a refresh for the token is already
// running. The caller treats this as a skip, never as a queue.
var ErrRefreshInFlight = errors.New("refresh already in flight for this playlist")

// ErrNoSource is returned when a refresh is requested for a playlist with
// no source URL to fetch from.
var ErrNoSource = errors.New("playlist has no source URL")

// Fetcher downloads playlist content from a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// UpdaterDB is the slice of database operations the refresh loop needs.
type UpdaterDB interface {
	AutoUpdateCandidates(ctx context.Context) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, token string) (*models.Playlist, error)
	ReplaceContent(ctx context.Context, token, content string) error
	SetUpdateError(ctx context.Context, token, detail string) error
}

// UpdateManager owns the auto-refresh loop. Each tick it loads the
// auto-update candidates, filters the ones whose interval has elapsed, and
// refreshes them on a bounded worker pool. A token with a refresh already
// in flight is skipped for the pass; the next due tick picks it up again.
type UpdateManager struct {
	db       UpdaterDB
	fetcher  Fetcher
	cfg      *config.UpdaterConfig
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	wg       sync.WaitGroup

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

// NewUpdateManager creates the refresh loop manager.
func NewUpdateManager(db UpdaterDB, fetcher Fetcher, cfg *config.UpdaterConfig) *UpdateManager {
	return &UpdateManager{
		db:       db,
		fetcher:  fetcher,
		cfg:      cfg,
		stopChan: make(chan struct{}),
		inFlight: make(map[string]struct{}),
	}
}

// Start begins the periodic refresh loop.
func (m *UpdateManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("update manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	logging.Info().
		Dur("tick", m.cfg.TickInterval).
		Int("workers", m.cfg.Workers).
		Msg("Starting update manager")

	m.wg.Add(1)
	go m.runLoop(ctx)
	return nil
}

// Stop shuts the loop down and waits for in-flight refreshes to finish.
func (m *UpdateManager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("update manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Update manager stopped")
	return nil
}

func (m *UpdateManager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.runPass(ctx)
		}
	}
}

// runPass refreshes every due playlist on a bounded worker pool. Errors are
// recorded per playlist; the pass itself never fails the loop.
func (m *UpdateManager) runPass(ctx context.Context) {
	candidates, err := m.db.AutoUpdateCandidates(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load auto-update candidates")
		return
	}

	now := time.Now().UTC()
	var due []models.Playlist
	for _, p := range candidates {
		if isDue(&p, now) {
			due = append(due, p)
		}
	}
	metrics.RefreshQueueDepth.Set(float64(len(due)))
	if len(due) == 0 {
		return
	}

	logging.Debug().Int("due", len(due)).Int("candidates", len(candidates)).Msg("Refresh pass starting")

	workers := m.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan models.Playlist)
	var passWg sync.WaitGroup
	for i := 0; i < workers; i++ {
		passWg.Add(1)
		go func() {
			defer passWg.Done()
			for p := range jobs {
				if err := m.refresh(ctx, &p, "scheduled"); err != nil && !errors.Is(err, ErrRefreshInFlight) {
					logging.Warn().Err(err).Str("token", p.Token).Msg("Scheduled refresh failed")
				}
			}
		}()
	}
	for _, p := range due {
		jobs <- p
	}
	close(jobs)
	passWg.Wait()
}

// isDue reports whether the playlist's interval has elapsed since its last
// successful content update. Never-updated playlists are due immediately.
func isDue(p *models.Playlist, now time.Time) bool {
	if p.LastUpdatedAt == nil {
		return true
	}
	return now.Sub(*p.LastUpdatedAt) >= time.Duration(p.AutoUpdateInterval)*time.Second
}

// TriggerRefresh refreshes a single playlist immediately, sharing the
// in-flight exclusion with the scheduled loop. Returns ErrRefreshInFlight
// when a refresh for the token is already running.
func (m *UpdateManager) TriggerRefresh(ctx context.Context, token string) error {
	p, err := m.db.GetPlaylist(ctx, token)
	if err != nil {
		return err
	}
	return m.refresh(ctx, p, "manual")
}

// refresh downloads, rewrites, and swaps in new content for one playlist.
// On any failure the stored content stays untouched and the error lands in
// update_error.
func (m *UpdateManager) refresh(ctx context.Context, p *models.Playlist, trigger string) error {
	if p.SourceURL == "" {
		return ErrNoSource
	}
	if !m.tryAcquire(p.Token) {
		metrics.RecordRefresh(trigger, "skipped", 0)
		logging.Debug().Str("token", p.Token).Msg("Refresh skipped, already in flight")
		return ErrRefreshInFlight
	}
	defer m.release(p.Token)

	start := time.Now()
	content, err := m.fetcher.Fetch(ctx, p.SourceURL)
	if err == nil {
		content, err = rules.Apply(content, p.Rules)
	}
	if err != nil {
		metrics.RecordRefresh(trigger, "failure", time.Since(start))
		if dbErr := m.db.SetUpdateError(ctx, p.Token, err.Error()); dbErr != nil {
			logging.Error().Err(dbErr).Str("token", p.Token).Msg("Failed to record refresh error")
		}
		return err
	}

	if err := m.db.ReplaceContent(ctx, p.Token, content); err != nil {
		metrics.RecordRefresh(trigger, "failure", time.Since(start))
		return err
	}
	metrics.RecordRefresh(trigger, "success", time.Since(start))
	logging.Debug().Str("token", p.Token).Int("bytes", len(content)).Msg("Playlist refreshed")
	return nil
}

func (m *UpdateManager) tryAcquire(token string) bool {
	m.inFlightMu.Lock()
	defer m.inFlightMu.Unlock()
	if _, busy := m.inFlight[token]; busy {
		return false
	}
	m.inFlight[token] = struct{}{}
	return true
}

func (m *UpdateManager) release(token string) {
	m.inFlightMu.Lock()
	defer m.inFlightMu.Unlock()
	delete(m.inFlight, token)
}
