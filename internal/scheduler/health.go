// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/fetch"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/models"
)

// Prober issues one health probe against a source URL.
type Prober interface {
	Probe(ctx context.Context, url string) fetch.ProbeResult
}

// HealthDB is the slice of database operations the health loop needs.
type HealthDB interface {
	HealthCheckCandidates(ctx context.Context, cutoff time.Time) ([]models.Playlist, error)
	RecordCheck(ctx context.Context, entry *models.CheckHistoryEntry, historyLimit int) error
}

// HealthManager owns the source health sweep. It runs on its own cadence,
// fully decoupled from content refresh: a probe never touches stored
// content and a refresh never records a check.
type HealthManager struct {
	db       HealthDB
	prober   Prober
	cfg      *config.HealthConfig
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewHealthManager creates the health sweep manager.
func NewHealthManager(db HealthDB, prober Prober, cfg *config.HealthConfig) *HealthManager {
	return &HealthManager{
		db:       db,
		prober:   prober,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic health sweep.
func (m *HealthManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("health manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	logging.Info().
		Dur("tick", m.cfg.TickInterval).
		Dur("check_interval", m.cfg.CheckInterval).
		Msg("Starting health manager")

	m.wg.Add(1)
	go m.runLoop(ctx)
	return nil
}

// Stop shuts the sweep down and waits for the current pass to finish.
func (m *HealthManager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("health manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Health manager stopped")
	return nil
}

func (m *HealthManager) runLoop(ctx context.Context) {
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

// runPass probes every playlist whose last check is older than the
// configured interval. Probes run on a bounded worker pool so one hanging
// source cannot stall the rest of the sweep behind its probe timeout.
func (m *HealthManager) runPass(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.cfg.CheckInterval)
	candidates, err := m.db.HealthCheckCandidates(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load health check candidates")
		return
	}
	if len(candidates) == 0 {
		return
	}

	logging.Debug().Int("candidates", len(candidates)).Msg("Health sweep starting")

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
				if _, err := m.CheckNow(ctx, p.Token, p.SourceURL); err != nil {
					logging.Warn().Err(err).Str("token", p.Token).Msg("Failed to record health check")
				}
			}
		}()
	}
	for _, p := range candidates {
		select {
		case <-ctx.Done():
			close(jobs)
			passWg.Wait()
			return
		case <-m.stopChan:
			close(jobs)
			passWg.Wait()
			return
		case jobs <- p:
		}
	}
	close(jobs)
	passWg.Wait()
}

// CheckNow probes a source and records the outcome. The scheduled sweep and
// the manual check endpoint both call this, so the two paths can never
// diverge in what they record.
func (m *HealthManager) CheckNow(ctx context.Context, token, sourceURL string) (*models.CheckHistoryEntry, error) {
	result := m.prober.Probe(ctx, sourceURL)

	entry := &models.CheckHistoryEntry{
		Token:     token,
		CheckedAt: time.Now().UTC(),
		Status:    models.CheckStatusFail,
		HTTPCode:  result.HTTPCode,
		Detail:    result.Detail,
	}
	if result.OK {
		entry.Status = models.CheckStatusOK
	}

	if err := m.db.RecordCheck(ctx, entry, m.cfg.HistoryLimit); err != nil {
		return nil, err
	}
	return entry, nil
}
