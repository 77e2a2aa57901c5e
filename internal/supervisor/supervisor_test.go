// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeManager struct {
	started  atomic.Int32
	stopped  atomic.Int32
	startErr error
}

func (m *fakeManager) Start(_ context.Context) error {
	m.started.Add(1)
	return m.startErr
}

func (m *fakeManager) Stop() error {
	m.stopped.Add(1)
	return nil
}

func TestManagerService(t *testing.T) {
	t.Run("starts then stops on cancel", func(t *testing.T) {
		mgr := &fakeManager{}
		svc := NewManagerService(mgr, "test-manager")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		// Give Serve time to start the manager before canceling.
		deadline := time.After(time.Second)
		for mgr.started.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("manager never started")
			case <-time.After(time.Millisecond):
			}
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		if mgr.stopped.Load() != 1 {
			t.Errorf("stopped = %d, want 1", mgr.stopped.Load())
		}
	})

	t.Run("start failure propagates", func(t *testing.T) {
		mgr := &fakeManager{startErr: errors.New("boom")}
		svc := NewManagerService(mgr, "test-manager")

		if err := svc.Serve(context.Background()); err == nil {
			t.Fatal("expected start error")
		}
		if mgr.stopped.Load() != 0 {
			t.Error("stop should not run after failed start")
		}
	})

	t.Run("name used for suture logs", func(t *testing.T) {
		svc := NewManagerService(&fakeManager{}, "updater")
		if svc.String() != "updater" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}

type fakeHTTPServer struct {
	listenErr  error
	closed     chan struct{}
	shutdowns  atomic.Int32
	shutdownCh chan struct{}
}

func newFakeHTTPServer(listenErr error) *fakeHTTPServer {
	return &fakeHTTPServer{
		listenErr:  listenErr,
		closed:     make(chan struct{}),
		shutdownCh: make(chan struct{}, 1),
	}
}

func (s *fakeHTTPServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.closed
	return errors.New("http: Server closed")
}

func (s *fakeHTTPServer) Shutdown(_ context.Context) error {
	s.shutdowns.Add(1)
	close(s.closed)
	s.shutdownCh <- struct{}{}
	return nil
}

func TestHTTPServerService(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		srv := newFakeHTTPServer(nil)
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("shutdowns = %d, want 1", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure propagates", func(t *testing.T) {
		srv := newFakeHTTPServer(errors.New("address in use"))
		svc := NewHTTPServerService(srv, time.Second)

		if err := svc.Serve(context.Background()); err == nil {
			t.Fatal("expected listen error")
		}
	})
}

func TestTree(t *testing.T) {
	logger := slog.Default()

	t.Run("zero config gets defaults", func(t *testing.T) {
		tree, err := NewTree(logger, TreeConfig{})
		if err != nil {
			t.Fatalf("NewTree failed: %v", err)
		}
		if tree.config.FailureThreshold != 5.0 {
			t.Errorf("threshold = %v, want 5.0", tree.config.FailureThreshold)
		}
		if tree.config.ShutdownTimeout != 10*time.Second {
			t.Errorf("timeout = %v, want 10s", tree.config.ShutdownTimeout)
		}
	})

	t.Run("supervised services run and stop with the tree", func(t *testing.T) {
		tree, err := NewTree(logger, DefaultTreeConfig())
		if err != nil {
			t.Fatalf("NewTree failed: %v", err)
		}

		mgr := &fakeManager{}
		tree.AddWorkerService(NewManagerService(mgr, "worker"))

		srv := newFakeHTTPServer(nil)
		tree.AddAPIService(NewHTTPServerService(srv, time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		deadline := time.After(2 * time.Second)
		for mgr.started.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("worker never started under supervision")
			case <-time.After(time.Millisecond):
			}
		}

		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not stop")
		}
		if mgr.stopped.Load() == 0 {
			t.Error("worker was not stopped")
		}
		if srv.shutdowns.Load() == 0 {
			t.Error("http server was not shut down")
		}
	})
}
