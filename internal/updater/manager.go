// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wacrm/internal/logging"
)

// Manager orchestrates version checks, downloads, backups, installs and
// restores for one application root.
type Manager struct {
	cfg            Config
	client         *http.Client
	downloadClient *http.Client
	breaker        *gobreaker.CircuitBreaker[*Manifest]
	status         StatusStore
	lock           *rootLock
	fs             fileOps
	now            func() time.Time

	jobs sync.WaitGroup
	busy atomic.Bool
}

// NewManager validates cfg and creates a Manager. A nil store selects a
// FileStatusStore next to the version marker.
func NewManager(cfg Config, store StatusStore) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid updater config: %w", err)
	}
	if store == nil {
		store = NewFileStatusStore(cfg.defaultStatusPath(StatusStoreFile), DefaultStatusHistory)
	}

	return &Manager{
		cfg:            cfg,
		client:         &http.Client{Timeout: cfg.HTTPTimeout},
		downloadClient: &http.Client{Timeout: cfg.DownloadTimeout},
		breaker:        newManifestBreaker(cfg.Breaker),
		status:         store,
		lock:           newRootLock(cfg.AppRoot, cfg.lockPath()),
		fs:             osFileOps{},
		now:            time.Now,
	}, nil
}

// Config returns the effective configuration with defaults applied.
func (m *Manager) Config() Config {
	return m.cfg
}

// Wait blocks until all detached jobs have finished.
func (m *Manager) Wait() {
	m.jobs.Wait()
}

// Serve implements suture.Service. It idles until ctx is cancelled and then
// waits for detached jobs, so a supervisor shutdown never cuts an install short.
func (m *Manager) Serve(ctx context.Context) error {
	<-ctx.Done()
	logging.Info().Msg("Waiting for in-flight update jobs")
	m.Wait()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (m *Manager) String() string {
	return "update-manager"
}
