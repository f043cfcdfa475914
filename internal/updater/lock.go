// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

// rootMutexes holds one mutex per application root for the whole process,
// so two Managers configured for the same root still exclude each other.
var rootMutexes sync.Map

// rootLock is the exclusive update scope of an application root.
type rootLock struct {
	mu   *sync.Mutex
	path string
}

func newRootLock(root, lockPath string) *rootLock {
	mu, _ := rootMutexes.LoadOrStore(filepath.Clean(root), &sync.Mutex{})
	return &rootLock{mu: mu.(*sync.Mutex), path: lockPath}
}

// tryAcquire takes the scope without blocking. It returns ErrUpdateInProgress
// when another goroutine or process holds it.
func (l *rootLock) tryAcquire() (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrUpdateInProgress
	}
	file, err := lockFile(l.path)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := unlockFile(file); err != nil {
				logging.Warn().Err(err).Str("path", l.path).Msg("Failed to release update lock file")
			}
			l.mu.Unlock()
		})
	}, nil
}

// acquire takes the update scope and marks the manager busy until the
// returned release func runs.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	release, err := m.lock.tryAcquire()
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("app_root", m.cfg.AppRoot).Msg("Update scope unavailable")
		return nil, err
	}
	m.busy.Store(true)
	metrics.SetUpdateInProgress(true)
	return func() {
		m.busy.Store(false)
		metrics.SetUpdateInProgress(false)
		release()
	}, nil
}

// Busy reports whether this manager currently holds the update scope.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}
