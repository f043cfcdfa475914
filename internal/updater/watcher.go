// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

// VersionWatcher publishes the installed version as the
// wacrm_app_version_info gauge and keeps it current while installs and
// restores rewrite the marker. It is a suture.Service.
type VersionWatcher struct {
	path    string
	current string

	// onChange is called after each published change.
	onChange func(version string)
}

// NewVersionWatcher watches the version marker of m.
func NewVersionWatcher(m *Manager) *VersionWatcher {
	return &VersionWatcher{path: filepath.Clean(m.cfg.versionPath())}
}

// Serve watches the marker's directory until ctx is cancelled. The directory
// is watched instead of the file because installs replace the file.
func (w *VersionWatcher) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create version watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close version watcher")
		}
	}()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.publish(readVersionMarker(w.path))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("version watcher event channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.publish(readVersionMarker(w.path))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("version watcher error channel closed")
			}
			logging.Warn().Err(err).Str("path", w.path).Msg("Version watcher error")
		}
	}
}

func (w *VersionWatcher) publish(version string) {
	if version == w.current {
		return
	}
	previous := w.current
	w.current = version
	metrics.SetAppVersion(previous, version)
	logging.Info().Str("previous_version", previous).Str("version", version).Msg("Application version changed")
	if w.onChange != nil {
		w.onChange(version)
	}
}

// String implements fmt.Stringer for supervisor logs.
func (w *VersionWatcher) String() string {
	return "version-watcher"
}
