// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
backup.go - Backup Creation

A backup is a zip of the configured source trees plus the version marker,
with entry names relative to the application root:

	backup_1.2.0_20260101_120000.zip
	├── frontend/...
	├── backend/...
	└── version.txt

Including the marker means a restore also rolls the reported version back.
The archive is created with O_EXCL, fully written, synced and closed before
CreateBackup returns. On failure the partial archive is removed.
*/

//nolint:staticcheck // File documentation, not package doc
package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

// CreateBackup snapshots the application tree under the exclusive update
// scope and returns the absolute path of the new archive.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return m.createBackup(ctx)
}

// createBackup is CreateBackup without the scope; callers must hold it.
func (m *Manager) createBackup(ctx context.Context) (string, error) {
	began := time.Now()
	version := m.CurrentVersion()

	if err := os.MkdirAll(m.cfg.BackupDir, 0o750); err != nil {
		return "", m.backupFailed(ctx, began, &BackupError{Path: m.cfg.BackupDir, Err: err})
	}

	path := filepath.Join(m.cfg.BackupDir, backupFileName(version, m.now()))
	logging.Ctx(ctx).Info().
		Str("backup_path", path).
		Str("version", version).
		Msg("Creating backup")

	//nolint:gosec // G304: path is built from the configured backup directory
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", m.backupFailed(ctx, began, &BackupError{Path: path, Err: err})
	}

	files, err := m.writeBackup(ctx, file)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logging.Ctx(ctx).Warn().Err(rmErr).Str("backup_path", path).Msg("Failed to remove partial backup")
		}
		return "", m.backupFailed(ctx, began, &BackupError{Path: path, Err: err})
	}

	duration := time.Since(began)
	metrics.RecordUpdatePhase(string(PhaseBackup), duration, nil)
	logging.Ctx(ctx).Info().
		Str("backup_path", path).
		Int("files", files).
		Dur("duration", duration).
		Msg("Backup created")
	return path, nil
}

// writeBackup fills file with the backup archive and closes it.
func (m *Manager) writeBackup(ctx context.Context, file *os.File) (n int, err error) {
	w := newZipWriter(file, m.cfg.AppRoot)
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to finalize archive: %w", closeErr)
		}
	}()

	skip := map[string]bool{m.cfg.BackupDir: true}
	for _, source := range m.cfg.BackupSources {
		dir := filepath.Join(m.cfg.AppRoot, source)
		info, statErr := os.Stat(dir)
		if errors.Is(statErr, fs.ErrNotExist) {
			logging.Ctx(ctx).Debug().Str("source", source).Msg("Backup source does not exist, skipping")
			continue
		}
		if statErr != nil {
			return w.n, fmt.Errorf("failed to stat %s: %w", source, statErr)
		}
		if !info.IsDir() {
			return w.n, fmt.Errorf("backup source %s is not a directory", source)
		}
		if err := w.addTree(ctx, dir, skip); err != nil {
			return w.n, fmt.Errorf("failed to archive %s: %w", source, err)
		}
	}

	marker := m.cfg.versionPath()
	if info, statErr := os.Stat(marker); statErr == nil && info.Mode().IsRegular() {
		if err := w.addFile(marker, info); err != nil {
			return w.n, err
		}
	}
	return w.n, nil
}

func (m *Manager) backupFailed(ctx context.Context, began time.Time, err *BackupError) error {
	metrics.RecordUpdatePhase(string(PhaseBackup), time.Since(began), err)
	logging.Ctx(ctx).Error().Err(err).Str("backup_path", err.Path).Msg("Backup failed")
	return err
}
