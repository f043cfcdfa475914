// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

// Restore results used as metric labels.
const (
	restoreResultSuccess = "success"
	restoreResultFailure = "failure"
)

// Restore extracts the backup at backupPath over the application root under
// the exclusive update scope. Every archive entry overwrites its counterpart;
// files that are not in the archive are left alone.
func (m *Manager) Restore(ctx context.Context, backupPath string) (*RestoreResult, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.restore(ctx, backupPath)
}

// restore is Restore without the scope; callers must hold it.
func (m *Manager) restore(ctx context.Context, backupPath string) (*RestoreResult, error) {
	began := time.Now()
	logging.Ctx(ctx).Info().Str("backup_path", backupPath).Msg("Restoring from backup")

	if err := requireRegularFile(backupPath); err != nil {
		return nil, m.restoreFailed(ctx, began, &RestoreError{BackupPath: backupPath, Err: err})
	}

	files, err := extractArchive(backupPath, m.cfg.AppRoot)
	if err != nil {
		return nil, m.restoreFailed(ctx, began, &RestoreError{
			BackupPath: backupPath,
			Err:        fmt.Errorf("failed after %d files: %w", files, err),
		})
	}

	result := &RestoreResult{
		Success:         true,
		BackupPath:      backupPath,
		RestoredVersion: versionFromBackupPath(backupPath),
		RestoreTime:     m.now(),
		FilesRestored:   files,
	}

	duration := time.Since(began)
	metrics.RecordUpdatePhase(string(PhaseRestore), duration, nil)
	metrics.RecordUpdateRestore(restoreResultSuccess)
	logging.Ctx(ctx).Info().
		Str("backup_path", backupPath).
		Str("restored_version", result.RestoredVersion).
		Int("files", files).
		Dur("duration", duration).
		Msg("System restored from backup")
	return result, nil
}

func (m *Manager) restoreFailed(ctx context.Context, began time.Time, err *RestoreError) error {
	metrics.RecordUpdatePhase(string(PhaseRestore), time.Since(began), err)
	metrics.RecordUpdateRestore(restoreResultFailure)
	logging.Ctx(ctx).Error().Err(err).Str("backup_path", err.BackupPath).Msg("Restore failed")
	return err
}
