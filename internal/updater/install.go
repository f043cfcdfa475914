// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
install.go - Installation with Automatic Rollback

Install Process:
 1. Extract the artifact into a fresh temporary directory
 2. Replace each top-level entry of the application root: directories are
    removed and copied wholesale, files are copied over
 3. Remove the extraction directory and the artifact
 4. Re-read the version marker

A failure in steps 1-3 restores the backup taken for this attempt before the
error is returned. The caller then receives either an *InstallError (tree
restored) or a *DualFailureError (restore failed too). Nothing is retried.

The top-level entry holding the backup directory is never replaced, so an
artifact cannot wipe the backups it may need to be rolled back from.
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
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

const extractDirPattern = "wacrm-update-extract-*"

// Install outcomes used as metric labels.
const (
	installOutcomeSucceeded   = "succeeded"
	installOutcomeRolledBack  = "rolled_back"
	installOutcomeDualFailure = "dual_failure"
	installOutcomeRejected    = "rejected"
)

// Install applies a verified artifact to the application root under the
// exclusive update scope, rolling back to backupPath on failure.
func (m *Manager) Install(ctx context.Context, artifactPath, backupPath string) (*InstallResult, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.install(ctx, artifactPath, backupPath)
}

// install is Install without the scope; callers must hold it.
func (m *Manager) install(ctx context.Context, artifactPath, backupPath string) (*InstallResult, error) {
	began := time.Now()
	log := logging.CtxWith(ctx).
		Str("artifact", artifactPath).
		Str("backup_path", backupPath).
		Logger()

	if err := requireRegularFile(backupPath); err != nil {
		metrics.RecordUpdateInstall(installOutcomeRejected)
		metrics.RecordUpdatePhase(string(PhaseInstall), time.Since(began), err)
		log.Error().Err(err).Msg("Refusing to install without a backup")
		return nil, fmt.Errorf("install requires a backup: %w", err)
	}

	log.Info().Msg("Installing update")

	touched, err := m.applyArtifact(ctx, artifactPath)
	if err != nil {
		return nil, m.rollback(ctx, artifactPath, backupPath, touched, began, err)
	}

	result := &InstallResult{
		Success:         true,
		PreviousVersion: versionFromBackupPath(backupPath),
		NewVersion:      m.CurrentVersion(),
		BackupPath:      backupPath,
		UpdateTime:      m.now(),
	}

	duration := time.Since(began)
	metrics.RecordUpdatePhase(string(PhaseInstall), duration, nil)
	metrics.RecordUpdateInstall(installOutcomeSucceeded)
	log.Info().
		Str("previous_version", result.PreviousVersion).
		Str("new_version", result.NewVersion).
		Dur("duration", duration).
		Msg("Update installed")
	return result, nil
}

// touchedEntry is a top-level application entry the install started to
// replace.
type touchedEntry struct {
	name    string
	existed bool
}

// applyArtifact runs install steps 1-3 and reports the top-level entries it
// touched, including on failure.
func (m *Manager) applyArtifact(ctx context.Context, artifactPath string) ([]touchedEntry, error) {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("artifact %s is empty", artifactPath)
	}

	extractDir, err := os.MkdirTemp(m.cfg.TempDir, extractDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	touched, err := m.replaceFromArchive(ctx, artifactPath, extractDir)
	if err != nil {
		if rmErr := os.RemoveAll(extractDir); rmErr != nil {
			logging.Ctx(ctx).Warn().Err(rmErr).Str("dir", extractDir).Msg("Failed to remove extraction directory")
		}
		return touched, err
	}

	var cleanup *multierror.Error
	if err := m.fs.RemoveAll(extractDir); err != nil {
		cleanup = multierror.Append(cleanup, fmt.Errorf("failed to remove extraction directory: %w", err))
	}
	if err := os.Remove(artifactPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cleanup = multierror.Append(cleanup, fmt.Errorf("failed to remove artifact: %w", err))
	}
	if err := cleanup.ErrorOrNil(); err != nil {
		return touched, err
	}

	m.removeDownloadDir(ctx, artifactPath)
	return touched, nil
}

// replaceFromArchive extracts the artifact into extractDir and swaps every
// top-level entry into the application root.
func (m *Manager) replaceFromArchive(ctx context.Context, artifactPath, extractDir string) ([]touchedEntry, error) {
	files, err := extractArchive(artifactPath, extractDir)
	if err != nil {
		return nil, fmt.Errorf("failed to extract artifact: %w", err)
	}

	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction directory: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("artifact %s contains no entries", artifactPath)
	}
	logging.Ctx(ctx).Debug().Int("files", files).Int("entries", len(entries)).Msg("Artifact extracted")

	protected := m.protectedEntry()
	var touched []touchedEntry
	for _, entry := range entries {
		name := entry.Name()
		if name == protected {
			logging.Ctx(ctx).Warn().Str("entry", name).Msg("Artifact entry collides with the backup directory, skipping")
			continue
		}
		src := filepath.Join(extractDir, name)
		dst := filepath.Join(m.cfg.AppRoot, name)
		_, statErr := os.Lstat(dst)
		touched = append(touched, touchedEntry{name: name, existed: statErr == nil})
		if err := replaceEntry(m.fs, src, dst); err != nil {
			return touched, fmt.Errorf("failed to replace %s: %w", name, err)
		}
		logging.Ctx(ctx).Debug().Str("entry", name).Msg("Replaced application entry")
	}
	return touched, nil
}

// rollback restores backupPath after a failed install and builds the error
// returned to the caller.
func (m *Manager) rollback(ctx context.Context, artifactPath, backupPath string, touched []touchedEntry, began time.Time, cause error) error {
	metrics.RecordUpdatePhase(string(PhaseInstall), time.Since(began), cause)
	logging.Ctx(ctx).Error().
		Err(cause).
		Str("backup_path", backupPath).
		Msg("Update installation failed, restoring from backup")

	var (
		restored   *RestoreResult
		restoreErr error
	)
	if err := m.clearTouched(ctx, touched); err != nil {
		restoreErr = m.restoreFailed(ctx, time.Now(), &RestoreError{BackupPath: backupPath, Err: err})
	} else {
		restored, restoreErr = m.restore(ctx, backupPath)
	}
	if restoreErr != nil {
		metrics.RecordUpdateInstall(installOutcomeDualFailure)
		dual := &DualFailureError{
			Artifact:   artifactPath,
			BackupPath: backupPath,
			InstallErr: cause,
			RestoreErr: restoreErr,
		}
		logging.Ctx(ctx).Error().
			Err(dual).
			Str("backup_path", backupPath).
			Msg("Backup restoration failed after install failure, manual intervention required")
		return dual
	}

	metrics.RecordUpdateInstall(installOutcomeRolledBack)
	logging.Ctx(ctx).Warn().
		Str("backup_path", backupPath).
		Str("restored_version", restored.RestoredVersion).
		Msg("System restored from backup after failed update")
	return &InstallError{
		Artifact:        artifactPath,
		BackupPath:      backupPath,
		RestoredVersion: restored.RestoredVersion,
		Err:             cause,
	}
}

// clearTouched removes the entries a failed install left behind so the backup
// extraction reproduces the pre-install tree. Backed-up directories are
// removed wholesale and entries the install created are removed outright;
// anything else is outside the backup and stays as it is.
func (m *Manager) clearTouched(ctx context.Context, touched []touchedEntry) error {
	sources := make(map[string]bool, len(m.cfg.BackupSources))
	for _, src := range m.cfg.BackupSources {
		sources[filepath.Clean(src)] = true
	}

	var errs *multierror.Error
	for _, entry := range touched {
		if entry.existed && !sources[entry.name] {
			continue
		}
		if err := m.fs.RemoveAll(filepath.Join(m.cfg.AppRoot, entry.name)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to clear %s: %w", entry.name, err))
			continue
		}
		logging.Ctx(ctx).Debug().Str("entry", entry.name).Bool("existed", entry.existed).Msg("Cleared entry before rollback")
	}
	return errs.ErrorOrNil()
}

// protectedEntry returns the top-level name under the application root that
// holds the backup directory, or "" when backups live elsewhere.
func (m *Manager) protectedEntry() string {
	rel, err := filepath.Rel(m.cfg.AppRoot, m.cfg.BackupDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return strings.Split(filepath.ToSlash(rel), "/")[0]
}

// removeDownloadDir removes the temporary directory Download created for
// artifactPath. Artifacts supplied from elsewhere keep their directory.
func (m *Manager) removeDownloadDir(ctx context.Context, artifactPath string) {
	dir := filepath.Dir(artifactPath)
	prefix := strings.TrimSuffix(downloadDirPattern, "*")
	if !strings.HasPrefix(filepath.Base(dir), prefix) {
		return
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Ctx(ctx).Debug().Err(err).Str("dir", dir).Msg("Failed to remove download directory")
	}
}

func requireRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, path)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}
