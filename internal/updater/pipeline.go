// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
pipeline.go - Update Pipeline and Detached Jobs

StartInstall runs the whole update under one exclusive scope:

	acquire scope -> [check] -> download + verify -> backup -> install (detached)

Every phase before the install runs on the caller's context and returns its
typed error directly, releasing the scope. Once the backup exists the install
moves to a goroutine on a context detached from the caller, so a client
disconnect cannot interrupt it. The goroutine owns the scope until the
install (and any rollback) has finished, and records the outcome in the
StatusStore.

StartRestore does the same for an explicit restore. RunInstall is the
synchronous variant used by the operator CLI.
*/

//nolint:staticcheck // File documentation, not package doc
package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/wacrm/internal/logging"
)

// StartInstall prepares an update and starts the install in the background.
// The returned Job carries the backup path the caller can restore from.
func (m *Manager) StartInstall(ctx context.Context, req InstallRequest) (*Job, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}

	job, err := m.prepareInstall(ctx, req)
	if err != nil {
		release()
		return nil, err
	}

	m.saveStatus(ctx, job.status())
	m.jobs.Add(1)
	go m.runInstallJob(context.WithoutCancel(ctx), job, release)
	return job, nil
}

// RunInstall runs the same pipeline as StartInstall but waits for the install
// to finish.
func (m *Manager) RunInstall(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	job, err := m.prepareInstall(ctx, req)
	if err != nil {
		return nil, err
	}
	m.saveStatus(ctx, job.status())
	return m.finishInstall(context.WithoutCancel(ctx), job)
}

// StartRestore validates filename and restores it in the background.
func (m *Manager) StartRestore(ctx context.Context, filename string) (*Job, error) {
	path, err := m.ResolveBackup(filename)
	if err != nil {
		return nil, err
	}
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:            uuid.New().String(),
		Kind:          JobRestore,
		State:         JobRunning,
		BackupPath:    path,
		TargetVersion: versionFromBackupPath(path),
		StartedAt:     m.now(),
	}
	m.saveStatus(ctx, job.status())

	m.jobs.Add(1)
	go m.runRestoreJob(context.WithoutCancel(ctx), job, release)
	return job, nil
}

// prepareInstall runs check, download and backup. The caller holds the scope.
func (m *Manager) prepareInstall(ctx context.Context, req InstallRequest) (*Job, error) {
	target := ""
	switch {
	case req.DownloadURL == "" && req.Checksum == "":
		check, err := m.CheckForUpdates(ctx)
		if err != nil {
			return nil, err
		}
		if !check.UpdateAvailable {
			return nil, fmt.Errorf("%w: installed %s, latest %s",
				ErrNoUpdateAvailable, check.CurrentVersion, check.LatestVersion)
		}
		if err := validateManifestArtifact(check); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("latest_version", check.LatestVersion).Msg("Update manifest rejected")
			return nil, &UpdateCheckError{URL: m.manifestURL(), Err: err}
		}
		req.DownloadURL = check.DownloadURL
		req.Checksum = check.Checksum
		target = check.LatestVersion
	case req.DownloadURL == "" || req.Checksum == "":
		return nil, fmt.Errorf("%w: download_url and checksum must be provided together", ErrInvalidRequest)
	}

	artifact, err := m.Download(ctx, req.DownloadURL, req.Checksum)
	if err != nil {
		return nil, err
	}
	backupPath, err := m.createBackup(ctx)
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:            uuid.New().String(),
		Kind:          JobInstall,
		State:         JobRunning,
		BackupPath:    backupPath,
		ArtifactPath:  artifact,
		TargetVersion: target,
		StartedAt:     m.now(),
	}, nil
}

// validateManifestArtifact rejects a manifest whose artifact fields cannot
// be used for a download.
func validateManifestArtifact(check *CheckResult) error {
	if strings.TrimSpace(check.DownloadURL) == "" {
		return fmt.Errorf("%w: no download_url", ErrInvalidManifest)
	}
	if !checksumPattern.MatchString(strings.TrimSpace(check.Checksum)) {
		return fmt.Errorf("%w: checksum %q is not a SHA-256 hex digest", ErrInvalidManifest, check.Checksum)
	}
	return nil
}

func (m *Manager) runInstallJob(ctx context.Context, job *Job, release func()) {
	defer m.jobs.Done()
	defer release()

	// The outcome is recorded in the status store.
	_, _ = m.finishInstall(ctx, job)
}

// finishInstall installs the prepared job and records its outcome.
func (m *Manager) finishInstall(ctx context.Context, job *Job) (*InstallResult, error) {
	ctx = logging.ContextWithCorrelationID(ctx, job.ID)
	result, err := m.install(ctx, job.ArtifactPath, job.BackupPath)

	status := job.status()
	finished := m.now()
	status.FinishedAt = &finished
	status.PreviousVersion = versionFromBackupPath(job.BackupPath)

	var installErr *InstallError
	var dualErr *DualFailureError
	switch {
	case err == nil:
		status.State = JobSucceeded
		status.NewVersion = result.NewVersion
	case errors.As(err, &dualErr):
		status.State = JobDualFailure
		status.Error = dualErr.InstallErr.Error()
		status.RestoreError = dualErr.RestoreErr.Error()
	case errors.As(err, &installErr):
		status.State = JobRolledBack
		status.Error = installErr.Err.Error()
		status.NewVersion = installErr.RestoredVersion
	default:
		status.State = JobFailed
		status.Error = err.Error()
	}

	m.saveStatus(ctx, status)

	if err == nil && m.cfg.Retention.Enabled() {
		if _, pruneErr := m.prune(ctx, m.cfg.Retention); pruneErr != nil {
			logging.Ctx(ctx).Warn().Err(pruneErr).Msg("Backup pruning failed")
		}
	}
	return result, err
}

func (m *Manager) runRestoreJob(ctx context.Context, job *Job, release func()) {
	defer m.jobs.Done()
	defer release()

	ctx = logging.ContextWithCorrelationID(ctx, job.ID)
	result, err := m.restore(ctx, job.BackupPath)

	status := job.status()
	finished := m.now()
	status.FinishedAt = &finished
	if err != nil {
		status.State = JobFailed
		status.Error = err.Error()
	} else {
		status.State = JobSucceeded
		status.NewVersion = result.RestoredVersion
	}
	m.saveStatus(ctx, status)
}

// RecoverInterrupted marks records still in the running state as failed.
// Such records belong to a process that exited mid-job. Nothing is changed
// while another process holds the update scope, since its job may be live.
func (m *Manager) RecoverInterrupted(ctx context.Context) (int, error) {
	release, err := m.lock.tryAcquire()
	if errors.Is(err, ErrUpdateInProgress) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer release()

	records, err := m.status.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list update status: %w", err)
	}

	recovered := 0
	for _, rec := range records {
		if rec.State != JobRunning {
			continue
		}
		finished := m.now()
		rec.State = JobFailed
		rec.Error = ErrJobInterrupted.Error()
		rec.FinishedAt = &finished
		if err := m.status.Save(ctx, rec); err != nil {
			return recovered, fmt.Errorf("failed to record interrupted job %s: %w", rec.JobID, err)
		}
		recovered++
		logging.Ctx(ctx).Warn().
			Str("job_id", rec.JobID).
			Str("kind", string(rec.Kind)).
			Str("backup_path", rec.BackupPath).
			Msg("Marked interrupted update job as failed")
	}
	return recovered, nil
}

// LastStatus returns the most recent job record, or ErrNoStatus.
func (m *Manager) LastStatus(ctx context.Context) (*JobStatus, error) {
	return m.status.Last(ctx)
}

// StatusHistory returns up to limit job records, newest first.
func (m *Manager) StatusHistory(ctx context.Context, limit int) ([]*JobStatus, error) {
	return m.status.List(ctx, limit)
}

func (m *Manager) saveStatus(ctx context.Context, status *JobStatus) {
	if err := m.status.Save(ctx, status); err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("job_id", status.JobID).
			Str("state", string(status.State)).
			Msg("Failed to record update status")
	}
}
