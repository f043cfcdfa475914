// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
errors.go - Update Error Taxonomy

Each update phase fails with its own error type so callers can tell a
network problem from an integrity problem from a broken install:

	UpdateCheckError        manifest unreachable, non-2xx, or malformed
	DownloadError           artifact transfer failed
	ChecksumMismatchError   artifact digest differs from the expected one
	BackupError             backup archive could not be written
	InstallError            install failed and the tree was restored
	DualFailureError        install failed and the restore failed too
	RestoreError            explicit restore failed

Sentinel errors cover request-level conditions and are matched with
errors.Is through the typed wrappers.
*/

//nolint:staticcheck // File documentation, not package doc
package updater

import (
	"errors"
	"fmt"
)

var (
	// ErrUpdateInProgress is returned when another install or restore holds
	// the update scope for the same application root.
	ErrUpdateInProgress = errors.New("an update or restore is already in progress")

	// ErrNoUpdateAvailable is returned when an install is requested without an
	// explicit artifact and the manifest offers nothing newer.
	ErrNoUpdateAvailable = errors.New("no update available")

	// ErrNoUpdateServer is returned by checks when no server URL is configured.
	ErrNoUpdateServer = errors.New("update server URL is not configured")

	// ErrBackupNotFound is returned when a named backup does not exist.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrInvalidBackupName is returned for names outside the backup naming scheme.
	ErrInvalidBackupName = errors.New("invalid backup filename")

	// ErrInvalidChecksum is returned when the expected checksum is not 64 hex characters.
	ErrInvalidChecksum = errors.New("invalid SHA-256 checksum")

	// ErrInvalidManifest is returned when the manifest names no usable
	// artifact. It is an update server fault, not a client one.
	ErrInvalidManifest = errors.New("update manifest is invalid")

	// ErrInvalidRequest is returned for install requests that name only part of an artifact.
	ErrInvalidRequest = errors.New("invalid update request")

	// ErrNoStatus is returned by status stores that hold no records yet.
	ErrNoStatus = errors.New("no update status recorded")

	// ErrJobInterrupted is recorded on jobs whose process exited before they
	// finished.
	ErrJobInterrupted = errors.New("job interrupted before completion")
)

// UpdateCheckError reports a failed manifest fetch.
type UpdateCheckError struct {
	URL string
	Err error
}

func (e *UpdateCheckError) Error() string {
	return fmt.Sprintf("update check failed for %s: %v", e.URL, e.Err)
}

func (e *UpdateCheckError) Unwrap() error { return e.Err }

// DownloadError reports a failed artifact transfer.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ChecksumMismatchError reports a downloaded artifact whose SHA-256 digest
// differs from the expected value. The artifact is left at Path.
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// BackupError reports a failed backup. No partial archive is left behind.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup failed for %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// RestoreError reports a failed restore from BackupPath.
type RestoreError struct {
	BackupPath string
	Err        error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore from %s failed: %v", e.BackupPath, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// InstallError reports an install failure after which the application tree
// was restored from BackupPath.
type InstallError struct {
	Artifact        string
	BackupPath      string
	RestoredVersion string
	Err             error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("update failed and system was restored from backup: %v", e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// DualFailureError reports an install failure whose rollback also failed.
// The application tree is in an unknown state.
type DualFailureError struct {
	Artifact   string
	BackupPath string
	InstallErr error
	RestoreErr error
}

func (e *DualFailureError) Error() string {
	return fmt.Sprintf("update failed and backup restoration also failed: %v. Restoration error: %v",
		e.InstallErr, e.RestoreErr)
}

func (e *DualFailureError) Unwrap() []error {
	return []error{e.InstallErr, e.RestoreErr}
}
