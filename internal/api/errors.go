// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/wacrm/internal/updater"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInvalidBackupName   = "INVALID_BACKUP_FILENAME"
	CodeBackupNotFound      = "BACKUP_NOT_FOUND"
	CodeNoStatus            = "NO_UPDATE_STATUS"
	CodeUpdateInProgress    = "UPDATE_IN_PROGRESS"
	CodeNoUpdateAvailable   = "NO_UPDATE_AVAILABLE"
	CodeUpdateServerMissing = "UPDATE_SERVER_NOT_CONFIGURED"
	CodeUpdateCheckFailed   = "UPDATE_CHECK_FAILED"
	CodeInvalidManifest     = "INVALID_UPDATE_MANIFEST"
	CodeDownloadFailed      = "DOWNLOAD_FAILED"
	CodeChecksumMismatch    = "CHECKSUM_MISMATCH"
	CodeBackupFailed        = "BACKUP_FAILED"
	CodeInstallFailed       = "INSTALL_FAILED"
	CodeDualFailure         = "UPDATE_AND_RESTORE_FAILED"
	CodeRestoreFailed       = "RESTORE_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// apiError is the HTTP rendering of an updater error.
type apiError struct {
	Status  int
	Code    string
	Message string
}

// mapUpdateError maps updater errors to a status, code and client message.
// Install outcomes are matched first since their causes may wrap sentinels;
// sentinels are matched before the remaining phase wrappers for the same reason.
func mapUpdateError(err error) apiError {
	var (
		dualErr     *updater.DualFailureError
		installErr  *updater.InstallError
		checksumErr *updater.ChecksumMismatchError
		checkErr    *updater.UpdateCheckError
		downloadErr *updater.DownloadError
		backupErr   *updater.BackupError
		restoreErr  *updater.RestoreError
	)

	switch {
	case errors.As(err, &dualErr):
		return apiError{http.StatusInternalServerError, CodeDualFailure,
			"Update failed and backup restoration also failed; manual intervention required: " + err.Error()}
	case errors.As(err, &installErr):
		return apiError{http.StatusInternalServerError, CodeInstallFailed, err.Error()}

	case errors.Is(err, updater.ErrUpdateInProgress):
		return apiError{http.StatusConflict, CodeUpdateInProgress, "An update or restore is already in progress"}
	case errors.Is(err, updater.ErrNoUpdateAvailable):
		return apiError{http.StatusConflict, CodeNoUpdateAvailable, err.Error()}
	case errors.Is(err, updater.ErrInvalidManifest):
		return apiError{http.StatusBadGateway, CodeInvalidManifest, "Update server returned an unusable manifest"}
	case errors.Is(err, updater.ErrNoUpdateServer):
		return apiError{http.StatusServiceUnavailable, CodeUpdateServerMissing, "Update server URL is not configured"}
	case errors.Is(err, updater.ErrInvalidBackupName):
		return apiError{http.StatusBadRequest, CodeInvalidBackupName, "Invalid backup filename"}
	case errors.Is(err, updater.ErrBackupNotFound):
		return apiError{http.StatusNotFound, CodeBackupNotFound, "Backup file not found"}
	case errors.Is(err, updater.ErrInvalidChecksum), errors.Is(err, updater.ErrInvalidRequest):
		return apiError{http.StatusBadRequest, CodeInvalidRequest, err.Error()}
	case errors.Is(err, updater.ErrNoStatus):
		return apiError{http.StatusNotFound, CodeNoStatus, "No update has been recorded yet"}

	case errors.As(err, &checksumErr):
		return apiError{http.StatusInternalServerError, CodeChecksumMismatch, "Downloaded artifact failed checksum verification"}
	case errors.As(err, &checkErr):
		return apiError{http.StatusInternalServerError, CodeUpdateCheckFailed, "Failed to check for updates"}
	case errors.As(err, &downloadErr):
		return apiError{http.StatusInternalServerError, CodeDownloadFailed, "Failed to download update"}
	case errors.As(err, &backupErr):
		return apiError{http.StatusInternalServerError, CodeBackupFailed, "Failed to create backup"}
	case errors.As(err, &restoreErr):
		return apiError{http.StatusInternalServerError, CodeRestoreFailed, "Failed to restore backup"}
	default:
		return apiError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
	}
}

// respondUpdateError writes err using mapUpdateError.
func respondUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := mapUpdateError(err)
	respondError(w, r, mapped.Status, mapped.Code, mapped.Message, err)
}
