// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package api

import (
	"net/http"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/updater"
	"github.com/tomtom215/wacrm/internal/validation"
)

// History query bounds for GET /update/history.
const (
	defaultHistoryLimit = updater.DefaultStatusHistory
	maxHistoryLimit     = 500
)

// VersionResponse is returned by GET /api/v1/system/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// BackupListResponse is returned by GET /api/v1/system/update/backups.
type BackupListResponse struct {
	Backups []updater.BackupMetadata `json:"backups"`
	Count   int                      `json:"count"`
}

// JobAcceptedResponse is returned when an install or restore has started.
// The job runs in the background; clients poll StatusURL.
type JobAcceptedResponse struct {
	Message   string       `json:"message"`
	Job       *updater.Job `json:"job"`
	StatusURL string       `json:"status_url"`
}

// StatusHistoryResponse is returned by GET /api/v1/system/update/history.
type StatusHistoryResponse struct {
	Jobs  []*updater.JobStatus `json:"jobs"`
	Count int                  `json:"count"`
}

const statusURL = "/api/v1/system/update/status"

// Version returns the installed version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, VersionResponse{Version: h.updates.CurrentVersion()})
}

// CheckUpdate compares the installed version with the update server's manifest.
func (h *Handler) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	result, err := h.updates.CheckForUpdates(r.Context())
	if err != nil {
		respondUpdateError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// InstallUpdate starts an update. An empty body installs the version offered
// by the manifest; a body with download_url and checksum installs that
// artifact instead. Download, verification and backup complete before the
// response, so their failures are reported here; the install itself runs in
// the background and responds 202.
func (h *Handler) InstallUpdate(w http.ResponseWriter, r *http.Request) {
	var req updater.InstallRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Request body must be a JSON object", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	job, err := h.updates.StartInstall(r.Context(), req)
	if err != nil {
		respondUpdateError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("job_id", job.ID).
		Str("target_version", job.TargetVersion).
		Str("backup_path", job.BackupPath).
		Msg("Update install started")

	respondSuccess(w, r, http.StatusAccepted, JobAcceptedResponse{
		Message:   "Update started; the backup can be used to restore the previous version",
		Job:       job,
		StatusURL: statusURL,
	})
}

// ListBackups lists backup archives, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.updates.ListBackups()
	if err != nil {
		respondUpdateError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, BackupListResponse{Backups: backups, Count: len(backups)})
}

// RestoreBackup starts a restore from the named archive and responds 202.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req updater.RestoreRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Request body must be a JSON object", err)
		return
	}
	if req.BackupFilename == "" {
		respondError(w, r, http.StatusBadRequest, CodeInvalidBackupName, "backup_filename is required", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	job, err := h.updates.StartRestore(r.Context(), req.BackupFilename)
	if err != nil {
		respondUpdateError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("job_id", job.ID).
		Str("backup_path", job.BackupPath).
		Msg("Restore started")

	respondSuccess(w, r, http.StatusAccepted, JobAcceptedResponse{
		Message:   "Restore started",
		Job:       job,
		StatusURL: statusURL,
	})
}

// UpdateStatus returns the most recent install or restore record.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.updates.LastStatus(r.Context())
	if err != nil {
		respondUpdateError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, status)
}

// UpdateHistory returns recent install and restore records, newest first.
func (h *Handler) UpdateHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := getIntParam(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}

	jobs, err := h.updates.StatusHistory(r.Context(), limit)
	if err != nil {
		respondUpdateError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*updater.JobStatus{}
	}
	respondSuccess(w, r, http.StatusOK, StatusHistoryResponse{Jobs: jobs, Count: len(jobs)})
}
