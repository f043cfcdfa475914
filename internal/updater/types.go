// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import "time"

// Phase names a step of the update pipeline. Used as a metrics label.
type Phase string

const (
	PhaseCheck    Phase = "check"
	PhaseDownload Phase = "download"
	PhaseBackup   Phase = "backup"
	PhaseInstall  Phase = "install"
	PhaseRestore  Phase = "restore"
)

// Manifest is the document served at <server_url>/version.json.
type Manifest struct {
	Version      string `json:"version"`
	DownloadURL  string `json:"download_url"`
	Checksum     string `json:"checksum"`
	ReleaseNotes string `json:"release_notes"`
	ReleaseDate  string `json:"release_date"`
}

// CheckResult is the outcome of a successful version check.
type CheckResult struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateAvailable bool   `json:"update_available"`
	DownloadURL     string `json:"download_url,omitempty"`
	Checksum        string `json:"checksum,omitempty"`
	ReleaseNotes    string `json:"release_notes"`
	ReleaseDate     string `json:"release_date"`
}

// InstallResult describes a successful installation.
type InstallResult struct {
	Success         bool      `json:"success"`
	PreviousVersion string    `json:"previous_version"`
	NewVersion      string    `json:"new_version"`
	BackupPath      string    `json:"backup_path"`
	UpdateTime      time.Time `json:"update_time"`
}

// RestoreResult describes a successful restore.
type RestoreResult struct {
	Success         bool      `json:"success"`
	BackupPath      string    `json:"backup_path"`
	RestoredVersion string    `json:"restored_version"`
	RestoreTime     time.Time `json:"restore_time"`
	FilesRestored   int       `json:"files_restored"`
}

// BackupMetadata describes one archive in the backup directory.
type BackupMetadata struct {
	Filename  string    `json:"filename"`
	Version   string    `json:"version"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
	SizeMB    float64   `json:"size_mb"`
	SizeBytes int64     `json:"size_bytes"`

	stamp string
}

// JobKind distinguishes install jobs from restore jobs.
type JobKind string

const (
	JobInstall JobKind = "install"
	JobRestore JobKind = "restore"
)

// JobState is the lifecycle state of a detached job.
type JobState string

const (
	JobRunning     JobState = "running"
	JobSucceeded   JobState = "succeeded"
	JobRolledBack  JobState = "rolled_back"
	JobFailed      JobState = "failed"
	JobDualFailure JobState = "dual_failure"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s != JobRunning
}

// InstallRequest selects the artifact for an install. Both fields empty means
// "install whatever the manifest offers"; otherwise both must be set.
type InstallRequest struct {
	DownloadURL string `json:"download_url" validate:"omitempty,url"`
	Checksum    string `json:"checksum" validate:"omitempty,len=64,hexadecimal"`
}

// RestoreRequest names a backup archive in the backup directory.
type RestoreRequest struct {
	BackupFilename string `json:"backup_filename" validate:"required,backup_filename"`
}

// Job is the handle returned when an install or restore is started.
type Job struct {
	ID            string    `json:"job_id"`
	Kind          JobKind   `json:"kind"`
	State         JobState  `json:"state"`
	BackupPath    string    `json:"backup_path"`
	ArtifactPath  string    `json:"artifact_path,omitempty"`
	TargetVersion string    `json:"target_version,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

// JobStatus is the durable record of a job, persisted by a StatusStore.
type JobStatus struct {
	JobID           string     `json:"job_id"`
	Kind            JobKind    `json:"kind"`
	State           JobState   `json:"state"`
	TargetVersion   string     `json:"target_version,omitempty"`
	PreviousVersion string     `json:"previous_version,omitempty"`
	NewVersion      string     `json:"new_version,omitempty"`
	BackupPath      string     `json:"backup_path,omitempty"`
	ArtifactPath    string     `json:"artifact_path,omitempty"`
	Error           string     `json:"error,omitempty"`
	RestoreError    string     `json:"restore_error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

func (j *Job) status() *JobStatus {
	return &JobStatus{
		JobID:         j.ID,
		Kind:          j.Kind,
		State:         j.State,
		TargetVersion: j.TargetVersion,
		BackupPath:    j.BackupPath,
		ArtifactPath:  j.ArtifactPath,
		StartedAt:     j.StartedAt,
	}
}
