// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package api

import (
	"context"
	"time"

	"github.com/tomtom215/wacrm/internal/updater"
)

// UpdateManager is the part of *updater.Manager the handlers use.
type UpdateManager interface {
	CurrentVersion() string
	Busy() bool
	CheckForUpdates(ctx context.Context) (*updater.CheckResult, error)
	StartInstall(ctx context.Context, req updater.InstallRequest) (*updater.Job, error)
	ListBackups() ([]updater.BackupMetadata, error)
	StartRestore(ctx context.Context, filename string) (*updater.Job, error)
	LastStatus(ctx context.Context) (*updater.JobStatus, error)
	StatusHistory(ctx context.Context, limit int) ([]*updater.JobStatus, error)
}

var _ UpdateManager = (*updater.Manager)(nil)

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_health.go: liveness and readiness
//   - handlers_update.go: version, check, install, backups, restore, status
type Handler struct {
	updates   UpdateManager
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a handler serving the update endpoints of updates.
func NewHandler(updates UpdateManager) *Handler {
	return &Handler{
		updates:   updates,
		startTime: time.Now(),
		now:       time.Now,
	}
}
