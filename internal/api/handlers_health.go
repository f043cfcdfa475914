// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package api

import (
	"net/http"

	"github.com/tomtom215/wacrm/internal/models"
)

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status":         models.HealthOK,
		"uptime_seconds": h.now().Sub(h.startTime).Seconds(),
	})
}

// HealthReady reports the installed version and whether an update or restore
// currently holds the update scope. The service stays ready while a job runs;
// the status reads "degraded" until it finishes.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	health := models.HealthStatus{
		Status:           models.HealthOK,
		Version:          h.updates.CurrentVersion(),
		UpdateInProgress: h.updates.Busy(),
		UptimeSeconds:    h.now().Sub(h.startTime).Seconds(),
	}
	if health.UpdateInProgress {
		health.Status = models.HealthDegraded
	}

	respondSuccess(w, r, http.StatusOK, health)
}
