// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Update Metrics
	UpdateChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wacrm_update_checks_total",
			Help: "Total number of update checks by result",
		},
		[]string{"result"}, // "available", "current", "error"
	)

	UpdatePhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wacrm_update_phase_duration_seconds",
			Help:    "Duration of update pipeline phases in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"phase"}, // "check", "download", "backup", "install", "restore"
	)

	UpdatePhaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wacrm_update_phase_failures_total",
			Help: "Total number of failed update pipeline phases",
		},
		[]string{"phase"},
	)

	UpdateInstallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wacrm_update_installs_total",
			Help: "Total number of install attempts by outcome",
		},
		[]string{"outcome"}, // "succeeded", "rolled_back", "dual_failure", "rejected"
	)

	UpdateRestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wacrm_update_restores_total",
			Help: "Total number of restores by result",
		},
		[]string{"result"},
	)

	UpdateInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wacrm_update_in_progress",
			Help: "1 while an install or restore holds the update lock",
		},
	)

	UpdateBackupsAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wacrm_update_backups",
			Help: "Number of backup archives found by the last catalog scan",
		},
	)

	// Application Info
	AppVersionInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wacrm_app_version_info",
			Help: "Installed application version read from the version marker",
		},
		[]string{"version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordUpdatePhase records the duration of an update phase and counts it as
// failed when err is non-nil.
func RecordUpdatePhase(phase string, duration time.Duration, err error) {
	UpdatePhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
	if err != nil {
		UpdatePhaseFailures.WithLabelValues(phase).Inc()
	}
}

// RecordUpdateCheck counts an update check.
func RecordUpdateCheck(result string) {
	UpdateChecksTotal.WithLabelValues(result).Inc()
}

// RecordUpdateInstall counts an install attempt.
func RecordUpdateInstall(outcome string) {
	UpdateInstallsTotal.WithLabelValues(outcome).Inc()
}

// RecordUpdateRestore counts a restore.
func RecordUpdateRestore(result string) {
	UpdateRestoresTotal.WithLabelValues(result).Inc()
}

// SetUpdateInProgress flips the in-progress gauge.
func SetUpdateInProgress(active bool) {
	if active {
		UpdateInProgress.Set(1)
	} else {
		UpdateInProgress.Set(0)
	}
}

// SetBackupsAvailable records the size of the backup catalog.
func SetBackupsAvailable(count int) {
	UpdateBackupsAvailable.Set(float64(count))
}

// SetAppVersion moves the version info gauge from previous to current.
func SetAppVersion(previous, current string) {
	if previous != "" && previous != current {
		AppVersionInfo.DeleteLabelValues(previous)
	}
	AppVersionInfo.WithLabelValues(current).Set(1)
}
