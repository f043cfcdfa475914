// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limited requests (counter)

Update Metrics:
  - wacrm_update_checks_total: Version checks (counter)
    Labels: result (available, current, error)
  - wacrm_update_phase_duration_seconds: Phase duration (histogram)
    Labels: phase (check, download, backup, install, restore)
  - wacrm_update_phase_failures_total: Failed phases (counter)
    Labels: phase
  - wacrm_update_installs_total: Install attempts (counter)
    Labels: outcome (succeeded, rolled_back, dual_failure, rejected)
  - wacrm_update_restores_total: Restores (counter)
    Labels: result (success, failure)
  - wacrm_update_in_progress: 1 while the update lock is held (gauge)
  - wacrm_update_backups: Backups found by the last catalog scan (gauge)
  - wacrm_app_version_info: Installed version, value 1 (gauge)
    Labels: version

# Example Queries

Install failure ratio over a day:

	sum(increase(wacrm_update_installs_total{outcome!="succeeded"}[1d]))
	  / sum(increase(wacrm_update_installs_total[1d]))

Slowest backup in the last week:

	histogram_quantile(0.99, rate(wacrm_update_phase_duration_seconds_bucket{phase="backup"}[7d]))

# Thread Safety

All recording helpers are safe for concurrent use.
*/
package metrics
