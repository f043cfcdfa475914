// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
Package api provides the HTTP API of the WACRM update service.

The handlers are thin: they decode and validate a request, call the update
manager, and map the manager's typed errors to HTTP status codes. All update
work (checks, downloads, backups, installs and restores) lives in
internal/updater.

Endpoints:

	GET  /api/v1/health/live               process liveness
	GET  /api/v1/health/ready              current version and busy flag
	GET  /metrics                          Prometheus exposition

	GET  /api/v1/system/version            installed version (any role)
	GET  /api/v1/system/update/check       compare against the update server
	POST /api/v1/system/update/install     start an update (202 Accepted)
	GET  /api/v1/system/update/backups     list backup archives, newest first
	POST /api/v1/system/update/restore     start a restore (202 Accepted)
	GET  /api/v1/system/update/status      most recent job record
	GET  /api/v1/system/update/history     recent job records (?limit=N)

Everything under /api/v1/system requires authentication (internal/auth) and
is authorized by the casbin policy in internal/authz. Only admins may reach
the update endpoints.

Responses use the models.APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "request_id": "..."}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "...", "message": "..."}}

Error mapping:

	400  invalid request body, checksum or backup filename
	404  backup file missing, or no job recorded yet
	409  an update or restore is already running, or nothing newer to install
	500  check, download, checksum, backup, install or restore failure
	503  no update server configured
*/
package api
