// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
Package main is the entry point for the WACRM update service.

The server exposes the admin-only system update API used by the WACRM web UI
to check for new releases, install them with automatic rollback, and restore
earlier backups.

# Application Architecture

	RootSupervisor ("wacrm")
	├── UpdateSupervisor ("update-layer")
	│   ├── updater.Manager
	│   └── updater.VersionWatcher
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Status store: file (default) or BadgerDB
 4. Update manager
 5. Authentication (JWT or none) and Casbin authorization
 6. Chi router with CORS, rate limiting and security headers
 7. Supervisor tree

# Configuration

Priority: Environment variables > Config file > Defaults

	HTTP_PORT=8000
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	AUTH_MODE=jwt                # jwt or none (none is refused in production)
	JWT_SECRET=<32+ chars>

	UPDATE_SERVER_URL=https://updates.example.com
	APP_ROOT=/opt/wacrm
	UPDATE_STATUS_STORE=file     # file or badger

Tokens for the API are issued with the operator CLI:

	wacrm-update token --user alice --role admin

# Signal Handling

On SIGINT or SIGTERM the HTTP server stops accepting connections and drains
open requests. A running install or restore job is allowed to finish before
the process exits so the application tree is never left half replaced.
*/
package main
