// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
Package config loads the WACRM server and updater configuration.

Configuration is layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, config.yaml, config.yml or
    /etc/wacrm/config.yaml
 3. Environment variables, mapped from their flat legacy names

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT, ENVIRONMENT

Security:
  - AUTH_MODE: jwt or none (default: jwt)
  - JWT_SECRET: HMAC secret, at least 32 characters
  - CORS_ORIGINS: comma-separated list
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, RATE_LIMIT_DISABLED
  - UPDATE_RATE_LIMIT_REQUESTS: limit for install and restore requests

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Updater:
  - UPDATE_SERVER_URL: base URL serving version.json
  - APP_ROOT: absolute path of the installed application
  - BACKUP_DIR, VERSION_FILE, BACKUP_SOURCES, UPDATE_TEMP_DIR
  - UPDATE_HTTP_TIMEOUT, UPDATE_DOWNLOAD_TIMEOUT
  - UPDATE_STATUS_STORE (file or badger), UPDATE_STATUS_STORE_PATH
  - UPDATE_BREAKER_THRESHOLD, UPDATE_BREAKER_TIMEOUT

The loaded Config is validated once and then treated as read-only.
*/
package config
