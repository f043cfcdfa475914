// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

// Package auth authenticates API requests with HS256 bearer tokens.
//
// Tokens are issued by the CRM's login flow (and by `wacrm-update token` for
// operators) and carry the username and role. The middleware stores the
// resulting AuthSubject in the request context, where internal/authz reads
// it to enforce the role policy.
//
// AUTH_MODE=none injects a local admin subject; configuration validation
// refuses that mode in production.
package auth
