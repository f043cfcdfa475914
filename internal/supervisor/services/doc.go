// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
Package services provides suture.Service wrappers for components whose
lifecycle does not already match suture's Serve(ctx) pattern.

HTTPServerService adapts *http.Server (ListenAndServe plus Shutdown).

The update manager and the version watcher in internal/updater implement
suture.Service themselves and are added to the tree directly.
*/
package services
