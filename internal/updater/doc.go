// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

// Package updater implements the in-place self-update subsystem of the WACRM
// backend: version checks against a remote manifest, verified artifact
// downloads, zip backups of the live application tree, installation with
// automatic rollback, and restore from a chosen backup.
//
// # Overview
//
// An update always runs in this order:
//
//	check    - fetch <server_url>/version.json and compare with version.txt
//	download - stream the artifact to a fresh temp dir, verify SHA-256
//	backup   - zip the frontend/, backend/ trees and the version marker
//	install  - extract the artifact, replace each top-level entry wholesale
//
// A failure during install triggers an automatic restore from the backup taken
// for that attempt. If the restore fails as well the caller receives a
// *DualFailureError carrying both causes, since the tree is then in an unknown
// state and needs an operator.
//
// # Concurrency
//
// All mutating operations (install, restore, and the install pipeline as a
// whole) hold an exclusive scope per application root. The scope is an
// in-process mutex combined with an advisory flock on
// <backup_dir>/.update.lock, so a second API request or a concurrently
// running CLI gets ErrUpdateInProgress instead of racing on the tree.
// Backup listing and version checks never take the scope.
//
// # Usage
//
//	mgr, err := updater.NewManager(cfg, nil)
//	if err != nil {
//		return err
//	}
//
//	check, err := mgr.CheckForUpdates(ctx)
//	if err != nil {
//		return err
//	}
//	if check.UpdateAvailable {
//		job, err := mgr.StartInstall(ctx, updater.InstallRequest{})
//		...
//	}
//
// The Manager is also a suture.Service; serving it lets the supervisor drain
// detached install and restore jobs on shutdown.
package updater
