// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

// Command wacrm-update is the operator CLI for the WACRM self-update
// machinery. It shares configuration with the server and takes the same
// cross-process update lock, so it is safe to run next to a live server.
//
//	wacrm-update check
//	wacrm-update install
//	wacrm-update install --url https://updates.example.com/wacrm-1.3.0.zip --checksum <sha256>
//	wacrm-update backups
//	wacrm-update restore backup_1.2.0_20260101_120000.zip
//	wacrm-update token --user alice --role admin
package main

import (
	"os"

	"github.com/tomtom215/wacrm/internal/config"
)

func main() {
	root := newRootCommand(config.LoadWithKoanf)
	if err := root.Execute(); err != nil {
		reportError(root.ErrOrStderr(), err)
		os.Exit(exitCode(err))
	}
}
