// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

//go:build !unix

package updater

import "os"

// lockFile is a no-op on platforms without flock; only the in-process mutex applies.
func lockFile(_ string) (*os.File, error) {
	return nil, nil
}

func unlockFile(_ *os.File) error {
	return nil
}
