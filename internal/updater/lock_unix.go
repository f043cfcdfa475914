// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

//go:build unix

package updater

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockFile takes a non-blocking exclusive flock on path, creating it if needed.
//
//nolint:gosec // G304: path is the configured lock file
func lockFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close() //nolint:errcheck // Best effort cleanup on error
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrUpdateInProgress
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return file, nil
}

func unlockFile(file *os.File) error {
	if file == nil {
		return nil
	}
	err := unix.Flock(int(file.Fd()), unix.LOCK_UN)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}
