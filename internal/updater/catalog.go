// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
catalog.go - Backup Naming and Enumeration

Backups carry their metadata in the filename:

	backup_<version>_<YYYYMMDD>_<HHMMSS>.zip

The version token is sanitized on write so it never contains an underscore
or a path separator, which keeps parsing unambiguous. Files in the backup
directory that do not follow the convention are ignored.
*/

//nolint:staticcheck // File documentation, not package doc
package updater

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

const (
	backupTimestampLayout  = "20060102_150405"
	displayTimestampLayout = "2006-01-02 15:04:05"

	unknownVersion = "unknown"
	bytesPerMiB    = 1024 * 1024
)

var backupNamePattern = regexp.MustCompile(`^backup_([0-9A-Za-z.\-]+)_(\d{8}_\d{6})\.zip$`)

// backupName is the parsed form of a backup filename.
type backupName struct {
	version string
	stamp   string
	created time.Time
}

func parseBackupName(name string) (backupName, bool) {
	match := backupNamePattern.FindStringSubmatch(name)
	if match == nil {
		return backupName{}, false
	}
	created, err := time.ParseInLocation(backupTimestampLayout, match[2], time.Local)
	if err != nil {
		return backupName{}, false
	}
	return backupName{version: match[1], stamp: match[2], created: created}, true
}

// IsBackupFileName reports whether name follows the
// backup_<version>_<YYYYMMDD_HHMMSS>.zip convention. Names with path
// separators never match.
func IsBackupFileName(name string) bool {
	_, ok := parseBackupName(name)
	return ok
}

// backupFileName builds the archive name for a backup of version taken at t.
func backupFileName(version string, t time.Time) string {
	return fmt.Sprintf("backup_%s_%s.zip", sanitizeVersionToken(version), t.Format(backupTimestampLayout))
}

func sanitizeVersionToken(version string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '.', r == '-':
			return r
		default:
			return '-'
		}
	}, version)
	if token == "" {
		return unknownVersion
	}
	return token
}

// versionFromBackupPath recovers the version token from a backup path.
func versionFromBackupPath(path string) string {
	parsed, ok := parseBackupName(filepath.Base(path))
	if !ok {
		return unknownVersion
	}
	return parsed.version
}

// ResolveBackup maps a bare backup filename to its path in the backup
// directory. It rejects anything outside the naming convention, including
// names with path separators.
func (m *Manager) ResolveBackup(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBackupName, filename)
	}
	if _, ok := parseBackupName(filename); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidBackupName, filename)
	}

	path := filepath.Join(m.cfg.BackupDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrBackupNotFound, filename)
		}
		return "", fmt.Errorf("failed to stat backup %s: %w", filename, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrBackupNotFound, filename)
	}
	return path, nil
}

// ListBackups returns the archives in the backup directory, newest first by
// the timestamp in their filenames. A missing backup directory yields an
// empty list.
func (m *Manager) ListBackups() ([]BackupMetadata, error) {
	entries, err := os.ReadDir(m.cfg.BackupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.SetBackupsAvailable(0)
			return []BackupMetadata{}, nil
		}
		return nil, fmt.Errorf("failed to list backup directory: %w", err)
	}

	backups := make([]BackupMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parsed, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logging.Debug().Err(err).Str("filename", entry.Name()).Msg("Skipping unreadable backup entry")
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		backups = append(backups, BackupMetadata{
			Filename:  entry.Name(),
			Version:   parsed.version,
			Timestamp: parsed.created.Format(displayTimestampLayout),
			CreatedAt: parsed.created,
			Path:      filepath.Join(m.cfg.BackupDir, entry.Name()),
			SizeMB:    sizeInMiB(info.Size()),
			SizeBytes: info.Size(),
			stamp:     parsed.stamp,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].stamp != backups[j].stamp {
			return backups[i].stamp > backups[j].stamp
		}
		return backups[i].Filename > backups[j].Filename
	})

	metrics.SetBackupsAvailable(len(backups))
	return backups, nil
}

func sizeInMiB(size int64) float64 {
	return math.Round(float64(size)/bytesPerMiB*100) / 100
}
