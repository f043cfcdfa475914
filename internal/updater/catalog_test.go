// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestListBackups(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	m := env.newManager(t, "")
	backupDir := filepath.Join(env.root, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]int{
		"backup_1.0.0_20250101_120000.zip": 1024,
		"backup_1.1.0_20250601_080000.zip": 3 * 1024 * 1024,
		"backup_1.0.5_20250315_235959.zip": 512 * 1024,
		"not_a_backup.txt":                 10,
		"backup_bad_timestamp.zip":         10,
		"backup_1.0.0_20251301_000000.zip": 10,
	}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(backupDir, name), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(backupDir, "backup_2.0.0_20260101_000000.zip"), 0o755); err != nil {
		t.Fatal(err)
	}

	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}

	wantOrder := []string{
		"backup_1.1.0_20250601_080000.zip",
		"backup_1.0.5_20250315_235959.zip",
		"backup_1.0.0_20250101_120000.zip",
	}
	if len(backups) != len(wantOrder) {
		names := make([]string, len(backups))
		for i, b := range backups {
			names[i] = b.Filename
		}
		t.Fatalf("ListBackups() returned %v, want %v", names, wantOrder)
	}
	for i, want := range wantOrder {
		if backups[i].Filename != want {
			t.Errorf("backups[%d] = %s, want %s", i, backups[i].Filename, want)
		}
	}

	newest := backups[0]
	if newest.Version != "1.1.0" {
		t.Errorf("Version = %q, want 1.1.0", newest.Version)
	}
	if newest.Timestamp != "2025-06-01 08:00:00" {
		t.Errorf("Timestamp = %q, want 2025-06-01 08:00:00", newest.Timestamp)
	}
	if newest.SizeMB != 3 {
		t.Errorf("SizeMB = %v, want 3", newest.SizeMB)
	}
	if !filepath.IsAbs(newest.Path) {
		t.Errorf("Path %q is not absolute", newest.Path)
	}
	if backups[1].SizeMB != 0.5 {
		t.Errorf("SizeMB = %v, want 0.5", backups[1].SizeMB)
	}
	if backups[2].SizeMB != 0 {
		t.Errorf("SizeMB = %v, want 0 for 1 KiB", backups[2].SizeMB)
	}
}

func TestListBackupsMissingDirectory(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	m := env.newManager(t, "")

	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("ListBackups() = %d entries, want 0", len(backups))
	}
}

func TestListBackupsUnreadableDirectory(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	// A file where the backup directory should be cannot be listed.
	env.writeFile(t, "backups", "not a directory")
	m := env.newManager(t, "")

	if _, err := m.ListBackups(); err == nil {
		t.Error("ListBackups() expected error when the backup directory is a file")
	}
}

func TestBackupNameRoundTrip(t *testing.T) {
	created := time.Date(2026, 10, 19, 14, 5, 9, 0, time.Local)
	tests := []struct {
		version string
		want    string
	}{
		{version: "1.2.0", want: "1.2.0"},
		{version: "2.0.0-rc1", want: "2.0.0-rc1"},
		{version: "1.2_3", want: "1.2-3"},
		{version: "../../etc", want: "..-..-etc"},
		{version: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			name := backupFileName(tt.version, created)
			if strings.ContainsAny(name, `/\`) {
				t.Fatalf("backupFileName(%q) = %q contains a path separator", tt.version, name)
			}
			parsed, ok := parseBackupName(name)
			if !ok {
				t.Fatalf("parseBackupName(%q) failed", name)
			}
			if parsed.version != tt.want {
				t.Errorf("version = %q, want %q", parsed.version, tt.want)
			}
			if !parsed.created.Equal(created) {
				t.Errorf("created = %v, want %v", parsed.created, created)
			}
		})
	}
}

func TestVersionFromBackupPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/srv/app/backups/backup_1.2.0_20260101_120000.zip", want: "1.2.0"},
		{path: "backup_0.0.0_20260101_120000.zip", want: "0.0.0"},
		{path: "/tmp/snapshot.zip", want: "unknown"},
		{path: "backup_1.2.0.zip", want: "unknown"},
	}
	for _, tt := range tests {
		if got := versionFromBackupPath(tt.path); got != tt.want {
			t.Errorf("versionFromBackupPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolveBackup(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	m := env.newManager(t, "")
	env.writeFile(t, "backups/backup_1.0.0_20250101_120000.zip", "zip")

	path, err := m.ResolveBackup("backup_1.0.0_20250101_120000.zip")
	if err != nil {
		t.Fatalf("ResolveBackup() error = %v", err)
	}
	if path != filepath.Join(env.root, "backups", "backup_1.0.0_20250101_120000.zip") {
		t.Errorf("path = %s", path)
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrInvalidBackupName},
		{name: "traversal", input: "../backup_1.0.0_20250101_120000.zip", wantErr: ErrInvalidBackupName},
		{name: "nested", input: "old/backup_1.0.0_20250101_120000.zip", wantErr: ErrInvalidBackupName},
		{name: "wrong pattern", input: "version.txt", wantErr: ErrInvalidBackupName},
		{name: "missing", input: "backup_9.9.9_20250101_120000.zip", wantErr: ErrBackupNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ResolveBackup(tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveBackup(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsBackupFileName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"backup_1.2.0_20261001_120000.zip", true},
		{"backup_unknown_20261001_120000.zip", true},
		{"backup_1.2.0_20261301_120000.zip", false},
		{"backup_1.2.0.zip", false},
		{"../backup_1.2.0_20261001_120000.zip", false},
		{"not_a_backup.txt", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsBackupFileName(tt.name); got != tt.want {
			t.Errorf("IsBackupFileName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
