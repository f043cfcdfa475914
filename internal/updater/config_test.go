// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"path/filepath"
	"testing"
)

func TestConfigWithDefaults(t *testing.T) {
	root := t.TempDir()
	cfg := Config{AppRoot: root}.withDefaults()

	if cfg.BackupDir != filepath.Join(root, DefaultBackupDirName) {
		t.Errorf("BackupDir = %q, want %q", cfg.BackupDir, filepath.Join(root, DefaultBackupDirName))
	}
	if cfg.VersionFile != DefaultVersionFile {
		t.Errorf("VersionFile = %q, want %q", cfg.VersionFile, DefaultVersionFile)
	}
	if len(cfg.BackupSources) != 2 || cfg.BackupSources[0] != "frontend" || cfg.BackupSources[1] != "backend" {
		t.Errorf("BackupSources = %v, want [frontend backend]", cfg.BackupSources)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, DefaultHTTPTimeout)
	}
	if cfg.Breaker.FailureThreshold != DefaultBreakerConfig().FailureThreshold {
		t.Errorf("Breaker.FailureThreshold = %d", cfg.Breaker.FailureThreshold)
	}

	relative := Config{AppRoot: root, BackupDir: "snapshots"}.withDefaults()
	if relative.BackupDir != filepath.Join(root, "snapshots") {
		t.Errorf("relative BackupDir = %q, want it joined onto the app root", relative.BackupDir)
	}
}

func TestConfigValidate(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "minimal", cfg: Config{AppRoot: root}, wantErr: false},
		{name: "with server", cfg: Config{AppRoot: root, ServerURL: "https://updates.example.com"}, wantErr: false},
		{name: "missing root", cfg: Config{}, wantErr: true},
		{name: "relative root", cfg: Config{AppRoot: "app"}, wantErr: true},
		{name: "ftp server", cfg: Config{AppRoot: root, ServerURL: "ftp://updates.example.com"}, wantErr: true},
		{name: "server without host", cfg: Config{AppRoot: root, ServerURL: "https://"}, wantErr: true},
		{name: "nested source", cfg: Config{AppRoot: root, BackupSources: []string{"backend/app"}}, wantErr: true},
		{name: "absolute version file", cfg: Config{AppRoot: root, VersionFile: "/etc/version"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.withDefaults().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
