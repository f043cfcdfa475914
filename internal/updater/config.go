// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

const (
	// DefaultVersion is reported when the version marker is missing or empty.
	DefaultVersion = "0.0.0"

	// DefaultVersionFile is the marker file name relative to the application root.
	DefaultVersionFile = "version.txt"

	// DefaultBackupDirName is the backup directory name relative to the application root.
	DefaultBackupDirName = "backups"

	// StatusFileName is the file status store written next to the version marker.
	StatusFileName = "update_status.json"

	// DefaultHTTPTimeout bounds the manifest request.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds a complete artifact download.
	DefaultDownloadTimeout = 30 * time.Minute

	lockFileName = ".update.lock"
)

// DefaultBackupSources returns the top-level directories captured by a backup.
func DefaultBackupSources() []string {
	return []string{"frontend", "backend"}
}

// Config holds the settings of an update Manager. Zero values are replaced
// with defaults by NewManager.
type Config struct {
	// ServerURL is the base URL of the update server. The manifest is fetched
	// from <ServerURL>/version.json. May be empty when only backup and restore
	// operations are needed.
	ServerURL string

	// AppRoot is the absolute path of the live application tree.
	AppRoot string

	// BackupDir stores backup archives and the update lock file.
	// Default: <AppRoot>/backups
	BackupDir string

	// VersionFile is the version marker path relative to AppRoot.
	// Default: version.txt
	VersionFile string

	// BackupSources are the top-level directories included in a backup.
	// Default: frontend, backend
	BackupSources []string

	// TempDir is the parent for download and extraction directories.
	// Default: os.TempDir()
	TempDir string

	// HTTPTimeout bounds the manifest request.
	HTTPTimeout time.Duration

	// DownloadTimeout bounds an artifact download including the body transfer.
	DownloadTimeout time.Duration

	// Breaker configures the circuit breaker around the manifest request.
	Breaker BreakerConfig

	// Retention prunes old backups after a successful install. The zero
	// value keeps every backup.
	Retention RetentionPolicy
}

// BreakerConfig mirrors gobreaker.Settings for the manifest request.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the breaker settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         0,
		Timeout:          60 * time.Second,
		FailureThreshold: 5,
	}
}

// withDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.AppRoot != "" {
		c.AppRoot = filepath.Clean(c.AppRoot)
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(c.AppRoot, DefaultBackupDirName)
	} else if !filepath.IsAbs(c.BackupDir) {
		c.BackupDir = filepath.Join(c.AppRoot, c.BackupDir)
	}
	c.BackupDir = filepath.Clean(c.BackupDir)
	if c.VersionFile == "" {
		c.VersionFile = DefaultVersionFile
	}
	if len(c.BackupSources) == 0 {
		c.BackupSources = DefaultBackupSources()
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = DefaultDownloadTimeout
	}

	defaults := DefaultBreakerConfig()
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = defaults.MaxRequests
	}
	if c.Breaker.Timeout <= 0 {
		c.Breaker.Timeout = defaults.Timeout
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = defaults.FailureThreshold
	}
	return c
}

// Validate checks the configuration after defaults have been applied.
func (c Config) Validate() error {
	if c.AppRoot == "" {
		return fmt.Errorf("app root is required")
	}
	if !filepath.IsAbs(c.AppRoot) {
		return fmt.Errorf("app root must be an absolute path: %s", c.AppRoot)
	}
	if filepath.IsAbs(c.VersionFile) {
		return fmt.Errorf("version file must be relative to the app root: %s", c.VersionFile)
	}
	for _, src := range c.BackupSources {
		if src == "" || src == "." || src == ".." || filepath.Base(src) != src {
			return fmt.Errorf("backup source must be a top-level directory name: %q", src)
		}
	}
	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil {
			return fmt.Errorf("invalid update server URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("update server URL must use http or https: %s", c.ServerURL)
		}
		if u.Host == "" {
			return fmt.Errorf("update server URL has no host: %s", c.ServerURL)
		}
	}
	if c.Retention.MinCount < 0 || c.Retention.MaxCount < 0 || c.Retention.MaxAgeDays < 0 {
		return fmt.Errorf("backup retention values must not be negative: %+v", c.Retention)
	}
	if c.Retention.MaxCount > 0 && c.Retention.MaxCount < c.Retention.MinCount {
		return fmt.Errorf("backup retention max count %d is below min count %d",
			c.Retention.MaxCount, c.Retention.MinCount)
	}
	return nil
}

func (c Config) versionPath() string {
	return filepath.Join(c.AppRoot, c.VersionFile)
}

func (c Config) defaultStatusPath(backend string) string {
	if backend == StatusStoreBadger {
		return filepath.Join(c.BackupDir, ".status")
	}
	return filepath.Join(filepath.Dir(c.versionPath()), StatusFileName)
}

func (c Config) lockPath() string {
	return filepath.Join(c.BackupDir, lockFileName)
}
