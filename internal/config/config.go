// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package config

import (
	"time"

	"github.com/tomtom215/wacrm/internal/updater"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Updater  UpdaterConfig  `koanf:"updater"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds authentication, CORS and rate limit settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// UpdateRateLimitReqs applies per client IP to the install and restore
	// routes on top of the global limit.
	UpdateRateLimitReqs int `koanf:"update_rate_limit_reqs"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json (production) or console (development).
	Format string `koanf:"format"`

	// Caller adds file:line to log entries.
	Caller bool `koanf:"caller"`
}

// UpdaterConfig configures the self-update manager.
type UpdaterConfig struct {
	ServerURL       string        `koanf:"server_url"`
	AppRoot         string        `koanf:"app_root"`
	BackupDir       string        `koanf:"backup_dir"`
	VersionFile     string        `koanf:"version_file"`
	BackupSources   []string      `koanf:"backup_sources"`
	TempDir         string        `koanf:"temp_dir"`
	HTTPTimeout     time.Duration `koanf:"http_timeout"`
	DownloadTimeout time.Duration `koanf:"download_timeout"`

	// StatusStore selects where job records are kept: file or badger.
	StatusStore     string `koanf:"status_store"`
	StatusStorePath string `koanf:"status_store_path"`

	Breaker BreakerConfig `koanf:"breaker"`

	// Retention prunes old backups after a successful install.
	Retention RetentionConfig `koanf:"retention"`
}

// RetentionConfig bounds the backup directory. Zero values keep every backup.
type RetentionConfig struct {
	MinCount   int `koanf:"min_count"`
	MaxCount   int `koanf:"max_count"`
	MaxAgeDays int `koanf:"max_age_days"`
}

// BreakerConfig configures the circuit breaker around update-server checks.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// ManagerConfig converts the updater section into the value accepted by
// updater.NewManager.
func (u UpdaterConfig) ManagerConfig() updater.Config {
	return updater.Config{
		ServerURL:       u.ServerURL,
		AppRoot:         u.AppRoot,
		BackupDir:       u.BackupDir,
		VersionFile:     u.VersionFile,
		BackupSources:   append([]string(nil), u.BackupSources...),
		TempDir:         u.TempDir,
		HTTPTimeout:     u.HTTPTimeout,
		DownloadTimeout: u.DownloadTimeout,
		Breaker: updater.BreakerConfig{
			MaxRequests:      u.Breaker.MaxRequests,
			Interval:         u.Breaker.Interval,
			Timeout:          u.Breaker.Timeout,
			FailureThreshold: u.Breaker.FailureThreshold,
		},
		Retention: updater.RetentionPolicy{
			MinCount:   u.Retention.MinCount,
			MaxCount:   u.Retention.MaxCount,
			MaxAgeDays: u.Retention.MaxAgeDays,
		},
	}
}

// OpenStatusStore opens the configured job status backend.
func (u UpdaterConfig) OpenStatusStore() (updater.StatusStore, error) {
	return updater.OpenStatusStore(u.ManagerConfig(), u.StatusStore, u.StatusStorePath)
}
