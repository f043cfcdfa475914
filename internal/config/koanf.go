// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/wacrm/internal/updater"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wacrm/config.yaml",
	"/etc/wacrm/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultAppRoot is where packaged installs place the application tree.
const DefaultAppRoot = "/opt/wacrm"

// defaultConfig returns the built-in defaults. Config file and environment
// values are layered on top.
func defaultConfig() *Config {
	breaker := updater.DefaultBreakerConfig()
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			AuthMode:            "jwt",
			JWTSecret:           "",
			RateLimitReqs:       100,
			RateLimitWindow:     time.Minute,
			RateLimitDisabled:   false,
			CORSOrigins:         []string{"*"},
			UpdateRateLimitReqs: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Updater: UpdaterConfig{
			ServerURL:       "",
			AppRoot:         DefaultAppRoot,
			BackupDir:       updater.DefaultBackupDirName,
			VersionFile:     updater.DefaultVersionFile,
			BackupSources:   updater.DefaultBackupSources(),
			TempDir:         "",
			HTTPTimeout:     updater.DefaultHTTPTimeout,
			DownloadTimeout: updater.DefaultDownloadTimeout,
			StatusStore:     updater.StatusStoreFile,
			StatusStorePath: "",
			Breaker: BreakerConfig{
				MaxRequests:      breaker.MaxRequests,
				Interval:         breaker.Interval,
				Timeout:          breaker.Timeout,
				FailureThreshold: breaker.FailureThreshold,
			},
			Retention: RetentionConfig{
				MinCount: 3,
			},
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
//
// Precedence is ENV > File > Defaults. The result is validated before it is
// returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// UPDATE_SERVER_URL -> updater.server_url, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"updater.backup_sources",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps flat environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Security
	"auth_mode":                  "security.auth_mode",
	"jwt_secret":                 "security.jwt_secret",
	"rate_limit_requests":        "security.rate_limit_reqs",
	"rate_limit_window":          "security.rate_limit_window",
	"rate_limit_disabled":        "security.rate_limit_disabled",
	"disable_rate_limit":         "security.rate_limit_disabled",
	"cors_origins":               "security.cors_origins",
	"update_rate_limit_requests": "security.update_rate_limit_reqs",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Updater
	"update_server_url":        "updater.server_url",
	"app_root":                 "updater.app_root",
	"backup_dir":               "updater.backup_dir",
	"version_file":             "updater.version_file",
	"backup_sources":           "updater.backup_sources",
	"update_temp_dir":          "updater.temp_dir",
	"update_http_timeout":      "updater.http_timeout",
	"update_download_timeout":  "updater.download_timeout",
	"update_status_store":      "updater.status_store",
	"update_status_store_path": "updater.status_store_path",
	"update_breaker_threshold": "updater.breaker.failure_threshold",
	"update_breaker_timeout":   "updater.breaker.timeout",
	"update_breaker_interval":  "updater.breaker.interval",
	"update_breaker_half_open": "updater.breaker.max_requests",
	"backup_retention_min":     "updater.retention.min_count",
	"backup_retention_max":     "updater.retention.max_count",
	"backup_retention_days":    "updater.retention.max_age_days",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" so unrelated environment does not leak into
// the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
