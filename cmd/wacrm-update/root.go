// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/wacrm/internal/config"
	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/updater"
)

// cli holds state shared by every subcommand.
type cli struct {
	loadConfig func() (*config.Config, error)

	configPath string
	appRoot    string
	jsonOutput bool
	verbose    bool
}

func newRootCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:   "wacrm-update",
		Short: "Check, install and roll back WACRM updates",
		Long: `wacrm-update manages updates of a WACRM installation.

Every install takes a zip backup of the application tree first and restores
it automatically when the install fails. Backups can also be restored by hand.

Configuration is read the same way as the server: defaults, then the config
file (CONFIG_PATH or config.yaml), then environment variables.`,
		Example: `  wacrm-update check
  wacrm-update install
  wacrm-update backups
  wacrm-update restore backup_1.2.0_20260101_120000.zip`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file path (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.appRoot, "app-root", "", "application root (overrides APP_ROOT)")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log pipeline progress to stderr")
	root.SuggestionsMinimumDistance = 2

	root.AddCommand(
		c.newVersionCommand(),
		c.newCheckCommand(),
		c.newBackupsCommand(),
		c.newBackupCommand(),
		c.newPruneCommand(),
		c.newInstallCommand(),
		c.newRestoreCommand(),
		c.newStatusCommand(),
		c.newTokenCommand(),
	)
	return root
}

// load loads the service configuration and applies flag overrides.
func (c *cli) load(cmd *cobra.Command) (*config.Config, error) {
	if c.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, c.configPath); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", config.ConfigPathEnvVar, err)
		}
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.appRoot != "" {
		cfg.Updater.AppRoot = c.appRoot
	}

	level := "warn"
	if c.verbose {
		level = cfg.Logging.Level
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    "console",
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	return cfg, nil
}

// withManager opens the status store and the update manager for the
// duration of fn.
func (c *cli) withManager(cmd *cobra.Command, fn func(m *updater.Manager) error) error {
	cfg, err := c.load(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.Updater.OpenStatusStore()
	if err != nil {
		return fmt.Errorf("failed to open status store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close status store")
		}
	}()

	m, err := updater.NewManager(cfg.Updater.ManagerConfig(), store)
	if err != nil {
		return fmt.Errorf("failed to initialize update manager: %w", err)
	}
	if _, err := m.RecoverInterrupted(cmd.Context()); err != nil {
		logging.Warn().Err(err).Msg("Failed to recover interrupted update jobs")
	}
	return fn(m)
}
