// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/wacrm/internal/auth"
	"github.com/tomtom215/wacrm/internal/models"
	"github.com/tomtom215/wacrm/internal/updater"
)

func (c *cli) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the installed application version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				version := m.CurrentVersion()
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]string{"version": version})
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
				return err
			})
		},
	}
}

func (c *cli) newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ask the update server for a newer release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				result, err := m.CheckForUpdates(cmd.Context())
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printCheckResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

func (c *cli) newBackupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				backups, err := m.ListBackups()
				if err != nil {
					return err
				}
				if c.jsonOutput {
					if backups == nil {
						backups = []updater.BackupMetadata{}
					}
					return printJSON(cmd.OutOrStdout(), backups)
				}
				return printBackups(cmd.OutOrStdout(), backups)
			})
		},
	}
}

func (c *cli) newBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the application tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				path, err := m.CreateBackup(cmd.Context())
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]string{"backup_path": path})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", path)
				return err
			})
		},
	}
}

func (c *cli) newPruneCommand() *cobra.Command {
	var policy updater.RetentionPolicy

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old backups",
		Long: `Prune removes backups outside the retention policy. Flags that are
not given fall back to the BACKUP_RETENTION_* settings. The newest backup is
always kept.`,
		Example: "  wacrm-update prune --max-count 5 --max-age-days 90",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				effective := m.Config().Retention
				flags := cmd.Flags()
				if flags.Changed("min-count") {
					effective.MinCount = policy.MinCount
				}
				if flags.Changed("max-count") {
					effective.MaxCount = policy.MaxCount
				}
				if flags.Changed("max-age-days") {
					effective.MaxAgeDays = policy.MaxAgeDays
				}
				if !effective.Enabled() {
					return fmt.Errorf("no retention limit set: pass --max-count or --max-age-days")
				}

				result, err := m.PruneBackups(cmd.Context(), effective)
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				for _, name := range result.Deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d backups removed, %d kept\n", len(result.Deleted), result.Kept)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&policy.MinCount, "min-count", 0, "backups always kept")
	cmd.Flags().IntVar(&policy.MaxCount, "max-count", 0, "maximum number of backups kept")
	cmd.Flags().IntVar(&policy.MaxAgeDays, "max-age-days", 0, "remove backups older than this many days")
	return cmd
}

func (c *cli) newInstallCommand() *cobra.Command {
	var req updater.InstallRequest

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download, back up and install an update",
		Long: `Install runs the full update pipeline and waits for it to finish:
download and verify the artifact, back up the application tree, install,
and restore the backup if the install fails.

Without flags the artifact advertised by the update server is installed.
--url and --checksum select an artifact explicitly and must be given together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				result, err := m.RunInstall(cmd.Context(), req)
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s -> %s\nBackup: %s\n",
					result.PreviousVersion, result.NewVersion, result.BackupPath)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&req.DownloadURL, "url", "", "artifact download URL")
	cmd.Flags().StringVar(&req.Checksum, "checksum", "", "expected SHA-256 of the artifact (hex)")
	cmd.MarkFlagsRequiredTogether("url", "checksum")
	return cmd
}

func (c *cli) newRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup_filename>",
		Short: "Restore the application tree from a backup",
		Long: `Restore extracts a backup from the backup directory over the
application root. Only bare filenames listed by 'wacrm-update backups' are
accepted.`,
		Example: "  wacrm-update restore backup_1.2.0_20260101_120000.zip",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				job, err := m.StartRestore(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				m.Wait()

				status, err := m.LastStatus(cmd.Context())
				if err != nil {
					return fmt.Errorf("restore finished but its status is unavailable: %w", err)
				}
				if status.JobID != job.ID {
					return fmt.Errorf("restore job %s finished but the last status belongs to %s", job.ID, status.JobID)
				}
				if c.jsonOutput {
					if err := printJSON(cmd.OutOrStdout(), status); err != nil {
						return err
					}
				} else {
					printStatus(cmd.OutOrStdout(), status)
				}
				if status.State != updater.JobSucceeded {
					return fmt.Errorf("%w: %s", errJobFailed, status.Error)
				}
				return nil
			})
		},
	}
}

func (c *cli) newStatusCommand() *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last update or restore job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withManager(cmd, func(m *updater.Manager) error {
				if history > 0 {
					jobs, err := m.StatusHistory(cmd.Context(), history)
					if err != nil {
						return err
					}
					if c.jsonOutput {
						if jobs == nil {
							jobs = []*updater.JobStatus{}
						}
						return printJSON(cmd.OutOrStdout(), jobs)
					}
					for i, status := range jobs {
						if i > 0 {
							fmt.Fprintln(cmd.OutOrStdout())
						}
						printStatus(cmd.OutOrStdout(), status)
					}
					return nil
				}

				status, err := m.LastStatus(cmd.Context())
				if errors.Is(err, updater.ErrNoStatus) {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "No update has been recorded.")
					return err
				}
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), status)
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "show the last N jobs instead of only the latest")
	return cmd
}

func (c *cli) newTokenCommand() *cobra.Command {
	var (
		username string
		role     string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !models.IsValidRole(role) {
				return fmt.Errorf("invalid role %q (valid: %v)", role, models.ValidRoles)
			}
			cfg, err := c.load(cmd)
			if err != nil {
				return err
			}
			jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret)
			if err != nil {
				return err
			}
			token, err := jwtManager.GenerateToken(username, role, ttl)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{"token": token})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "token subject")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "token role")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
