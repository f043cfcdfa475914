// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wacrm/internal/updater"
)

// Exit codes.
const (
	exitFailure     = 1
	exitDualFailure = 2
)

// errJobFailed marks a background job that ended in a non-success state.
var errJobFailed = errors.New("job did not succeed")

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func printCheckResult(w io.Writer, r *updater.CheckResult) {
	fmt.Fprintf(w, "Current version: %s\n", r.CurrentVersion)
	fmt.Fprintf(w, "Latest version:  %s\n", r.LatestVersion)
	if !r.UpdateAvailable {
		fmt.Fprintln(w, "WACRM is up to date.")
		return
	}
	fmt.Fprintln(w, "An update is available. Run 'wacrm-update install' to apply it.")
	if r.ReleaseDate != "" {
		fmt.Fprintf(w, "Released: %s\n", r.ReleaseDate)
	}
	if r.ReleaseNotes != "" {
		fmt.Fprintf(w, "\n%s\n", r.ReleaseNotes)
	}
}

func printBackups(w io.Writer, backups []updater.BackupMetadata) error {
	if len(backups) == 0 {
		_, err := fmt.Fprintln(w, "No backups found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tVERSION\tCREATED\tSIZE (MiB)")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", b.Filename, b.Version, b.CreatedAt.Format(time.RFC3339), b.SizeMB)
	}
	return tw.Flush()
}

func printStatus(w io.Writer, s *updater.JobStatus) {
	fmt.Fprintf(w, "Job:      %s (%s)\n", s.JobID, s.Kind)
	fmt.Fprintf(w, "State:    %s\n", s.State)
	if s.TargetVersion != "" {
		fmt.Fprintf(w, "Target:   %s\n", s.TargetVersion)
	}
	if s.PreviousVersion != "" || s.NewVersion != "" {
		fmt.Fprintf(w, "Version:  %s -> %s\n", s.PreviousVersion, s.NewVersion)
	}
	if s.BackupPath != "" {
		fmt.Fprintf(w, "Backup:   %s\n", s.BackupPath)
	}
	fmt.Fprintf(w, "Started:  %s\n", s.StartedAt.Format(time.RFC3339))
	if s.FinishedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", s.FinishedAt.Format(time.RFC3339))
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", s.Error)
	}
	if s.RestoreError != "" {
		fmt.Fprintf(w, "Restore:  %s\n", s.RestoreError)
	}
	if s.State == updater.JobDualFailure {
		fmt.Fprintf(w, "Manual intervention required: restore %s by hand.\n", s.BackupPath)
	}
}

// reportError prints err for the operator. A failed rollback gets both
// causes and the backup to recover from.
func reportError(w io.Writer, err error) {
	var dual *updater.DualFailureError
	if errors.As(err, &dual) {
		fmt.Fprintln(w, "Error: update failed and the automatic rollback also failed.")
		fmt.Fprintf(w, "  Install error: %v\n", dual.InstallErr)
		fmt.Fprintf(w, "  Restore error: %v\n", dual.RestoreErr)
		fmt.Fprintf(w, "Manual intervention required: the application tree is in an unknown state.\n")
		if dual.BackupPath != "" {
			fmt.Fprintf(w, "Restore %s by hand before restarting WACRM.\n", dual.BackupPath)
		}
		return
	}

	var install *updater.InstallError
	if errors.As(err, &install) {
		fmt.Fprintf(w, "Error: %v\n", install)
		fmt.Fprintf(w, "The previous version was restored from %s.\n", install.BackupPath)
		return
	}

	fmt.Fprintf(w, "Error: %v\n", err)
}

func exitCode(err error) int {
	var dual *updater.DualFailureError
	if errors.As(err, &dual) {
		return exitDualFailure
	}
	return exitFailure
}
