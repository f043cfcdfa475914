// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

// RetentionPolicy decides which backups PruneBackups removes.
type RetentionPolicy struct {
	// MinCount backups are always kept, regardless of age. Values below 1
	// are treated as 1 so the newest backup is never removed.
	MinCount int

	// MaxCount caps the number of kept backups. Zero means no cap.
	MaxCount int

	// MaxAgeDays removes backups older than this many days. Zero disables
	// age-based removal.
	MaxAgeDays int
}

// Enabled reports whether the policy can remove anything.
func (p RetentionPolicy) Enabled() bool {
	return p.MaxCount > 0 || p.MaxAgeDays > 0
}

func (p RetentionPolicy) minCount() int {
	if p.MinCount < 1 {
		return 1
	}
	return p.MinCount
}

// PruneResult lists the backups removed by PruneBackups.
type PruneResult struct {
	Deleted      []string `json:"deleted"`
	DeletedBytes int64    `json:"deleted_bytes"`
	Kept         int      `json:"kept"`
}

// PruneBackups removes backups outside policy under the exclusive update
// scope.
func (m *Manager) PruneBackups(ctx context.Context, policy RetentionPolicy) (*PruneResult, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.prune(ctx, policy)
}

// prune is PruneBackups without the scope; callers must hold it.
func (m *Manager) prune(ctx context.Context, policy RetentionPolicy) (*PruneResult, error) {
	backups, err := m.ListBackups()
	if err != nil {
		return nil, err
	}

	doomed := selectForDeletion(backups, policy, m.now())
	result := &PruneResult{Deleted: []string{}}

	var errs *multierror.Error
	for _, b := range doomed {
		if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierror.Append(errs, fmt.Errorf("failed to remove %s: %w", b.Filename, err))
			continue
		}
		result.Deleted = append(result.Deleted, b.Filename)
		result.DeletedBytes += b.SizeBytes
	}
	result.Kept = len(backups) - len(result.Deleted)
	metrics.SetBackupsAvailable(result.Kept)

	if len(result.Deleted) > 0 {
		logging.Ctx(ctx).Info().
			Strs("deleted", result.Deleted).
			Int64("deleted_bytes", result.DeletedBytes).
			Int("kept", result.Kept).
			Msg("Pruned old backups")
	}
	return result, errs.ErrorOrNil()
}

// selectForDeletion returns the backups policy removes. backups must be
// sorted newest first, as ListBackups returns them.
func selectForDeletion(backups []BackupMetadata, policy RetentionPolicy, now time.Time) []BackupMetadata {
	if !policy.Enabled() {
		return nil
	}

	var cutoff time.Time
	if policy.MaxAgeDays > 0 {
		cutoff = now.AddDate(0, 0, -policy.MaxAgeDays)
	}

	var doomed []BackupMetadata
	kept := 0
	for i, b := range backups {
		switch {
		case i < policy.minCount():
			kept++
		case !cutoff.IsZero() && b.CreatedAt.Before(cutoff):
			doomed = append(doomed, b)
		case policy.MaxCount > 0 && kept >= policy.MaxCount:
			doomed = append(doomed, b)
		default:
			kept++
		}
	}
	return doomed
}
