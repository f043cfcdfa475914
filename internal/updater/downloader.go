// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

const (
	downloadDirPattern = "wacrm-update-download-*"
	artifactFileName   = "update.zip"
	userAgentFormat    = "WACRM-Updater/%s"
)

var checksumPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Download streams the artifact at url into a new temporary directory and
// verifies its SHA-256 digest against expectedChecksum (case-insensitive).
// On a mismatch the file is left in place for inspection and a
// *ChecksumMismatchError is returned. Removing a verified artifact is the
// installer's job.
func (m *Manager) Download(ctx context.Context, url, expectedChecksum string) (string, error) {
	began := time.Now()
	expected := strings.TrimSpace(expectedChecksum)

	if !checksumPattern.MatchString(expected) {
		return "", m.downloadFailed(ctx, began, &DownloadError{
			URL: url,
			Err: fmt.Errorf("%w: %q", ErrInvalidChecksum, expectedChecksum),
		})
	}

	dir, err := os.MkdirTemp(m.cfg.TempDir, downloadDirPattern)
	if err != nil {
		return "", m.downloadFailed(ctx, began, &DownloadError{
			URL: url,
			Err: fmt.Errorf("failed to create download directory: %w", err),
		})
	}
	path := filepath.Join(dir, artifactFileName)

	logging.Ctx(ctx).Info().Str("url", url).Str("artifact", path).Msg("Downloading update")

	if err := m.downloadToFile(ctx, url, path); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.Ctx(ctx).Warn().Err(rmErr).Str("dir", dir).Msg("Failed to remove download directory")
		}
		return "", m.downloadFailed(ctx, began, &DownloadError{URL: url, Err: err})
	}

	actual, err := calculateFileChecksum(m.fs, path)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.Ctx(ctx).Warn().Err(rmErr).Str("dir", dir).Msg("Failed to remove download directory")
		}
		return "", m.downloadFailed(ctx, began, &DownloadError{URL: url, Err: err})
	}
	if !strings.EqualFold(actual, expected) {
		mismatch := &ChecksumMismatchError{Path: path, Expected: strings.ToLower(expected), Actual: actual}
		metrics.RecordUpdatePhase(string(PhaseDownload), time.Since(began), mismatch)
		logging.Ctx(ctx).Error().Err(mismatch).Str("artifact", path).Msg("Update artifact failed verification")
		return "", mismatch
	}

	duration := time.Since(began)
	metrics.RecordUpdatePhase(string(PhaseDownload), duration, nil)
	logging.Ctx(ctx).Info().
		Str("artifact", path).
		Str("checksum", actual).
		Dur("duration", duration).
		Msg("Update downloaded and verified")
	return path, nil
}

func (m *Manager) downloadToFile(ctx context.Context, url, dstFile string) error {
	//nolint:gosec // G304: dstFile is inside a directory created by MkdirTemp
	out, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %q: %w", dstFile, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		out.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf(userAgentFormat, m.CurrentVersion()))

	resp, err := m.downloadClient.Do(req)
	if err != nil {
		out.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode != http.StatusOK {
		out.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to write response body to file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", dstFile, err)
	}
	return nil
}

func (m *Manager) downloadFailed(ctx context.Context, began time.Time, err *DownloadError) error {
	metrics.RecordUpdatePhase(string(PhaseDownload), time.Since(began), err)
	logging.Ctx(ctx).Error().Err(err).Str("url", err.URL).Msg("Update download failed")
	return err
}

// calculateFileChecksum returns the lowercase hex SHA-256 digest of a file.
func calculateFileChecksum(ops fileOps, filePath string) (string, error) {
	file, err := ops.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
