// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/metrics"
)

const (
	manifestPath    = "/version.json"
	maxManifestSize = 1 << 20
)

// Check results used as metric labels.
const (
	checkResultAvailable = "available"
	checkResultCurrent   = "current"
	checkResultError     = "error"
)

// CheckForUpdates fetches the manifest and compares it with the installed
// version. Network failures, non-2xx responses, malformed JSON and an open
// circuit breaker all surface as *UpdateCheckError. There is no retry.
func (m *Manager) CheckForUpdates(ctx context.Context) (*CheckResult, error) {
	began := time.Now()
	current := m.CurrentVersion()

	manifest, err := m.fetchManifest(ctx)
	if err != nil {
		return nil, m.checkFailed(ctx, began, err)
	}

	available, err := Compare(current, manifest.Version)
	if err != nil {
		return nil, m.checkFailed(ctx, began, &UpdateCheckError{
			URL: m.manifestURL(),
			Err: fmt.Errorf("failed to compare versions: %w", err),
		})
	}

	result := &CheckResult{
		CurrentVersion:  current,
		LatestVersion:   manifest.Version,
		UpdateAvailable: available,
		DownloadURL:     manifest.DownloadURL,
		Checksum:        manifest.Checksum,
		ReleaseNotes:    manifest.ReleaseNotes,
		ReleaseDate:     manifest.ReleaseDate,
	}

	outcome := checkResultCurrent
	if available {
		outcome = checkResultAvailable
	}
	metrics.RecordUpdateCheck(outcome)
	metrics.RecordUpdatePhase(string(PhaseCheck), time.Since(began), nil)
	logging.Ctx(ctx).Info().
		Str("current_version", current).
		Str("latest_version", manifest.Version).
		Bool("update_available", available).
		Msg("Update check completed")
	return result, nil
}

func (m *Manager) manifestURL() string {
	return strings.TrimRight(m.cfg.ServerURL, "/") + manifestPath
}

func (m *Manager) fetchManifest(ctx context.Context) (*Manifest, error) {
	if m.cfg.ServerURL == "" {
		return nil, &UpdateCheckError{URL: manifestPath, Err: ErrNoUpdateServer}
	}
	url := m.manifestURL()

	manifest, err := m.breaker.Execute(func() (*Manifest, error) {
		return m.requestManifest(ctx, url)
	})
	if err != nil {
		return nil, &UpdateCheckError{URL: url, Err: err}
	}
	return manifest, nil
}

func (m *Manager) requestManifest(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf(userAgentFormat, m.CurrentVersion()))

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}

	var manifest Manifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestSize)).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if strings.TrimSpace(manifest.Version) == "" {
		return nil, fmt.Errorf("manifest has no version")
	}
	manifest.Version = strings.TrimSpace(manifest.Version)
	return &manifest, nil
}

func (m *Manager) checkFailed(ctx context.Context, began time.Time, err error) error {
	metrics.RecordUpdateCheck(checkResultError)
	metrics.RecordUpdatePhase(string(PhaseCheck), time.Since(began), err)
	logging.Ctx(ctx).Error().Err(err).Msg("Update check failed")
	return err
}

func newManifestBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[*Manifest] {
	return gobreaker.NewCircuitBreaker[*Manifest](gobreaker.Settings{
		Name:        "update-manifest",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}
