// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/tomtom215/wacrm/internal/logging"
)

// ParseVersion normalizes s into a major.minor.patch triple. Missing trailing
// components are zero; components past the third are ignored. A "v" prefix,
// pre-release and build suffixes are rejected.
func ParseVersion(s string) ([3]int64, error) {
	var triple [3]int64

	s = strings.TrimSpace(s)
	if s == "" {
		return triple, fmt.Errorf("empty version string")
	}
	if s[0] < '0' || s[0] > '9' {
		return triple, fmt.Errorf("invalid version %q: must start with a digit", s)
	}
	v, err := goversion.NewVersion(s)
	if err != nil {
		return triple, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return triple, fmt.Errorf("invalid version %q: only dot-separated integers are supported", s)
	}

	copy(triple[:], v.Segments64())
	return triple, nil
}

// Compare reports whether candidate is strictly newer than current. Only the
// first three components take part in the comparison, so 1.2.3.9 equals 1.2.3.
func Compare(current, candidate string) (bool, error) {
	a, err := ParseVersion(current)
	if err != nil {
		return false, err
	}
	b, err := ParseVersion(candidate)
	if err != nil {
		return false, err
	}
	for i := range a {
		if a[i] != b[i] {
			return b[i] > a[i], nil
		}
	}
	return false, nil
}

// CurrentVersion returns the trimmed content of the version marker, or
// DefaultVersion when the marker is missing, unreadable or empty.
func (m *Manager) CurrentVersion() string {
	return readVersionMarker(m.cfg.versionPath())
}

//nolint:gosec // G304: path is the configured version marker
func readVersionMarker(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Str("path", path).Msg("Failed to read version marker")
		}
		return DefaultVersion
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return DefaultVersion
	}
	return version
}
