// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
		want      bool
	}{
		{name: "equal versions", current: "1.2.3", candidate: "1.2.3", want: false},
		{name: "patch bump", current: "1.2.3", candidate: "1.2.4", want: true},
		{name: "minor bump", current: "1.2.9", candidate: "1.3.0", want: true},
		{name: "major bump", current: "1.9.9", candidate: "2.0.0", want: true},
		{name: "older candidate", current: "1.3.0", candidate: "1.2.9", want: false},
		{name: "numeric not lexical", current: "1.9.0", candidate: "1.10.0", want: true},
		{name: "padding two components", current: "2.0", candidate: "2.0.0", want: false},
		{name: "padding one component", current: "2", candidate: "2.0.1", want: true},
		{name: "fourth component ignored", current: "1.2.3", candidate: "1.2.3.4", want: false},
		{name: "fourth component ignored reversed", current: "1.2.3.9", candidate: "1.2.3", want: false},
		{name: "default version", current: DefaultVersion, candidate: "0.0.1", want: true},
		{name: "surrounding whitespace", current: " 1.0.0\n", candidate: "1.0.1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.current, tt.candidate)
			if err != nil {
				t.Fatalf("Compare(%q, %q) error = %v", tt.current, tt.candidate, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %v, want %v", tt.current, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestCompareReflexive(t *testing.T) {
	for _, v := range []string{"0.0.0", "1", "1.2", "1.2.3", "10.20.30", "1.2.3.4"} {
		got, err := Compare(v, v)
		if err != nil {
			t.Fatalf("Compare(%q, %q) error = %v", v, v, err)
		}
		if got {
			t.Errorf("Compare(%q, %q) = true, want false", v, v)
		}
	}
}

func TestCompareInvalid(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
	}{
		{name: "empty candidate", current: "1.0.0", candidate: ""},
		{name: "letters", current: "1.0.0", candidate: "abc"},
		{name: "prerelease", current: "1.0.0", candidate: "1.1.0-beta"},
		{name: "build metadata", current: "1.0.0+build5", candidate: "1.1.0"},
		{name: "v prefix", current: "1.2.0", candidate: "v1.3.0"},
		{name: "uppercase V prefix", current: "V1.2.0", candidate: "1.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compare(tt.current, tt.candidate); err == nil {
				t.Errorf("Compare(%q, %q) expected error", tt.current, tt.candidate)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	got, err := ParseVersion("4.5")
	if err != nil {
		t.Fatalf("ParseVersion() error = %v", err)
	}
	if got != [3]int64{4, 5, 0} {
		t.Errorf("ParseVersion(4.5) = %v, want [4 5 0]", got)
	}
}

func TestCurrentVersion(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    string
	}{
		{name: "missing marker", content: nil, want: DefaultVersion},
		{name: "empty marker", content: strPtr(""), want: DefaultVersion},
		{name: "whitespace only", content: strPtr("  \n"), want: DefaultVersion},
		{name: "trimmed", content: strPtr(" 1.4.2\n"), want: "1.4.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			if tt.content != nil {
				env.writeFile(t, DefaultVersionFile, *tt.content)
			}
			m := env.newManager(t, "")

			if got := m.CurrentVersion(); got != tt.want {
				t.Errorf("CurrentVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
