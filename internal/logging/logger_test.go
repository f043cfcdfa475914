// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureLogs swaps the global logger for one writing to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevLogger := Logger()
	prevLevel := zerolog.GlobalLevel()
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetLogger(prevLogger)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "Info", "warn", "error"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false, want true", lvl)
		}
	}
	for _, lvl := range []string{"", "loud", "panic"} {
		if ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = true, want false", lvl)
		}
	}
}

func TestInitJSONOutput(t *testing.T) {
	prevLogger := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prevLogger)
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Timestamp: true, Output: &buf})

	Info().Msg("dropped")
	Warn().Str("phase", "backup").Msg("kept")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") {
		t.Errorf("info line written at warn level: %s", out)
	}
	m := decodeLine(t, out)
	if m["message"] != "kept" || m["phase"] != "backup" || m["level"] != "warn" {
		t.Errorf("unexpected entry: %v", m)
	}
	if _, ok := m["time"]; !ok {
		t.Errorf("timestamp missing: %v", m)
	}
}

func TestInitConsoleOutput(t *testing.T) {
	prevLogger := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prevLogger)
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	Info().Msg("console line")

	out := buf.String()
	if !strings.Contains(out, "console line") {
		t.Fatalf("output = %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console format produced JSON: %q", out)
	}
}

func TestErr(t *testing.T) {
	buf := captureLogs(t)

	Err(errors.New("disk full")).Msg("backup failed")
	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "error" || m["error"] != "disk full" {
		t.Errorf("unexpected entry: %v", m)
	}

	buf.Reset()
	Err(nil).Msg("backup ok")
	m = decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "info" {
		t.Errorf("Err(nil) level = %v, want info", m["level"])
	}
}

func TestSetLevelString(t *testing.T) {
	buf := captureLogs(t)

	SetLevelString("error")
	if GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("GetLevel() = %v", GetLevel())
	}
	Warn().Msg("suppressed")
	if buf.Len() != 0 {
		t.Errorf("warn written at error level: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	buf := captureLogs(t)

	l := WithComponent("updater")
	l.Info().Msg("hello")
	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["component"] != "updater" {
		t.Errorf("component = %v", m["component"])
	}
}
