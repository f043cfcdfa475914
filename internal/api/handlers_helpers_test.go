// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"line\nforged", `line\x0aforged`},
		{"tab\there", `tab\x09here`},
		{"del\x7f", `del\x7f`},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRespondErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(rec, req, http.StatusInternalServerError, CodeInternalError, "Internal server error",
		errors.New("open /opt/wacrm/secret: permission denied"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "/opt/wacrm/secret") {
		t.Errorf("cause leaked: %s", rec.Body.String())
	}
	resp := decodeResponse(t, rec, nil)
	if resp.Status != "error" || resp.Error.Code != CodeInternalError {
		t.Errorf("response = %+v", resp)
	}
}

func TestRespondJSONHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	respondSuccess(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]string{"a": "b"})

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	etag := rec.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Errorf("ETag = %q", etag)
	}
}

func TestGenerateETagStable(t *testing.T) {
	a := generateETag([]byte(`{"a":1}`))
	if a != generateETag([]byte(`{"a":1}`)) {
		t.Error("ETag not deterministic")
	}
	if a == generateETag([]byte(`{"a":2}`)) {
		t.Error("different bodies share an ETag")
	}
}

func TestGetIntParam(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 20, false},
		{"?n=1", 1, false},
		{"?n=50", 50, false},
		{"?n=51", 0, true},
		{"?n=0", 0, true},
		{"?n=-3", 0, true},
		{"?n=abc", 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		got, err := getIntParam(req, "n", 20, 1, 50)
		if (err != nil) != tt.wantErr {
			t.Errorf("getIntParam(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("getIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
