// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestAPIResponseJSON(t *testing.T) {
	ts := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	success, err := json.Marshal(&APIResponse{
		Status:   "success",
		Data:     map[string]string{"version": "1.2.0"},
		Metadata: Metadata{Timestamp: ts},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(success), `"error"`) {
		t.Errorf("success envelope should omit error: %s", success)
	}
	if strings.Contains(string(success), "request_id") {
		t.Errorf("empty request_id should be omitted: %s", success)
	}

	failure, err := json.Marshal(&APIResponse{
		Status:   "error",
		Metadata: Metadata{Timestamp: ts, RequestID: "req-1"},
		Error:    &APIError{Code: "BACKUP_NOT_FOUND", Message: "backup file not found"},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"data":null`, `"code":"BACKUP_NOT_FOUND"`, `"request_id":"req-1"`} {
		if !strings.Contains(string(failure), want) {
			t.Errorf("error envelope missing %s: %s", want, failure)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleAgent, RoleAdmin} {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false", role)
		}
	}
	if IsValidRole("viewer") {
		t.Error("IsValidRole(viewer) = true, want false")
	}
}
