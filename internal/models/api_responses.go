// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

// Package models holds the JSON envelope and small DTOs shared by the HTTP
// API and the operator CLI.
package models

import (
	"time"
)

// APIResponse is the envelope of every API response.
//
// Status is "success" with Data set, or "error" with Error set:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-10-01T12:00:00Z"},
//	  "error": {"code": "UPDATE_IN_PROGRESS", "message": "an update is already in progress"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code and a message for clients.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Health states reported by the health endpoints.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthStatus is returned by /api/v1/health/ready.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	UpdateInProgress bool    `json:"update_in_progress"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}
