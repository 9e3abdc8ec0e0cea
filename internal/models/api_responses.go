// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "TENANT_NOT_FOUND",
//	    "message": "tenant 42 not found"
//	  },
//	  "metadata": {"timestamp": "2026-10-17T02:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Fields:
//   - Code: Machine-readable error code (e.g., "VALIDATION_ERROR", "BACKUP_FAILED")
//   - Message: Human-readable error message
//   - Details: Additional context (field names, constraints, etc.)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the body of the detailed health endpoint.
type HealthStatus struct {
	Status             string  `json:"status"` // healthy, degraded
	Version            string  `json:"version"`
	DatabaseConnected  bool    `json:"database_connected"`
	SchedulerRunning   bool    `json:"scheduler_running"`
	NotificationsReady bool    `json:"notifications_ready"`
	OffsiteEnabled     bool    `json:"offsite_enabled"`
	Uptime             float64 `json:"uptime"`
}
