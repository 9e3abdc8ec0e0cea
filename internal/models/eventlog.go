// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package models

import (
	"time"
)

// LogLevel is the severity of a backup event log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarn    LogLevel = "warn"
	LogError   LogLevel = "error"
	LogSuccess LogLevel = "success"
)

// LogAction tags what a backup event log entry is about.
type LogAction string

const (
	ActionBackupStart    LogAction = "backup_start"
	ActionBackupComplete LogAction = "backup_complete"
	ActionBackupError    LogAction = "backup_error"
	ActionCleanup        LogAction = "cleanup"
	ActionValidation     LogAction = "validation"
	ActionRetry          LogAction = "retry"
	ActionRetryExhausted LogAction = "retry_exhausted"
	ActionNotification   LogAction = "notification"
	ActionScheduler      LogAction = "scheduler"
)

// LogEntry is one append-only line of the backup event log.
type LogEntry struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Action     LogAction              `json:"action"`
	TenantID   string                 `json:"tenant_id,omitempty"`
	TenantName string                 `json:"tenant_name,omitempty"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	DurationMS int64                  `json:"duration_ms,omitempty"`
	File       string                 `json:"file,omitempty"`
	Size       int64                  `json:"size,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// LogStats aggregates a recent window of the backup event log.
type LogStats struct {
	Window               int               `json:"window"`
	ByLevel              map[LogLevel]int  `json:"by_level"`
	ByAction             map[LogAction]int `json:"by_action"`
	LastSuccessfulBackup *time.Time        `json:"last_successful_backup,omitempty"`
	TotalBackups         int               `json:"total_backups"`
	SuccessfulBackups    int               `json:"successful_backups"`
	FailedBackups        int               `json:"failed_backups"`
}
