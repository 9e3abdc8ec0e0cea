// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
backup.go - Tenant Backup Models

Persisted and exchanged types of the backup subsystem: per-tenant schedule
configuration, snapshot files and documents, validation records and failure
bookkeeping.
*/

//nolint:staticcheck // File documentation, not package doc
package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Frequency is how often an automatic backup runs for a tenant.
type Frequency string

const (
	// FrequencyDaily runs once per day at BackupTime.
	FrequencyDaily Frequency = "daily"

	// FrequencyWeekly runs once per week at BackupTime.
	FrequencyWeekly Frequency = "weekly"

	// FrequencyMonthly runs once per month at BackupTime.
	FrequencyMonthly Frequency = "monthly"
)

// TenantBackupConfig is the backup configuration of a single tenant.
// LastBackup is the only field written by the backup subsystem.
type TenantBackupConfig struct {
	TenantID          string     `json:"tenant_id" validate:"required"`
	TenantName        string     `json:"tenant_name" validate:"required"`
	AutoBackupEnabled bool       `json:"auto_backup_enabled"`
	Frequency         Frequency  `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	BackupTime        string     `json:"backup_time" validate:"required,hhmm"`
	KeepLocalBackup   bool       `json:"keep_local_backup"`
	MaxBackups        int        `json:"max_backups" validate:"min=0"`
	RetentionDays     int        `json:"retention_days" validate:"min=0"`
	LastBackup        *time.Time `json:"last_backup,omitempty"`
}

// SnapshotFile is a snapshot persisted on disk.
type SnapshotFile struct {
	TenantID   string    `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
}

// SnapshotDocument is the JSON body written to a snapshot file.
// Rows are opaque column/value maps as returned by the data source.
type SnapshotDocument struct {
	Timestamp  time.Time                            `json:"timestamp"`
	Version    string                               `json:"version"`
	TenantID   string                               `json:"tenantId"`
	TenantName string                               `json:"tenantName"`
	Data       map[string][]map[string]interface{} `json:"data"`
}

// RawSnapshotDocument is the decode-side view of a snapshot. Fields are kept
// raw so that missing or mistyped values can be reported instead of failing
// the whole decode.
type RawSnapshotDocument struct {
	Timestamp  json.RawMessage            `json:"timestamp"`
	Version    json.RawMessage            `json:"version"`
	TenantID   json.RawMessage            `json:"tenantId"`
	TenantName json.RawMessage            `json:"tenantName"`
	Data       map[string]json.RawMessage `json:"data"`
}

// ValidationStatus is the outcome of validating one snapshot file.
type ValidationStatus string

const (
	// ValidationValid means no errors and no warnings.
	ValidationValid ValidationStatus = "valid"

	// ValidationWarning means warnings only.
	ValidationWarning ValidationStatus = "warning"

	// ValidationInvalid means at least one error.
	ValidationInvalid ValidationStatus = "invalid"
)

// ValidationRecord is the persisted result of validating a snapshot file.
// Records are never mutated and are pruned after a fixed age.
type ValidationRecord struct {
	ID          string           `json:"id"`
	FileName    string           `json:"file_name"`
	TenantID    string           `json:"tenant_id,omitempty"`
	TenantName  string           `json:"tenant_name,omitempty"`
	FileSize    int64            `json:"file_size"`
	RecordCount int              `json:"record_count"`
	TableCount  int              `json:"table_count"`
	Checksum    string           `json:"checksum,omitempty"`
	Status      ValidationStatus `json:"status"`
	Errors      string           `json:"errors,omitempty"`
	Warnings    string           `json:"warnings,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// FailureRecord tracks consecutive backup failures of one tenant.
// At most one record exists per tenant.
type FailureRecord struct {
	TenantID     string    `json:"tenant_id"`
	TenantName   string    `json:"tenant_name"`
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure"`
	NextRetry    time.Time `json:"next_retry"`
	ErrorMessage string    `json:"error_message"`
	ErrorKind    string    `json:"error_kind,omitempty"`
}
