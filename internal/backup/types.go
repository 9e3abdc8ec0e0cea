// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package backup

import (
	"context"
	"time"

	"github.com/tomtom215/snapvault/internal/models"
)

// SnapshotVersion is written into every snapshot document. Bump it when
// ExportTables changes.
const SnapshotVersion = "2.1"

// ExportTables is the fixed list of tables exported for every tenant.
var ExportTables = []string{
	"empresas",
	"usuarios",
	"clientes",
	"proveedores",
	"categorias",
	"productos",
	"ventas",
	"detalle_ventas",
	"compras",
	"detalle_compras",
	"presupuestos",
	"detalle_presupuestos",
	"liquidaciones",
	"pagos",
	"gastos",
	"movimientos_caja",
}

// TenantTable holds the tenant's own row; its "id" column must match the
// snapshot's tenantId.
const TenantTable = "empresas"

// CriticalTables must be present in every snapshot. An empty critical table
// is a warning.
var CriticalTables = []string{"empresas", "clientes", "productos", "ventas"}

// DataSource reads tenant rows. Implementations return ErrTableNotFound for
// a table that does not exist.
type DataSource interface {
	FetchTable(ctx context.Context, tenantID, table string) ([]map[string]interface{}, error)
}

// TenantStore reads backup configuration and records successful runs.
// GetConfig returns an error marked ErrNotFound for an unknown tenant.
type TenantStore interface {
	ListConfigs(ctx context.Context) ([]models.TenantBackupConfig, error)
	GetConfig(ctx context.Context, tenantID string) (*models.TenantBackupConfig, error)
	UpdateLastBackup(ctx context.Context, tenantID string, at time.Time) error
}

// Notifier sends best-effort outcome notifications. Implementations never
// return errors to the caller.
type Notifier interface {
	NotifySuccess(ctx context.Context, tenantID, tenantName string, recordCount int, size int64, duration time.Duration)
	NotifyFailure(ctx context.Context, tenantID, tenantName, errorMessage string, attempt int)
	NotifyRetrySuccess(ctx context.Context, tenantID, tenantName string, attempt int)
}

// Mirror copies a committed snapshot to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, tenantName, path string) error
}

// Config holds backup orchestration settings.
type Config struct {
	// RootDir is the root of the per-tenant snapshot tree.
	RootDir string

	// RunTimeout bounds one executor invocation.
	RunTimeout time.Duration

	// TenantPause separates consecutive tenants within one tick.
	TenantPause time.Duration

	// CheckInterval is the scheduler tick period.
	CheckInterval time.Duration

	// SweepInterval is how often expired records and log files are swept.
	SweepInterval time.Duration

	// SweepTimeout bounds one sweep.
	SweepTimeout time.Duration

	// ValidationRetention is how long validation records are kept.
	ValidationRetention time.Duration

	// EventLogRetention is how long rotated event log files are kept.
	EventLogRetention time.Duration

	Retry RetryConfig
}

// RetryConfig holds retry backoff settings.
type RetryConfig struct {
	// MaxRetries is the failure count at which a tenant is given up on.
	MaxRetries int

	// BaseDelay is the delay after the first failure.
	BaseDelay time.Duration

	// Multiplier scales the delay for each subsequent failure.
	Multiplier float64

	// Interval is how often due retries are processed.
	Interval time.Duration

	// Pause separates consecutive retry attempts.
	Pause time.Duration
}

// DefaultConfig returns the default backup configuration.
func DefaultConfig() Config {
	return Config{
		RootDir:             "./backups",
		RunTimeout:          10 * time.Minute,
		TenantPause:         time.Second,
		CheckInterval:       time.Minute,
		SweepInterval:       24 * time.Hour,
		SweepTimeout:        30 * time.Second,
		ValidationRetention: 90 * 24 * time.Hour,
		EventLogRetention:   60 * 24 * time.Hour,
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  5 * time.Minute,
			Multiplier: 2,
			Interval:   time.Minute,
			Pause:      2 * time.Second,
		},
	}
}

// Trigger identifies what started a run.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerRetry     Trigger = "retry"
	TriggerManual    Trigger = "manual"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is returned by every executor run. Failures are reported here, not
// as Go errors.
type Result struct {
	TenantID    string            `json:"tenant_id"`
	TenantName  string            `json:"tenant_name"`
	Status      Status            `json:"status"`
	Message     string            `json:"message"`
	ErrorKind   string            `json:"error_kind,omitempty"`
	FilePath    string            `json:"file_path,omitempty"`
	FileSize    int64             `json:"file_size,omitempty"`
	RecordCount int               `json:"record_count"`
	Duration    time.Duration     `json:"duration"`
	Attempt     int               `json:"attempt"`
	Trigger     Trigger           `json:"trigger"`
	Validation  *ValidationResult `json:"validation,omitempty"`
}

// OK reports whether the run succeeded.
func (r *Result) OK() bool {
	return r != nil && r.Status == StatusSuccess
}
