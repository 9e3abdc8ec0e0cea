// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import (
	"context"
	"time"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/notify"
)

// Version is reported by the health endpoint. Set at build time with
// -ldflags "-X github.com/tomtom215/snapvault/internal/api.Version=..."
var Version = "dev"

// BackupService is the management surface implemented by *backup.Manager.
type BackupService interface {
	ForceBackup(ctx context.Context, tenantID string) (*backup.Result, error)
	GetStorageStats(ctx context.Context) (*backup.StorageStats, error)
	GetFailureStats(ctx context.Context) (*backup.FailureStats, error)
	GetRecentLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	GetLogStats(ctx context.Context) (*models.LogStats, error)
	ListValidations(ctx context.Context, limit int) ([]models.ValidationRecord, error)

	AddRecipient(ctx context.Context, r models.NotificationRecipient) (*models.NotificationRecipient, error)
	RemoveRecipient(ctx context.Context, id string) error
	ListRecipients(ctx context.Context) ([]models.NotificationRecipient, error)
	GetEmailConfig(ctx context.Context) (models.EmailConfig, error)
	UpdateEmailConfig(ctx context.Context, cfg models.EmailConfig) (models.EmailConfig, error)
}

// NotificationStatus reports the email transport state.
type NotificationStatus interface {
	Status() notify.Status
}

// Pinger checks data source connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchedulerState reports whether the scheduler loop is active.
type SchedulerState interface {
	Running() bool
}

// HandlerDeps are the collaborators of a Handler. Only Backups is required.
type HandlerDeps struct {
	Backups        BackupService
	Notifications  NotificationStatus
	Database       Pinger
	Scheduler      SchedulerState
	OffsiteEnabled bool
}

// Handler serves the management API.
//
// Handler methods are organized across multiple files:
//   - handlers_health.go: Health, HealthLive, HealthReady
//   - handlers_backup.go: forced runs, storage/failure stats, logs, validations
//   - handlers_notifications.go: recipients, email settings, transport status
//   - handlers_helpers.go: response and error helpers
type Handler struct {
	backups        BackupService
	notifications  NotificationStatus
	db             Pinger
	scheduler      SchedulerState
	offsiteEnabled bool
	startTime      time.Time
}

// NewHandler creates a new Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		backups:        deps.Backups,
		notifications:  deps.Notifications,
		db:             deps.Database,
		scheduler:      deps.Scheduler,
		offsiteEnabled: deps.OffsiteEnabled,
		startTime:      time.Now(),
	}
}
