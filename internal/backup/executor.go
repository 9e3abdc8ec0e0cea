// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
executor.go - Single Tenant Backup Run

One run exports every table in ExportTables for a tenant, writes the
snapshot, validates it and commits the outcome:

 1. Fetch rows per table. A missing table is exported as an empty array and
    logged at warn level.
 2. Assemble the SnapshotDocument and count records.
 3. Write the document. When the tenant does not keep local backups the
    file goes to a scratch directory and is removed after validation.
 4. Validate. An invalid snapshot fails the whole run.
 5. Success: LastBackup is updated, the failure record cleared, retention
    applied, the snapshot mirrored offsite when configured, and a success
    (or "recovered" for retries) notification sent.
 6. Failure: error entry, failure record, failure notification.

LastBackup is written only after a valid snapshot, so a failed validation is
never committed. Every run is bounded by RunTimeout; a timeout is an
ordinary failure that feeds the retry manager.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/models"
)

// scratchDir holds snapshots of tenants that do not keep local backups.
const scratchDir = ".scratch"

// Executor runs tenant backups.
type Executor struct {
	cfg       Config
	source    DataSource
	tenants   TenantStore
	validator *Validator
	retries   *RetryManager
	cleaner   *Cleaner
	notifier  Notifier
	mirror    Mirror
	events    *eventlog.Logger
	logger    zerolog.Logger
	now       func() time.Time
}

// ExecutorDeps are the collaborators of an Executor. Mirror is optional.
type ExecutorDeps struct {
	Source    DataSource
	Tenants   TenantStore
	Validator *Validator
	Retries   *RetryManager
	Cleaner   *Cleaner
	Notifier  Notifier
	Mirror    Mirror
	Events    *eventlog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(cfg Config, deps ExecutorDeps) *Executor {
	return &Executor{
		cfg:       cfg,
		source:    deps.Source,
		tenants:   deps.Tenants,
		validator: deps.Validator,
		retries:   deps.Retries,
		cleaner:   deps.Cleaner,
		notifier:  deps.Notifier,
		mirror:    deps.Mirror,
		events:    deps.Events,
		logger:    logging.WithComponent("backup-executor"),
		now:       time.Now,
	}
}

// Run performs a scheduled backup of one tenant.
func (e *Executor) Run(ctx context.Context, cfg models.TenantBackupConfig) *Result {
	return e.RunAttempt(ctx, cfg, TriggerScheduled, 1)
}

// RunAttempt performs one backup attempt. attempt counts consecutive tries
// for the tenant, starting at 1.
func (e *Executor) RunAttempt(ctx context.Context, cfg models.TenantBackupConfig, trigger Trigger, attempt int) *Result {
	ctx = logging.ContextWithTenant(logging.ContextWithNewCorrelationID(ctx), cfg.TenantID)
	if e.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	start := e.now()
	result := &Result{
		TenantID:   cfg.TenantID,
		TenantName: cfg.TenantName,
		Attempt:    attempt,
		Trigger:    trigger,
	}

	e.events.Log(models.LogInfo, models.ActionBackupStart,
		fmt.Sprintf("Backup started (%s, attempt %d)", trigger, attempt),
		eventlog.WithTenant(cfg.TenantID, cfg.TenantName))

	err := e.produce(ctx, cfg, start, result)
	result.Duration = e.now().Sub(start)

	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = errors.Mark(err, ErrTimeout)
		}
		e.fail(ctx, cfg, result, err)
	} else {
		e.succeed(ctx, cfg, result)
	}

	metrics.BackupRunsTotal.WithLabelValues(string(result.Status), string(trigger)).Inc()
	metrics.BackupDuration.WithLabelValues(string(result.Status)).Observe(result.Duration.Seconds())
	return result
}

// produce exports, writes, validates and records LastBackup. Any error
// leaves the tenant uncommitted.
func (e *Executor) produce(ctx context.Context, cfg models.TenantBackupConfig, start time.Time, result *Result) error {
	doc, err := e.export(ctx, cfg, start)
	if err != nil {
		return err
	}
	result.RecordCount = countRecords(doc.Data)

	name := SnapshotFileName(cfg.TenantName, start)
	path := filepath.Join(TenantDir(e.cfg.RootDir, cfg.TenantName), name)
	if !cfg.KeepLocalBackup {
		path = filepath.Join(e.cfg.RootDir, scratchDir, name)
		defer func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				e.logger.Warn().Err(err).Str("file", path).Msg("Failed to remove scratch snapshot")
			}
		}()
	}

	size, err := writeSnapshot(path, doc)
	if err != nil {
		return err
	}
	result.FileSize = size
	if cfg.KeepLocalBackup {
		result.FilePath = path
	}

	validation := e.validator.Validate(ctx, path)
	result.Validation = validation
	if !validation.IsValid {
		if cfg.KeepLocalBackup {
			// An invalid snapshot must not count towards retention.
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				e.logger.Warn().Err(err).Str("file", path).Msg("Failed to remove invalid snapshot")
			}
			result.FilePath = ""
		}
		return errors.Mark(errors.Newf("snapshot validation failed: %s", validation.ErrorText()), ErrValidation)
	}

	if err := ctx.Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "backup run aborted"), ErrTimeout)
	}

	if err := e.tenants.UpdateLastBackup(ctx, cfg.TenantID, start); err != nil {
		return errors.Mark(errors.Wrap(err, "update last backup"), ErrIO)
	}

	// Mirroring is best effort and never fails a committed run.
	if cfg.KeepLocalBackup && e.mirror != nil {
		if err := e.mirror.Upload(ctx, cfg.TenantName, path); err != nil {
			e.logger.Warn().Err(err).Str("tenant_id", cfg.TenantID).Msg("Offsite mirror upload failed")
			metrics.OffsiteUploadsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.OffsiteUploadsTotal.WithLabelValues("success").Inc()
		}
	}
	return nil
}

// export fetches every table into a snapshot document.
func (e *Executor) export(ctx context.Context, cfg models.TenantBackupConfig, start time.Time) (*models.SnapshotDocument, error) {
	doc := &models.SnapshotDocument{
		Timestamp:  start.UTC(),
		Version:    SnapshotVersion,
		TenantID:   cfg.TenantID,
		TenantName: cfg.TenantName,
		Data:       make(map[string][]map[string]interface{}, len(ExportTables)),
	}

	for _, table := range ExportTables {
		rows, err := e.source.FetchTable(ctx, cfg.TenantID, table)
		switch {
		case errors.Is(err, ErrTableNotFound):
			e.events.Log(models.LogWarn, models.ActionBackupStart,
				fmt.Sprintf("Table %s not found; exported as empty", table),
				eventlog.WithTenant(cfg.TenantID, cfg.TenantName),
				eventlog.WithDetails(map[string]interface{}{"table": table}))
			rows = nil
		case err != nil:
			if ctx.Err() != nil {
				return nil, errors.Mark(errors.Wrapf(err, "fetch table %s", table), ErrTimeout)
			}
			return nil, errors.Mark(errors.Wrapf(err, "fetch table %s", table), ErrIO)
		}
		if rows == nil {
			rows = []map[string]interface{}{}
		}
		doc.Data[table] = rows
	}
	return doc, nil
}

func (e *Executor) succeed(ctx context.Context, cfg models.TenantBackupConfig, result *Result) {
	result.Status = StatusSuccess
	result.Message = fmt.Sprintf("Backup completed: %d records, %d bytes", result.RecordCount, result.FileSize)

	if err := e.retries.ClearFailure(ctx, cfg.TenantID); err != nil {
		e.logger.Error().Err(err).Str("tenant_id", cfg.TenantID).Msg("Failed to clear failure record")
	}

	if cfg.KeepLocalBackup {
		if _, err := e.cleaner.Cleanup(ctx, cfg); err != nil {
			e.logger.Error().Err(err).Str("tenant_id", cfg.TenantID).Msg("Retention cleanup failed")
		}
	}

	metrics.BackupSizeBytes.Observe(float64(result.FileSize))
	metrics.BackupRecords.Observe(float64(result.RecordCount))
	metrics.LastSuccessTimestamp.WithLabelValues(cfg.TenantID).Set(float64(e.now().Unix()))

	e.events.Log(models.LogSuccess, models.ActionBackupComplete, result.Message,
		eventlog.WithTenant(cfg.TenantID, cfg.TenantName),
		eventlog.WithDuration(result.Duration),
		eventlog.WithFile(result.FilePath, result.FileSize),
		eventlog.WithDetails(map[string]interface{}{
			"record_count": result.RecordCount,
			"attempt":      result.Attempt,
			"trigger":      string(result.Trigger),
			"status":       string(result.Validation.Status),
		}))

	if result.Trigger == TriggerRetry {
		e.notifier.NotifyRetrySuccess(ctx, cfg.TenantID, cfg.TenantName, result.Attempt)
		return
	}
	e.notifier.NotifySuccess(ctx, cfg.TenantID, cfg.TenantName, result.RecordCount, result.FileSize, result.Duration)
}

func (e *Executor) fail(ctx context.Context, cfg models.TenantBackupConfig, result *Result, err error) {
	result.Status = StatusError
	result.Message = err.Error()
	result.ErrorKind = KindOf(err)

	e.events.Log(models.LogError, models.ActionBackupError, "Backup failed",
		eventlog.WithTenant(cfg.TenantID, cfg.TenantName),
		eventlog.WithDuration(result.Duration),
		eventlog.WithError(err),
		eventlog.WithDetails(map[string]interface{}{
			"error_kind": result.ErrorKind,
			"attempt":    result.Attempt,
			"trigger":    string(result.Trigger),
		}))

	// Bookkeeping must outlive a run that failed by timing out.
	bookCtx := context.WithoutCancel(ctx)

	attempt := result.Attempt
	rec, recErr := e.retries.RecordFailure(bookCtx, cfg.TenantID, cfg.TenantName, err)
	if recErr != nil {
		e.logger.Error().Err(recErr).Str("tenant_id", cfg.TenantID).Msg("Failed to record backup failure")
	} else {
		attempt = rec.FailureCount
	}

	e.notifier.NotifyFailure(bookCtx, cfg.TenantID, cfg.TenantName, result.Message, attempt)
}
