// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
retry.go - Failure Bookkeeping and Retry Processing

Each tenant has at most one FailureRecord. The first failure creates it with
FailureCount 1; every further failure increments the count and recomputes

	NextRetry = now + BaseDelay * Multiplier^(FailureCount-1)

so with the defaults (5 minutes, x2) retries are spaced 5, 10, 20 minutes.

ProcessRetries runs every due record (NextRetry <= now and FailureCount <
MaxRetries) through the executor in NextRetry order, pausing between
attempts. Records that reached MaxRetries are then purged with a terminal
retry_exhausted entry; the tenant needs a manual backup from then on.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/models"
)

// FailureStore persists failure records.
type FailureStore interface {
	UpdateFailure(ctx context.Context, tenantID string, fn func(*models.FailureRecord) *models.FailureRecord) (*models.FailureRecord, error)
	DeleteFailure(ctx context.Context, tenantID string) error
	ListFailures(ctx context.Context) ([]models.FailureRecord, error)
}

// attemptRunner re-runs a tenant backup. Implemented by *Executor.
type attemptRunner interface {
	RunAttempt(ctx context.Context, cfg models.TenantBackupConfig, trigger Trigger, attempt int) *Result
}

// RetryManager tracks failures and drives retries.
type RetryManager struct {
	cfg      RetryConfig
	failures FailureStore
	tenants  TenantStore
	events   *eventlog.Logger
	runner   attemptRunner
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRetryManager creates a retry manager. The runner is attached by
// NewManager once the executor exists.
func NewRetryManager(cfg RetryConfig, failures FailureStore, tenants TenantStore, events *eventlog.Logger) *RetryManager {
	def := DefaultConfig().Retry
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	return &RetryManager{
		cfg:      cfg,
		failures: failures,
		tenants:  tenants,
		events:   events,
		logger:   logging.WithComponent("backup-retry"),
		now:      time.Now,
	}
}

// NextRetryDelay returns the delay scheduled after the failureCount-th
// consecutive failure.
func (r *RetryManager) NextRetryDelay(failureCount int) time.Duration {
	return nextRetryDelay(r.cfg.BaseDelay, r.cfg.Multiplier, failureCount)
}

func nextRetryDelay(base time.Duration, multiplier float64, failureCount int) time.Duration {
	if failureCount < 1 {
		failureCount = 1
	}
	return time.Duration(float64(base) * math.Pow(multiplier, float64(failureCount-1)))
}

// RecordFailure upserts the failure record of a tenant and schedules its
// next retry.
func (r *RetryManager) RecordFailure(ctx context.Context, tenantID, tenantName string, cause error) (*models.FailureRecord, error) {
	now := r.now()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	rec, err := r.failures.UpdateFailure(ctx, tenantID, func(cur *models.FailureRecord) *models.FailureRecord {
		if cur == nil {
			cur = &models.FailureRecord{TenantID: tenantID}
		}
		cur.TenantName = tenantName
		cur.FailureCount++
		cur.LastFailure = now
		cur.NextRetry = now.Add(r.NextRetryDelay(cur.FailureCount))
		cur.ErrorMessage = msg
		cur.ErrorKind = KindOf(cause)
		return cur
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "record failure for tenant %s", tenantID), ErrIO)
	}

	r.logger.Warn().
		Str("tenant_id", tenantID).
		Int("failure_count", rec.FailureCount).
		Time("next_retry", rec.NextRetry).
		Str("error_kind", rec.ErrorKind).
		Msg("Backup failure recorded")
	return rec, nil
}

// ClearFailure removes the failure record of a tenant.
func (r *RetryManager) ClearFailure(ctx context.Context, tenantID string) error {
	if err := r.failures.DeleteFailure(ctx, tenantID); err != nil {
		return errors.Mark(errors.Wrapf(err, "clear failure for tenant %s", tenantID), ErrIO)
	}
	return nil
}

// RetrySummary reports one ProcessRetries pass.
type RetrySummary struct {
	Attempted int `json:"attempted"`
	Recovered int `json:"recovered"`
	Failed    int `json:"failed"`
	Exhausted int `json:"exhausted"`
}

// ProcessRetries re-runs due failures sequentially, then purges exhausted
// records.
func (r *RetryManager) ProcessRetries(ctx context.Context, now time.Time) RetrySummary {
	var summary RetrySummary

	records, err := r.failures.ListFailures(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list failure records")
		return summary
	}

	pace := newPacer(r.cfg.Pause)
	for i := range records {
		rec := records[i]
		if rec.NextRetry.After(now) || rec.FailureCount >= r.cfg.MaxRetries {
			continue
		}
		if err := pace.Wait(ctx); err != nil {
			return summary
		}

		summary.Attempted++
		if r.retry(ctx, rec) {
			summary.Recovered++
		} else {
			summary.Failed++
		}
	}

	summary.Exhausted = r.purgeExhausted(ctx)
	r.updatePendingGauge(ctx)
	return summary
}

// retry runs one attempt for rec and reports whether it recovered.
func (r *RetryManager) retry(ctx context.Context, rec models.FailureRecord) bool {
	attempt := rec.FailureCount + 1
	metrics.RetryAttemptsTotal.Inc()

	cfg, err := r.tenants.GetConfig(ctx, rec.TenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// The tenant is gone; nothing left to retry.
			r.logger.Warn().Str("tenant_id", rec.TenantID).Msg("Dropping failure record of unknown tenant")
			if err := r.ClearFailure(ctx, rec.TenantID); err != nil {
				r.logger.Error().Err(err).Str("tenant_id", rec.TenantID).Msg("Failed to drop failure record")
			}
			return false
		}
		// Could not load the config: count it as a failed attempt.
		if _, recErr := r.RecordFailure(ctx, rec.TenantID, rec.TenantName, errors.Mark(err, ErrConfig)); recErr != nil {
			r.logger.Error().Err(recErr).Str("tenant_id", rec.TenantID).Msg("Failed to record retry failure")
		}
		return false
	}

	if r.events != nil {
		r.events.Log(models.LogInfo, models.ActionRetry,
			fmt.Sprintf("Retrying backup (attempt %d of %d)", attempt, r.cfg.MaxRetries),
			eventlog.WithTenant(cfg.TenantID, cfg.TenantName),
			eventlog.WithDetails(map[string]interface{}{
				"attempt":        attempt,
				"previous_error": rec.ErrorMessage,
			}),
		)
	}

	result := r.runner.RunAttempt(ctx, *cfg, TriggerRetry, attempt)
	return result.OK()
}

// purgeExhausted removes records that reached MaxRetries and leaves a
// terminal log entry for each.
func (r *RetryManager) purgeExhausted(ctx context.Context) int {
	records, err := r.failures.ListFailures(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list failure records")
		return 0
	}

	purged := 0
	for _, rec := range records {
		if rec.FailureCount < r.cfg.MaxRetries {
			continue
		}
		if err := r.failures.DeleteFailure(ctx, rec.TenantID); err != nil {
			r.logger.Error().Err(err).Str("tenant_id", rec.TenantID).Msg("Failed to purge exhausted failure record")
			continue
		}
		purged++
		metrics.RetryExhaustedTotal.Inc()

		if r.events != nil {
			r.events.Log(models.LogError, models.ActionRetryExhausted,
				fmt.Sprintf("Backup given up after %d consecutive failures; manual backup required", rec.FailureCount),
				eventlog.WithTenant(rec.TenantID, rec.TenantName),
				eventlog.WithDetails(map[string]interface{}{
					"failure_count": rec.FailureCount,
					"last_failure":  rec.LastFailure,
					"error_kind":    rec.ErrorKind,
				}),
				eventlog.WithError(errors.New(rec.ErrorMessage)),
			)
		}
	}
	return purged
}

func (r *RetryManager) updatePendingGauge(ctx context.Context) {
	records, err := r.failures.ListFailures(ctx)
	if err != nil {
		return
	}
	metrics.RetryPending.Set(float64(len(records)))
}

// FailureStats summarizes the failure records.
type FailureStats struct {
	MaxRetries int                    `json:"max_retries"`
	Pending    int                    `json:"pending"`
	Due        int                    `json:"due"`
	Exhausted  int                    `json:"exhausted"`
	ByKind     map[string]int         `json:"by_kind"`
	Records    []models.FailureRecord `json:"records"`
}

// PendingTenants returns the ids of tenants with a failure record,
// including exhausted records not yet purged.
func (r *RetryManager) PendingTenants(ctx context.Context) (map[string]bool, error) {
	records, err := r.failures.ListFailures(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list failure records"), ErrIO)
	}
	pending := make(map[string]bool, len(records))
	for _, rec := range records {
		pending[rec.TenantID] = true
	}
	return pending, nil
}

// Stats returns the current failure records and their counts.
func (r *RetryManager) Stats(ctx context.Context) (*FailureStats, error) {
	records, err := r.failures.ListFailures(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list failure records"), ErrIO)
	}

	now := r.now()
	stats := &FailureStats{
		MaxRetries: r.cfg.MaxRetries,
		ByKind:     make(map[string]int),
		Records:    records,
	}
	if stats.Records == nil {
		stats.Records = []models.FailureRecord{}
	}
	for _, rec := range records {
		if rec.FailureCount >= r.cfg.MaxRetries {
			stats.Exhausted++
			continue
		}
		stats.Pending++
		if !rec.NextRetry.After(now) {
			stats.Due++
		}
		stats.ByKind[rec.ErrorKind]++
	}
	return stats, nil
}
