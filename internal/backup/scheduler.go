// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
scheduler.go - Backup Scheduler Service

The scheduler owns the only background loop of the subsystem:
  - every CheckInterval (default: 1 minute) it runs Tick, which backs up
    every enabled tenant that is due
  - every Retry.Interval it runs the retry manager
  - every SweepInterval it sweeps expired records

All three run on the same goroutine, so a retry pass never overlaps a tick
and tenants are always backed up one at a time.

A tenant is due when the current local time is within one minute of its
BackupTime (wrapping across midnight) and enough time has passed since its
last backup for its frequency (23h daily, 167h weekly, 719h monthly). The
frequency floors are one hour short of the nominal period so a run that
finished a few seconds late does not skip the next slot.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/validation"
)

const (
	minutesPerDay = 24 * 60

	// dueWindowMinutes is the tolerance around BackupTime.
	dueWindowMinutes = 1
)

// frequencyFloor is the minimum time between two backups of a tenant.
var frequencyFloor = map[models.Frequency]time.Duration{
	models.FrequencyDaily:   23 * time.Hour,
	models.FrequencyWeekly:  167 * time.Hour,
	models.FrequencyMonthly: 719 * time.Hour,
}

// newPacer returns a limiter admitting one event per d. The first Wait
// returns immediately.
func newPacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// IsDue reports whether cfg should be backed up at now. Both the time of
// day and the frequency gate must pass.
func IsDue(cfg models.TenantBackupConfig, now time.Time) bool {
	hour, minute, ok := validation.ParseHHMM(cfg.BackupTime)
	if !ok {
		return false
	}

	target := hour*60 + minute
	current := now.Hour()*60 + now.Minute()
	diff := current - target
	if diff < 0 {
		diff = -diff
	}
	if diff > minutesPerDay/2 {
		diff = minutesPerDay - diff
	}
	if diff > dueWindowMinutes {
		return false
	}

	if cfg.LastBackup == nil {
		return true
	}
	floor, ok := frequencyFloor[cfg.Frequency]
	if !ok {
		return false
	}
	return now.Sub(*cfg.LastBackup) >= floor
}

// TickSummary reports one scheduler tick.
type TickSummary struct {
	Checked   int `json:"checked"`
	Due       int `json:"due"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	// Retrying counts due tenants left to the retry path.
	Retrying int `json:"retrying"`
}

// backupRunner runs a scheduled tenant backup. Implemented by *Executor.
type backupRunner interface {
	Run(ctx context.Context, cfg models.TenantBackupConfig) *Result
}

// Scheduler triggers tenant backups, retries and sweeps.
type Scheduler struct {
	cfg     Config
	tenants TenantStore
	runner  backupRunner
	retries *RetryManager
	cleaner *Cleaner
	events  *eventlog.Logger
	logger  zerolog.Logger

	// Runtime state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler. retries and cleaner may be nil.
func NewScheduler(cfg Config, tenants TenantStore, runner backupRunner, retries *RetryManager, cleaner *Cleaner, events *eventlog.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.Retry.Interval <= 0 {
		cfg.Retry.Interval = def.Retry.Interval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	return &Scheduler{
		cfg:     cfg,
		tenants: tenants,
		runner:  runner,
		retries: retries,
		cleaner: cleaner,
		events:  events,
		logger:  logging.WithComponent("backup-scheduler"),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info().
		Dur("check_interval", s.cfg.CheckInterval).
		Dur("retry_interval", s.cfg.Retry.Interval).
		Dur("sweep_interval", s.cfg.SweepInterval).
		Msg("Starting backup scheduler")
	s.events.Log(models.LogInfo, models.ActionScheduler, "Backup scheduler started")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for the current pass to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping backup scheduler...")
	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.events.Log(models.LogInfo, models.ActionScheduler, "Backup scheduler stopped")
	s.logger.Info().Msg("Backup scheduler stopped")
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	// Stopping cancels the in-flight pass.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()
	retryTicker := time.NewTicker(s.cfg.Retry.Interval)
	defer retryTicker.Stop()
	sweepTicker := time.NewTicker(s.cfg.SweepInterval)
	defer sweepTicker.Stop()

	// Run immediately on start
	s.Tick(ctx, time.Now())
	s.processRetries(ctx)
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		case <-retryTicker.C:
			s.processRetries(ctx)
		case <-sweepTicker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick backs up every enabled tenant that is due at now, one at a time.
// Missed ticks are not caught up.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) TickSummary {
	var summary TickSummary
	metrics.SchedulerTicks.Inc()
	metrics.SchedulerLastTick.Set(float64(now.Unix()))

	configs, err := s.tenants.ListConfigs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load tenant backup configurations")
		s.events.Log(models.LogError, models.ActionScheduler, "Failed to load tenant backup configurations",
			eventlog.WithError(err))
		return summary
	}

	pending := s.pendingRetries(ctx)
	pace := newPacer(s.cfg.TenantPause)
	for i := range configs {
		cfg := configs[i]
		if !cfg.AutoBackupEnabled {
			continue
		}
		summary.Checked++

		if verr := validation.ValidateStruct(&cfg); verr != nil {
			summary.Skipped++
			s.logger.Warn().
				Str("tenant_id", cfg.TenantID).
				Str("error", verr.Error()).
				Msg("Skipping tenant with invalid backup configuration")
			s.events.Log(models.LogWarn, models.ActionScheduler, "Invalid backup configuration; tenant skipped",
				eventlog.WithTenant(cfg.TenantID, cfg.TenantName),
				eventlog.WithError(verr))
			continue
		}

		if !IsDue(cfg, now) {
			continue
		}
		// A tenant with an open failure record belongs to the retry path
		// until the record is cleared or purged.
		if pending[cfg.TenantID] {
			summary.Retrying++
			continue
		}
		summary.Due++

		if err := pace.Wait(ctx); err != nil {
			return summary
		}

		if s.runner.Run(ctx, cfg).OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	if summary.Due > 0 || summary.Skipped > 0 || summary.Retrying > 0 {
		s.logger.Info().
			Int("checked", summary.Checked).
			Int("due", summary.Due).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Int("skipped", summary.Skipped).
			Int("retrying", summary.Retrying).
			Msg("Scheduler tick completed")
	}
	return summary
}

// pendingRetries returns the tenants with an open failure record. A store
// error yields an empty set so the tick still runs.
func (s *Scheduler) pendingRetries(ctx context.Context) map[string]bool {
	if s.retries == nil {
		return nil
	}
	pending, err := s.retries.PendingTenants(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load failure records; pending retries not excluded from tick")
		return nil
	}
	return pending
}

func (s *Scheduler) processRetries(ctx context.Context) {
	if s.retries == nil {
		return
	}
	summary := s.retries.ProcessRetries(ctx, time.Now())
	if summary.Attempted > 0 || summary.Exhausted > 0 {
		s.logger.Info().
			Int("attempted", summary.Attempted).
			Int("recovered", summary.Recovered).
			Int("failed", summary.Failed).
			Int("exhausted", summary.Exhausted).
			Msg("Retry pass completed")
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if s.cleaner == nil {
		return
	}
	if _, err := s.cleaner.SweepRecords(ctx, time.Now()); err != nil {
		s.logger.Warn().Err(err).Msg("Record sweep failed")
	}
}
