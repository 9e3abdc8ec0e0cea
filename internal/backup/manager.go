// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
manager.go - Backup Manager

Manager wires the validator, retry manager, cleaner, executor and scheduler
together and is the management surface used by the HTTP API:

  - ForceBackup runs one tenant immediately, bypassing the due check
  - storage, failure, log and validation statistics
  - notification recipients and email settings

Email settings are persisted in the store so changes survive a restart.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/store"
	"github.com/tomtom215/snapvault/internal/validation"
)

// redactedPassword is the placeholder returned for a stored password.
const redactedPassword = "********"

// EmailConfigurer applies email settings to a notifier.
type EmailConfigurer interface {
	Configure(ctx context.Context, cfg models.EmailConfig) error
}

// Deps are the collaborators of a Manager. Mirror is optional; Notifier may
// also implement EmailConfigurer.
type Deps struct {
	Source   DataSource
	Tenants  TenantStore
	Store    *store.Store
	Events   *eventlog.Logger
	Notifier Notifier
	Mirror   Mirror
}

// Manager is the entry point of the backup subsystem.
type Manager struct {
	cfg       Config
	tenants   TenantStore
	store     *store.Store
	events    *eventlog.Logger
	notifier  Notifier
	validator *Validator
	retries   *RetryManager
	cleaner   *Cleaner
	executor  *Executor
	scheduler *Scheduler
	logger    zerolog.Logger

	// emailDefaults applies until settings are first stored.
	emailDefaults models.EmailConfig
}

// NewManager builds the backup subsystem.
func NewManager(cfg Config, deps Deps) *Manager {
	validator := NewValidator(deps.Store, deps.Events)
	retries := NewRetryManager(cfg.Retry, deps.Store, deps.Tenants, deps.Events)
	cleaner := NewCleaner(cfg, deps.Store, deps.Events)
	executor := NewExecutor(cfg, ExecutorDeps{
		Source:    deps.Source,
		Tenants:   deps.Tenants,
		Validator: validator,
		Retries:   retries,
		Cleaner:   cleaner,
		Notifier:  deps.Notifier,
		Mirror:    deps.Mirror,
		Events:    deps.Events,
	})
	retries.runner = executor

	return &Manager{
		cfg:       cfg,
		tenants:   deps.Tenants,
		store:     deps.Store,
		events:    deps.Events,
		notifier:  deps.Notifier,
		validator: validator,
		retries:   retries,
		cleaner:   cleaner,
		executor:  executor,
		scheduler: NewScheduler(cfg, deps.Tenants, executor, retries, cleaner, deps.Events),
		logger:    logging.WithComponent("backup-manager"),
	}
}

// Scheduler returns the scheduler service.
func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}

// Executor returns the executor.
func (m *Manager) Executor() *Executor {
	return m.executor
}

// Retries returns the retry manager.
func (m *Manager) Retries() *RetryManager {
	return m.retries
}

// Cleaner returns the cleaner.
func (m *Manager) Cleaner() *Cleaner {
	return m.cleaner
}

// ForceBackup runs a backup of tenantID now. Unknown tenants return an error
// marked ErrNotFound. A failed run goes through normal failure bookkeeping.
func (m *Manager) ForceBackup(ctx context.Context, tenantID string) (*Result, error) {
	cfg, err := m.tenants.GetConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrapf(err, "load backup configuration of tenant %s", tenantID), ErrIO)
	}

	attempt := 1
	if rec, err := m.store.GetFailure(ctx, tenantID); err == nil {
		attempt = rec.FailureCount + 1
	}

	logging.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Int("attempt", attempt).
		Msg("Manual backup requested")
	return m.executor.RunAttempt(ctx, *cfg, TriggerManual, attempt), nil
}

// GetStorageStats summarizes the backup tree.
func (m *Manager) GetStorageStats(_ context.Context) (*StorageStats, error) {
	return m.cleaner.StorageStats()
}

// GetFailureStats summarizes the failure records.
func (m *Manager) GetFailureStats(ctx context.Context) (*FailureStats, error) {
	return m.retries.Stats(ctx)
}

// GetRecentLogs returns the newest limit event log entries.
func (m *Manager) GetRecentLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	entries, err := m.events.Recent(ctx, limit)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read event log"), ErrIO)
	}
	return entries, nil
}

// GetLogStats aggregates recent event log entries.
func (m *Manager) GetLogStats(ctx context.Context) (*models.LogStats, error) {
	stats, err := m.events.Stats(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "aggregate event log"), ErrIO)
	}
	return stats, nil
}

// ListValidations returns the newest limit validation records.
func (m *Manager) ListValidations(ctx context.Context, limit int) ([]models.ValidationRecord, error) {
	records, err := m.store.ListValidations(ctx, limit)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list validation records"), ErrIO)
	}
	if records == nil {
		records = []models.ValidationRecord{}
	}
	return records, nil
}

// AddRecipient validates and stores a new notification recipient.
func (m *Manager) AddRecipient(ctx context.Context, r models.NotificationRecipient) (*models.NotificationRecipient, error) {
	r.ID = ""
	if verr := validation.ValidateStruct(&r); verr != nil {
		return nil, errors.Mark(verr, ErrConfig)
	}
	if err := m.store.PutRecipient(ctx, &r); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "store recipient"), ErrIO)
	}
	return &r, nil
}

// RemoveRecipient deletes a recipient by id.
func (m *Manager) RemoveRecipient(ctx context.Context, id string) error {
	err := m.store.DeleteRecipient(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errors.Mark(errors.Newf("recipient %s not found", id), ErrNotFound)
	case err != nil:
		return errors.Mark(errors.Wrap(err, "delete recipient"), ErrIO)
	}
	return nil
}

// ListRecipients returns every notification recipient.
func (m *Manager) ListRecipients(ctx context.Context) ([]models.NotificationRecipient, error) {
	recipients, err := m.store.ListRecipients(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list recipients"), ErrIO)
	}
	if recipients == nil {
		recipients = []models.NotificationRecipient{}
	}
	return recipients, nil
}

// GetEmailConfig returns the active email settings with the password
// redacted.
func (m *Manager) GetEmailConfig(ctx context.Context) (models.EmailConfig, error) {
	cfg, found, err := m.store.GetEmailConfig(ctx)
	if err != nil {
		return models.EmailConfig{}, errors.Mark(errors.Wrap(err, "load email settings"), ErrIO)
	}
	if !found {
		cfg = m.emailDefaults
	}
	return cfg.Redacted(), nil
}

// UpdateEmailConfig validates, persists and applies new email settings. An
// empty or redacted password keeps the stored one. The settings are saved
// even when the connectivity probe fails; that failure is returned marked
// ErrTransport.
func (m *Manager) UpdateEmailConfig(ctx context.Context, cfg models.EmailConfig) (models.EmailConfig, error) {
	current, found, err := m.store.GetEmailConfig(ctx)
	if err != nil {
		return models.EmailConfig{}, errors.Mark(errors.Wrap(err, "load email settings"), ErrIO)
	}
	if !found {
		current = m.emailDefaults
	}
	if cfg.Password == "" || cfg.Password == redactedPassword {
		cfg.Password = current.Password
	}

	if verr := validation.ValidateStruct(&cfg); verr != nil {
		return models.EmailConfig{}, errors.Mark(verr, ErrConfig)
	}
	if err := m.store.PutEmailConfig(ctx, cfg); err != nil {
		return models.EmailConfig{}, errors.Mark(errors.Wrap(err, "store email settings"), ErrIO)
	}

	if err := m.applyEmailConfig(ctx, cfg); err != nil {
		return cfg.Redacted(), err
	}
	return cfg.Redacted(), nil
}

// ConfigureNotifications applies the persisted email settings, or fallback
// when none are stored yet. Called once at startup.
func (m *Manager) ConfigureNotifications(ctx context.Context, fallback models.EmailConfig) error {
	cfg, found, err := m.store.GetEmailConfig(ctx)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "load email settings"), ErrIO)
	}
	m.emailDefaults = fallback
	if !found {
		cfg = fallback
	}
	return m.applyEmailConfig(ctx, cfg)
}

func (m *Manager) applyEmailConfig(ctx context.Context, cfg models.EmailConfig) error {
	configurer, ok := m.notifier.(EmailConfigurer)
	if !ok {
		return nil
	}
	if err := configurer.Configure(ctx, cfg); err != nil {
		m.logger.Warn().Err(err).Str("host", cfg.Host).Msg("Email transport unavailable; notifications disabled")
		return errors.Mark(err, ErrTransport)
	}
	return nil
}
