// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

// Package notify sends backup outcome emails to notification recipients.
//
// A Manager renders one fixed template per event kind and delivers it to
// every active recipient whose flags and tenant scope match, in parallel
// and bounded by a send timeout. Delivery failures are logged and counted
// but never returned to the backup run.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/validation"
)

// RecipientSource lists notification recipients.
type RecipientSource interface {
	ListRecipients(ctx context.Context) ([]models.NotificationRecipient, error)
}

// SenderFactory builds a transport for an email configuration.
type SenderFactory func(cfg models.EmailConfig) Sender

// Config holds notification delivery settings.
type Config struct {
	// SendTimeout bounds one notification event, all recipients included,
	// and the connectivity probe.
	SendTimeout time.Duration

	// Concurrency limits parallel sends per event.
	Concurrency int
}

// DefaultConfig returns the default notification settings.
func DefaultConfig() Config {
	return Config{
		SendTimeout: 30 * time.Second,
		Concurrency: 4,
	}
}

// Status describes the current transport state.
type Status struct {
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host,omitempty"`
	Breaker    string `json:"breaker,omitempty"`
	ProbeError string `json:"probe_error,omitempty"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithSenderFactory replaces the SMTP transport.
func WithSenderFactory(f SenderFactory) Option {
	return func(m *Manager) { m.factory = f }
}

// WithEventLog records delivery failures in the backup event log.
func WithEventLog(events *eventlog.Logger) Option {
	return func(m *Manager) { m.events = events }
}

// Manager delivers notifications. It implements backup.Notifier and
// backup.EmailConfigurer.
type Manager struct {
	cfg        Config
	recipients RecipientSource
	factory    SenderFactory
	templates  *templateSet
	events     *eventlog.Logger
	logger     zerolog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	email    models.EmailConfig
	sender   Sender
	probeErr error
}

// NewManager creates a Manager with sending disabled until Configure is
// called with an enabled configuration.
func NewManager(cfg Config, recipients RecipientSource, opts ...Option) *Manager {
	defaults := DefaultConfig()
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaults.SendTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}

	m := &Manager{
		cfg:        cfg,
		recipients: recipients,
		factory: func(ec models.EmailConfig) Sender {
			return newBreakerSender("smtp", NewSMTPSender(ec))
		},
		templates: mustParseTemplates(),
		logger:    logging.WithComponent("notify"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configure validates the transport settings and probes connectivity.
// A disabled, invalid or unreachable configuration turns sending off; the
// last two are returned as errors.
func (m *Manager) Configure(ctx context.Context, cfg models.EmailConfig) error {
	if !cfg.Enabled {
		m.setSender(cfg, nil, nil)
		m.logger.Info().Msg("Email notifications disabled")
		return nil
	}

	if verr := validation.ValidateStruct(&cfg); verr != nil {
		err := fmt.Errorf("invalid email config: %w", verr)
		m.setSender(cfg, nil, err)
		m.logger.Warn().Err(err).Msg("Email notifications disabled")
		return err
	}

	sender := m.factory(cfg)
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.SendTimeout)
	defer cancel()

	if err := sender.Verify(probeCtx); err != nil {
		err = fmt.Errorf("SMTP probe %s:%d: %w", cfg.Host, cfg.Port, err)
		m.setSender(cfg, nil, err)
		m.logger.Warn().Err(err).Str("error_code", classifyError(err)).Msg("SMTP probe failed, email notifications disabled")
		m.events.Log(models.LogWarn, models.ActionNotification, "SMTP probe failed, email notifications disabled",
			eventlog.WithError(err))
		return err
	}

	m.setSender(cfg, sender, nil)
	m.logger.Info().Str("host", cfg.Host).Int("port", cfg.Port).Bool("secure", cfg.Secure).Msg("Email notifications enabled")
	return nil
}

func (m *Manager) setSender(cfg models.EmailConfig, sender Sender, probeErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = cfg
	m.sender = sender
	m.probeErr = probeErr
}

// Enabled reports whether notifications are currently sent.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sender != nil
}

// Status returns the transport state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{Enabled: m.sender != nil, Host: m.email.Host}
	if b, ok := m.sender.(*breakerSender); ok {
		st.Breaker = b.State()
	}
	if m.probeErr != nil {
		st.ProbeError = m.probeErr.Error()
	}
	return st
}

// NotifySuccess notifies recipients with NotifyOnSuccess set.
func (m *Manager) NotifySuccess(ctx context.Context, tenantID, tenantName string, recordCount int, size int64, duration time.Duration) {
	m.notify(ctx, KindSuccess, &templateData{
		TenantID:    tenantID,
		TenantName:  tenantName,
		RecordCount: recordCount,
		Size:        size,
		Duration:    duration,
	})
}

// NotifyFailure notifies recipients with NotifyOnFailure set.
func (m *Manager) NotifyFailure(ctx context.Context, tenantID, tenantName, errorMessage string, attempt int) {
	m.notify(ctx, KindFailure, &templateData{
		TenantID:   tenantID,
		TenantName: tenantName,
		Error:      errorMessage,
		Attempt:    attempt,
	})
}

// NotifyRetrySuccess notifies recipients with NotifyOnSuccess set that a
// previously failing tenant recovered.
func (m *Manager) NotifyRetrySuccess(ctx context.Context, tenantID, tenantName string, attempt int) {
	m.notify(ctx, KindRecovered, &templateData{
		TenantID:   tenantID,
		TenantName: tenantName,
		Attempt:    attempt,
	})
}

// wants reports whether a recipient subscribes to the event.
func wants(r *models.NotificationRecipient, kind Kind, tenantID string) bool {
	if !r.Active || !r.AppliesTo(tenantID) {
		return false
	}
	if kind == KindFailure {
		return r.NotifyOnFailure
	}
	return r.NotifyOnSuccess
}

func (m *Manager) notify(ctx context.Context, kind Kind, data *templateData) {
	m.mu.RLock()
	sender, email := m.sender, m.email
	m.mu.RUnlock()

	if sender == nil {
		return
	}

	// Delivery outlives a cancelled run but is bounded on its own.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.SendTimeout)
	defer cancel()

	logger := m.logger.With().Str("kind", string(kind)).Str("tenant_id", data.TenantID).Logger()

	all, err := m.recipients.ListRecipients(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list notification recipients")
		return
	}

	targets := make([]models.NotificationRecipient, 0, len(all))
	for i := range all {
		if wants(&all[i], kind, data.TenantID) {
			targets = append(targets, all[i])
		}
	}
	if len(targets) == 0 {
		logger.Debug().Msg("No recipients for notification")
		return
	}

	data.Timestamp = m.now()
	subject, html, text, err := m.templates.render(kind, data)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render notification")
		return
	}

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for _, r := range targets {
		g.Go(func() error {
			msg := &Message{
				From:     email.FromEmail,
				FromName: email.FromName,
				To:       r.Email,
				Subject:  subject,
				HTML:     html,
				Text:     text,
			}
			sendErr := sender.Send(ctx, msg)
			metrics.RecordNotification(string(kind), sendErr)
			if sendErr != nil {
				logger.Warn().Err(sendErr).Str("recipient", r.Email).Str("error_code", classifyError(sendErr)).Msg("Failed to send notification")
				m.events.Log(models.LogWarn, models.ActionNotification, "Failed to send "+string(kind)+" notification to "+r.Email,
					eventlog.WithTenant(data.TenantID, data.TenantName), eventlog.WithError(sendErr))
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Goroutines never return errors

	logger.Debug().Int("recipients", len(targets)).Msg("Notification dispatched")
}
