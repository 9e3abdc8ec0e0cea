// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/logging"
)

// PeriodicService runs a task on a fixed interval. Task errors are logged
// and do not stop the service.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   zerolog.Logger
}

// NewPeriodicService creates a periodic task service. A non-positive
// interval defaults to 10 minutes.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) error) *PeriodicService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &PeriodicService{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logging.WithComponent(name),
	}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			if err := p.task(ctx); err != nil {
				p.logger.Warn().Err(err).Msg("Periodic task failed")
				continue
			}
			p.logger.Debug().Dur("duration", time.Since(start)).Msg("Periodic task completed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for suture's event log.
func (p *PeriodicService) String() string {
	return p.name
}
