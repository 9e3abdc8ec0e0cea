// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package services

import (
	"context"
	"fmt"
)

// StartStopper matches the backup scheduler lifecycle.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService wraps the backup scheduler as a supervised service.
//
// Stop waits for the in-flight pass to finish its bookkeeping, so the
// supervisor's shutdown timeout should exceed the backup run timeout.
type SchedulerService struct {
	scheduler StartStopper
	name      string
}

// NewSchedulerService creates a new scheduler service wrapper.
func NewSchedulerService(scheduler StartStopper) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      "backup-scheduler",
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("backup scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's event log.
func (s *SchedulerService) String() string {
	return s.name
}
