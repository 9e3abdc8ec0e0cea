// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/config"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/offsite"
)

// httpShutdownTimeout bounds draining of in-flight API requests.
const httpShutdownTimeout = 10 * time.Second

// backupConfig maps the loaded configuration onto the backup subsystem.
func backupConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		RootDir:             cfg.Backup.RootDir,
		RunTimeout:          cfg.Backup.RunTimeout,
		TenantPause:         cfg.Backup.TenantPause,
		CheckInterval:       cfg.Scheduler.CheckInterval,
		SweepInterval:       cfg.Scheduler.SweepInterval,
		SweepTimeout:        cfg.Scheduler.SweepTimeout,
		ValidationRetention: cfg.Scheduler.ValidationRetention,
		EventLogRetention:   cfg.Scheduler.EventLogRetention,
		Retry: backup.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			Multiplier: cfg.Retry.Multiplier,
			Interval:   cfg.Retry.Interval,
			Pause:      cfg.Retry.Pause,
		},
	}
}

// shutdownTimeout lets an in-flight run finish its bookkeeping before the
// supervisor gives up on the scheduler.
func shutdownTimeout(cfg *config.Config) time.Duration {
	return cfg.Backup.RunTimeout + 30*time.Second
}

// newHTTPServer builds the management server. WriteTimeout is left unset:
// a forced backup runs synchronously within the request.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Timeout,
		IdleTimeout:       2 * time.Minute,
	}
}

// initOffsite builds the S3 mirror and checks the bucket. Returns nil when
// the mirror is disabled.
func initOffsite(ctx context.Context, cfg *config.OffsiteConfig) (*offsite.S3Mirror, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Offsite mirror disabled (OFFSITE_ENABLED=false)")
		return nil, nil
	}

	mirror := offsite.New(offsite.NewS3Client(cfg), cfg)
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mirror.Check(checkCtx); err != nil {
		return nil, fmt.Errorf("bucket %s: %w", cfg.Bucket, err)
	}

	logging.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Str("prefix", cfg.Prefix).
		Msg("Offsite mirror enabled")
	return mirror, nil
}
