// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/snapvault/internal/api"
	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/config"
	"github.com/tomtom215/snapvault/internal/database"
	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/notify"
	"github.com/tomtom215/snapvault/internal/store"
	"github.com/tomtom215/snapvault/internal/supervisor"
	"github.com/tomtom215/snapvault/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Default logger; config not yet available
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("root_dir", cfg.Backup.RootDir).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("email_enabled", cfg.Email.Enabled).
		Bool("offsite_enabled", cfg.Offsite.Enabled).
		Msg("Starting Snapvault")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local state
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	events, err := eventlog.New(eventlog.Config{
		Dir:             cfg.EventLog.Dir,
		MaxFileSize:     cfg.EventLog.MaxFileSize,
		MaxRotatedFiles: cfg.EventLog.MaxRotatedFiles,
		QueueSize:       cfg.EventLog.QueueSize,
		StatsWindow:     cfg.EventLog.StatsWindow,
	})
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.EventLog.Dir).Msg("Failed to open event log")
	}
	defer func() {
		if err := events.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event log")
		}
	}()

	// Business database
	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logging.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}
	metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, db.Pool())

	// Notifications and offsite mirror
	notifier := notify.NewManager(notify.Config{
		SendTimeout: cfg.Email.SendTimeout,
		Concurrency: cfg.Email.Concurrency,
	}, st, notify.WithEventLog(events))

	mirror, err := initOffsite(ctx, &cfg.Offsite)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize offsite mirror")
	}

	deps := backup.Deps{
		Source:   db,
		Tenants:  db,
		Store:    st,
		Events:   events,
		Notifier: notifier,
	}
	if mirror != nil {
		deps.Mirror = mirror
	}
	manager := backup.NewManager(backupConfig(cfg), deps)

	if err := manager.ConfigureNotifications(ctx, cfg.Email.Transport()); err != nil {
		// Settings stay applied; the probe is retried on the next update
		logging.Warn().Err(err).Msg("Email transport not ready")
	}

	// Supervisor tree
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: shutdownTimeout(cfg),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStorageService(services.NewPeriodicService("store-gc", cfg.Store.GCInterval, func(context.Context) error {
		return st.RunGC()
	}))

	handlerDeps := api.HandlerDeps{
		Backups:        manager,
		Notifications:  notifier,
		Database:       db,
		OffsiteEnabled: mirror != nil,
	}
	if cfg.Scheduler.Enabled {
		tree.AddBackupService(services.NewSchedulerService(manager.Scheduler()))
		handlerDeps.Scheduler = manager.Scheduler()
	} else {
		logging.Info().Msg("Backup scheduler disabled (SCHEDULER_ENABLED=false); forced runs only")
	}

	router := api.NewRouter(api.NewHandler(handlerDeps), api.ChiMiddlewareConfigFromServer(&cfg.Server))
	tree.AddAPIService(services.NewHTTPServerService(newHTTPServer(&cfg.Server, router.Setup()), httpShutdownTimeout))

	// Signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Snapvault stopped")
}
