// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package supervisor provides process supervision for Snapvault using suture v4.

Long-running components are organized into a hierarchical tree so that a
failure in one layer restarts only that layer:

	RootSupervisor ("snapvault")
	├── StorageSupervisor ("storage-layer")
	│   └── PeriodicService "store-gc" (badger value log GC)
	├── BackupSupervisor ("backup-layer")
	│   └── SchedulerService (due checks, retries, retention sweeps)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (management API and /metrics)

Crashed services are restarted with suture's backoff. Canceling the context
passed to Serve stops every service; services that do not return within
ShutdownTimeout are listed by UnstoppedServiceReport.

Supervisor events are logged through sutureslog, bridged to zerolog by
logging.NewSlogLogger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddBackupService(services.NewSchedulerService(manager.Scheduler()))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
