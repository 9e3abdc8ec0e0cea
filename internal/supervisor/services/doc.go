// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package services adapts Snapvault components to suture.Service.

  - HTTPServerService: http.Server ListenAndServe/Shutdown
  - SchedulerService: the backup scheduler's Start/Stop lifecycle
  - PeriodicService: a task run on a fixed interval (badger value log GC)

Each wrapper blocks in Serve until its context is canceled, then stops the
wrapped component and returns ctx.Err(). A startup error is returned
immediately so suture restarts the service with backoff.
*/
package services
