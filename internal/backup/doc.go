// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

// Package backup orchestrates periodic full JSON snapshots of every tenant's
// business data.
//
// # Overview
//
// The package is made of small components wired together by Manager:
//
//	Scheduler    - per-minute tick; runs due tenants sequentially
//	Executor     - exports the tenant tables, writes and validates a snapshot
//	Validator    - structural and integrity checks, persists a ValidationRecord
//	RetryManager - failure bookkeeping with exponential backoff
//	Cleaner      - per-tenant retention and the periodic record sweep
//	Manager      - management surface used by the HTTP API
//
// Control flow of one scheduled run:
//
//	Scheduler.Tick -> IsDue -> Executor.Run -> Validator.Validate
//	  success: TenantStore.UpdateLastBackup, RetryManager.ClearFailure,
//	           Cleaner.Cleanup, Notifier.NotifySuccess, event log "success"
//	  failure: event log "error", RetryManager.RecordFailure,
//	           Notifier.NotifyFailure
//
// RetryManager.ProcessRetries runs on the same loop as the tick, so a retry
// never overlaps a scheduled run for the same tenant. A successful retry
// sends the "recovered" notification instead of the regular success one.
//
// # Filesystem Layout
//
//	<root>/<sanitized-tenant-name>/backup_<sanitized-tenant-name>_<2026-10-17T02-00-00-000Z>.json
//
// The Cleaner recovers a snapshot's creation time from the embedded
// timestamp and falls back to the file's modification time when the name
// does not carry one.
//
// # Errors
//
// Failures are classified with the marks in errors.go (ErrValidation, ErrIO,
// ErrTimeout, ...). The kind is stored on the FailureRecord and exposed in
// metrics labels.
//
// # Known Limitation
//
// A tenant is due only when a tick lands within one minute of its backup
// time. A tick missed because the process was down is not caught up; the
// tenant runs at the next matching window.
package backup
