// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package models defines data structures shared across Snapvault.

Model Categories:

1. Backup Models (backup.go):
  - TenantBackupConfig: per-tenant schedule read from configuracion_backup
  - SnapshotDocument / RawSnapshotDocument: encode and decode views of a snapshot file
  - SnapshotFile: a snapshot on disk
  - ValidationRecord: persisted validation outcome
  - FailureRecord: consecutive failure bookkeeping for retries

2. Event Log Models (eventlog.go):
  - LogEntry: one line of the append-only backup event log
  - LogStats: level/action counts over a recent window

3. Notification Models (notification.go):
  - NotificationRecipient: who is emailed about which tenant
  - EmailConfig: SMTP transport settings, redacted before leaving the process

4. API Models (api_responses.go):
  - APIResponse, APIError, Metadata: standard response envelope
  - HealthStatus: body of the detailed health endpoint

JSON tags use snake_case except inside SnapshotDocument, whose camelCase
header fields are part of the snapshot file format.
*/
package models
