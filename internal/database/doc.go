// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

// Package database provides read access to the PostgreSQL business database
// for Snapvault.
//
// # Overview
//
// The business database belongs to the multi-tenant application being
// backed up. Snapvault only reads tenant rows from it and writes a single
// column, configuracion_backup.ultimo_backup, after a committed snapshot.
//
// Postgres implements both contracts the backup package depends on:
//   - backup.DataSource: FetchTable exports the rows of one table scoped
//     to one tenant (empresa)
//   - backup.TenantStore: ListConfigs, GetConfig and UpdateLastBackup over
//     configuracion_backup joined to empresas
//
// # Files
//
//   - postgres.go: pool lifecycle (pgxpool), health check
//   - tables.go: tenant-scoped table export and value normalization
//   - tenants.go: backup configuration queries
//   - migrate.go: embedded goose migrations for configuracion_backup
//
// # Error Handling
//
// A query against a table that does not exist (SQLSTATE 42P01) returns an
// error marked backup.ErrTableNotFound so the executor can export the
// table as empty. Unknown tenants are marked backup.ErrNotFound.
//
// # Thread Safety
//
// Postgres is safe for concurrent use; all access goes through the pool.
package database
