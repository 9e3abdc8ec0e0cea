// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package api provides the HTTP management surface of the backup subsystem.

The router is built on go-chi/chi with production middleware from the chi
ecosystem: go-chi/cors for CORS, go-chi/httprate for per-IP rate limiting,
chi's Recoverer and RealIP, plus the request ID and Prometheus middleware
from internal/middleware.

Endpoints (all responses use models.APIResponse):

	GET    /api/v1/health                       detailed health
	GET    /api/v1/health/live                  liveness probe
	GET    /api/v1/health/ready                 readiness probe (database ping)
	POST   /api/v1/backups/tenants/{tenantID}/run  force a backup now
	GET    /api/v1/backups/storage              snapshot storage statistics
	GET    /api/v1/backups/failures             open failure records
	GET    /api/v1/backups/logs?limit=N         most recent log entries
	GET    /api/v1/backups/logs/stats           log statistics
	GET    /api/v1/backups/validations?limit=N  validation history
	GET    /api/v1/notifications/recipients     list recipients
	POST   /api/v1/notifications/recipients     add a recipient
	DELETE /api/v1/notifications/recipients/{id}
	GET    /api/v1/notifications/email          email settings (password redacted)
	PUT    /api/v1/notifications/email          update email settings
	GET    /api/v1/notifications/status         transport and breaker status
	GET    /metrics                             Prometheus exposition

Errors from the backup package are classified with backup.KindOf and mapped
to HTTP status codes in respondServiceError.
*/
package api
