// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered with the default registry through promauto and exposed
at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8090/metrics

# Available Metrics

Backup Metrics:
  - backup_runs_total: Tenant backup runs (counter)
    Labels: status (success, error), trigger (scheduled, retry, manual)
  - backup_duration_seconds: Run duration (histogram)
    Labels: status
  - backup_size_bytes: Snapshot size of successful runs (histogram)
  - backup_records: Record count of successful runs (histogram)
  - backup_last_success_timestamp_seconds: Last success per tenant (gauge)
    Labels: tenant_id
  - backup_validations_total: Snapshot validations (counter)
    Labels: status (valid, warning, invalid)

Retry and Retention Metrics:
  - backup_retry_attempts_total, backup_retry_exhausted_total (counters)
  - backup_retry_pending: Open failure records (gauge)
  - backup_cleanup_files_removed_total, backup_cleanup_bytes_freed_total

Scheduler, Notification and Offsite Metrics:
  - backup_scheduler_ticks_total, backup_scheduler_last_tick_timestamp_seconds
  - backup_notifications_total: Labels: kind, outcome
  - backup_offsite_uploads_total: Labels: outcome

Data Source Metrics:
  - db_query_duration_seconds: Labels: operation, table
  - db_query_errors_total: Labels: operation, table, error_type

HTTP Metrics:
  - api_requests_total: Labels: method, endpoint, status_code
  - api_request_duration_seconds: Labels: method, endpoint
  - api_active_requests (gauge)
  - api_rate_limit_hits_total: Labels: endpoint

Circuit Breaker Metrics:
  - circuit_breaker_state: Labels: name. Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Labels: name, result
  - circuit_breaker_state_transitions_total: Labels: name, from_state, to_state

# Example Queries

Backup failure rate over the last day:

	sum(rate(backup_runs_total{status="error"}[1d])) / sum(rate(backup_runs_total[1d]))

Tenants without a successful backup in 48 hours:

	time() - backup_last_success_timestamp_seconds > 172800

# Thread Safety

All metric operations are thread-safe; the Prometheus client handles
synchronization internally.
*/
package metrics
