// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backup Run Metrics
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of tenant backup runs",
		},
		[]string{"status", "trigger"}, // status: success, error; trigger: scheduled, retry, manual
	)

	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of tenant backup runs in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600}, // Runs are bounded by the run timeout
		},
		[]string{"status"},
	)

	BackupSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_size_bytes",
			Help:    "Size of successful snapshot files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB .. 256MB
		},
	)

	BackupRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_records",
			Help:    "Number of records in successful snapshots",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
	)

	LastSuccessTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backup_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful backup per tenant",
		},
		[]string{"tenant_id"},
	)

	// Validation Metrics
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_validations_total",
			Help: "Total number of snapshot validations",
		},
		[]string{"status"}, // valid, warning, invalid
	)

	// Retry Metrics
	RetryAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_retry_attempts_total",
			Help: "Total number of automatic retry attempts",
		},
	)

	RetryExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_retry_exhausted_total",
			Help: "Total number of tenants given up on after max retries",
		},
	)

	RetryPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_retry_pending",
			Help: "Current number of tenants with an open failure record",
		},
	)

	// Cleanup Metrics
	CleanupFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_cleanup_files_removed_total",
			Help: "Total number of snapshot files removed by retention",
		},
	)

	CleanupBytesFreed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_cleanup_bytes_freed_total",
			Help: "Total bytes freed by retention",
		},
	)

	// Scheduler Metrics
	SchedulerTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_scheduler_ticks_total",
			Help: "Total number of scheduler ticks",
		},
	)

	SchedulerLastTick = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_scheduler_last_tick_timestamp_seconds",
			Help: "Unix timestamp of the last scheduler tick",
		},
	)

	// Notification Metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_notifications_total",
			Help: "Total number of notification emails",
		},
		[]string{"kind", "outcome"}, // kind: success, failure, recovered; outcome: sent, failed, skipped
	)

	// Offsite Mirror Metrics
	OffsiteUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_offsite_uploads_total",
			Help: "Total number of offsite snapshot uploads",
		},
		[]string{"outcome"}, // success, error
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of data source queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of data source query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a data source query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNotification records the outcome of one notification email.
func RecordNotification(kind string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	NotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change. States
// are encoded 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
}
