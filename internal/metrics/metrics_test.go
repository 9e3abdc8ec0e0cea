// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDBQuery tests data source query metric recording
func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
		wantErr   bool
	}{
		{name: "successful fetch", operation: "fetch", table: "ventas_ok"},
		{name: "failed fetch", operation: "fetch", table: "ventas_err", err: errors.New("connection refused"), wantErr: true},
		{
			name:      "long error is truncated",
			operation: "fetch",
			table:     "clientes_long",
			err:       errors.New("this is a very long error message that exceeds fifty characters and should be truncated"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, tt.table, 10*time.Millisecond, tt.err)

			if !tt.wantErr {
				return
			}
			errorType := tt.err.Error()
			if len(errorType) > 50 {
				errorType = errorType[:50]
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, errorType))
			if got != 1 {
				t.Errorf("DBQueryErrors = %v, want 1", got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/backup/stats", "200"))
	RecordAPIRequest("GET", "/api/v1/backup/stats", 200, 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/backup/stats", "200"))
	if after-before != 1 {
		t.Errorf("APIRequestsTotal delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("APIActiveRequests = %v, want %v", got, base)
	}
}

func TestRecordNotification(t *testing.T) {
	sent := testutil.ToFloat64(NotificationsTotal.WithLabelValues("failure", "sent"))
	failed := testutil.ToFloat64(NotificationsTotal.WithLabelValues("failure", "failed"))

	RecordNotification("failure", nil)
	RecordNotification("failure", errors.New("smtp: 451"))
	RecordNotification("failure", errors.New("smtp: 451"))

	if got := testutil.ToFloat64(NotificationsTotal.WithLabelValues("failure", "sent")) - sent; got != 1 {
		t.Errorf("sent delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(NotificationsTotal.WithLabelValues("failure", "failed")) - failed; got != 2 {
		t.Errorf("failed delta = %v, want 2", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("smtp-test", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("smtp-test")); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("smtp-test", "closed", "open")); got != 1 {
		t.Errorf("CircuitBreakerTransitions = %v, want 1", got)
	}

	RecordCircuitBreakerTransition("smtp-test", "open", "half-open", 1)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("smtp-test")); got != 1 {
		t.Errorf("CircuitBreakerState = %v, want 1", got)
	}
}

func TestBackupMetricsRegistered(t *testing.T) {
	// Touch every vector once so the collectors export series.
	BackupRunsTotal.WithLabelValues("success", "scheduled").Inc()
	BackupDuration.WithLabelValues("success").Observe(1.5)
	ValidationsTotal.WithLabelValues("valid").Inc()
	OffsiteUploadsTotal.WithLabelValues("success").Inc()
	LastSuccessTimestamp.WithLabelValues("t-registered").Set(1)

	tests := []struct {
		name string
		got  int
	}{
		{"backup_runs_total", testutil.CollectAndCount(BackupRunsTotal)},
		{"backup_duration_seconds", testutil.CollectAndCount(BackupDuration)},
		{"backup_validations_total", testutil.CollectAndCount(ValidationsTotal)},
		{"backup_offsite_uploads_total", testutil.CollectAndCount(OffsiteUploadsTotal)},
		{"backup_last_success_timestamp_seconds", testutil.CollectAndCount(LastSuccessTimestamp)},
		{"backup_retry_pending", testutil.CollectAndCount(RetryPending)},
		{"backup_scheduler_ticks_total", testutil.CollectAndCount(SchedulerTicks)},
	}
	for _, tt := range tests {
		if tt.got < 1 {
			t.Errorf("%s exported %d series, want at least 1", tt.name, tt.got)
		}
	}
}
