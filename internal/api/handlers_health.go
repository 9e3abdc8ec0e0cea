// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tomtom215/snapvault/internal/models"
)

// readinessTimeout bounds the database ping of the readiness probe.
const readinessTimeout = 2 * time.Second

var errDatabaseNotConfigured = errors.New("database not configured")

// Health returns the detailed health status. It always answers 200; Status
// is "degraded" when the database is unreachable or a configured scheduler
// is not running.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	dbConnected := h.pingDatabase(r.Context()) == nil
	schedulerRunning := h.scheduler != nil && h.scheduler.Running()
	notificationsReady := false
	if h.notifications != nil {
		st := h.notifications.Status()
		notificationsReady = st.Enabled && st.ProbeError == ""
	}

	status := "healthy"
	if !dbConnected || (h.scheduler != nil && !schedulerRunning) {
		status = "degraded"
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:             status,
		Version:            Version,
		DatabaseConnected:  dbConnected,
		SchedulerRunning:   schedulerRunning,
		NotificationsReady: notificationsReady,
		OffsiteEnabled:     h.offsiteEnabled,
		Uptime:             time.Since(h.startTime).Seconds(),
	}, start)
}

// HealthLive is the liveness probe: the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady is the readiness probe: the data source answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDatabase(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Database unavailable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"}, time.Now())
}

func (h *Handler) pingDatabase(ctx context.Context) error {
	if h.db == nil {
		return errDatabaseNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}
