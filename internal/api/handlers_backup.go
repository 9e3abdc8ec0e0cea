// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/snapvault/internal/logging"
)

// defaultListLimit applies when ?limit is absent.
const defaultListLimit = 100

// HandleForceBackup runs one backup for a tenant immediately, bypassing the
// due check. A run that executed but failed returns the Result as error
// details with a status derived from its error kind.
func (h *Handler) HandleForceBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := ForceBackupRequest{TenantID: chi.URLParam(r, "tenantID")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("tenant_id", sanitizeLogValue(req.TenantID)).
		Msg("Forced backup requested")

	result, err := h.backups.ForceBackup(r.Context(), req.TenantID)
	if err != nil {
		respondServiceError(w, err, "run backup")
		return
	}

	if !result.OK() {
		status, _ := statusForKind(result.ErrorKind)
		respondErrorDetails(w, status, "BACKUP_FAILED", result.Message, map[string]interface{}{
			"tenant_id":  result.TenantID,
			"error_kind": result.ErrorKind,
			"attempt":    result.Attempt,
		}, nil)
		return
	}

	respondSuccess(w, http.StatusOK, result, start)
}

// HandleStorageStats returns per-tenant snapshot counts and sizes.
func (h *Handler) HandleStorageStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.backups.GetStorageStats(r.Context())
	if err != nil {
		respondServiceError(w, err, "get storage stats")
		return
	}
	respondSuccess(w, http.StatusOK, stats, start)
}

// HandleFailureStats returns the open failure records.
func (h *Handler) HandleFailureStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.backups.GetFailureStats(r.Context())
	if err != nil {
		respondServiceError(w, err, "get failure stats")
		return
	}
	respondSuccess(w, http.StatusOK, stats, start)
}

// HandleRecentLogs returns the most recent log entries, newest first.
func (h *Handler) HandleRecentLogs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := ListRequest{Limit: getIntParam(r, "limit", defaultListLimit)}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	entries, err := h.backups.GetRecentLogs(r.Context(), req.Limit)
	if err != nil {
		respondServiceError(w, err, "read logs")
		return
	}
	respondSuccess(w, http.StatusOK, entries, start)
}

// HandleLogStats returns level/action counts over the recent window.
func (h *Handler) HandleLogStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.backups.GetLogStats(r.Context())
	if err != nil {
		respondServiceError(w, err, "get log stats")
		return
	}
	respondSuccess(w, http.StatusOK, stats, start)
}

// HandleValidations returns the validation history, newest first.
func (h *Handler) HandleValidations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := ListRequest{Limit: getIntParam(r, "limit", defaultListLimit)}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	records, err := h.backups.ListValidations(r.Context(), req.Limit)
	if err != nil {
		respondServiceError(w, err, "list validations")
		return
	}
	respondSuccess(w, http.StatusOK, records, start)
}
