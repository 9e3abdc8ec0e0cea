// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/notify"
)

// HandleListRecipients returns every notification recipient.
func (h *Handler) HandleListRecipients(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recipients, err := h.backups.ListRecipients(r.Context())
	if err != nil {
		respondServiceError(w, err, "list recipients")
		return
	}
	respondSuccess(w, http.StatusOK, recipients, start)
}

// HandleAddRecipient stores a new recipient.
func (h *Handler) HandleAddRecipient(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecipientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	added, err := h.backups.AddRecipient(r.Context(), models.NotificationRecipient{
		Email:           req.Email,
		Name:            req.Name,
		NotifyOnSuccess: req.NotifyOnSuccess,
		NotifyOnFailure: req.NotifyOnFailure,
		TenantID:        req.TenantID,
		Active:          active,
	})
	if err != nil {
		respondServiceError(w, err, "add recipient")
		return
	}
	respondSuccess(w, http.StatusCreated, added, start)
}

// HandleRemoveRecipient deletes a recipient by id.
func (h *Handler) HandleRemoveRecipient(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Recipient id is required", nil)
		return
	}

	if err := h.backups.RemoveRecipient(r.Context(), id); err != nil {
		respondServiceError(w, err, "remove recipient")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"id": id}, start)
}

// HandleGetEmailConfig returns the active email settings, password redacted.
func (h *Handler) HandleGetEmailConfig(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg, err := h.backups.GetEmailConfig(r.Context())
	if err != nil {
		respondServiceError(w, err, "get email settings")
		return
	}
	respondSuccess(w, http.StatusOK, EmailConfigResponse{Config: cfg}, start)
}

// HandleUpdateEmailConfig stores and applies new email settings. When the
// connectivity probe fails the settings are still stored; the response is
// 200 with ProbeError set.
func (h *Handler) HandleUpdateEmailConfig(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EmailConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	cfg, err := h.backups.UpdateEmailConfig(r.Context(), models.EmailConfig(req))
	switch {
	case err == nil:
		respondSuccess(w, http.StatusOK, EmailConfigResponse{Config: cfg}, start)
	case errors.Is(err, backup.ErrTransport):
		respondSuccess(w, http.StatusOK, EmailConfigResponse{Config: cfg, ProbeError: err.Error()}, start)
	default:
		respondServiceError(w, err, "update email settings")
	}
}

// HandleNotificationStatus reports transport and circuit breaker state.
func (h *Handler) HandleNotificationStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := notify.Status{}
	if h.notifications != nil {
		status = h.notifications.Status()
	}
	respondSuccess(w, http.StatusOK, status, start)
}
