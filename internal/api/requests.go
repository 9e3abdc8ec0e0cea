// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import "github.com/tomtom215/snapvault/internal/models"

// ForceBackupRequest identifies the tenant of a forced run.
type ForceBackupRequest struct {
	TenantID string `validate:"required,max=64,printascii"`
}

// ListRequest bounds list endpoints.
type ListRequest struct {
	Limit int `validate:"min=1,max=1000"`
}

// RecipientRequest is the body of POST /notifications/recipients.
// Active defaults to true when omitted.
type RecipientRequest struct {
	Email           string  `json:"email" validate:"required,email,max=254"`
	Name            string  `json:"name" validate:"max=200"`
	NotifyOnSuccess bool    `json:"notify_on_success"`
	NotifyOnFailure bool    `json:"notify_on_failure"`
	TenantID        *string `json:"tenant_id,omitempty" validate:"omitempty,max=64"`
	Active          *bool   `json:"active,omitempty"`
}

// EmailConfigRequest is the body of PUT /notifications/email. An empty or
// redacted password keeps the stored one.
type EmailConfigRequest struct {
	Enabled   bool   `json:"enabled"`
	Host      string `json:"host" validate:"max=253"`
	Port      int    `json:"port" validate:"min=0,max=65535"`
	Secure    bool   `json:"secure"`
	User      string `json:"user" validate:"max=254"`
	Password  string `json:"password" validate:"max=512"`
	FromEmail string `json:"from_email" validate:"max=254"`
	FromName  string `json:"from_name" validate:"max=200"`
}

// EmailConfigResponse is returned by the email settings endpoints.
// ProbeError is set when the settings were stored but the SMTP server
// could not be reached.
type EmailConfigResponse struct {
	Config     models.EmailConfig `json:"config"`
	ProbeError string             `json:"probe_error,omitempty"`
}
