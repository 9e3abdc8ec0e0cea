// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package models

import (
	"time"
)

// NotificationRecipient receives backup outcome emails.
// A nil TenantID scopes the recipient to every tenant.
type NotificationRecipient struct {
	ID              string    `json:"id"`
	Email           string    `json:"email" validate:"required,email"`
	Name            string    `json:"name" validate:"max=200"`
	NotifyOnSuccess bool      `json:"notify_on_success"`
	NotifyOnFailure bool      `json:"notify_on_failure"`
	TenantID        *string   `json:"tenant_id,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// AppliesTo reports whether the recipient is scoped to the given tenant.
func (r *NotificationRecipient) AppliesTo(tenantID string) bool {
	return r.TenantID == nil || *r.TenantID == tenantID
}

// EmailConfig is the SMTP transport configuration.
type EmailConfig struct {
	Enabled   bool   `json:"enabled" koanf:"enabled"`
	Host      string `json:"host" koanf:"host" validate:"required_if=Enabled true,omitempty,hostname|ip"`
	Port      int    `json:"port" koanf:"port" validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
	Secure    bool   `json:"secure" koanf:"secure"`
	User      string `json:"user" koanf:"user"`
	Password  string `json:"password,omitempty" koanf:"password"`
	FromEmail string `json:"from_email" koanf:"from_email" validate:"required_if=Enabled true,omitempty,email"`
	FromName  string `json:"from_name" koanf:"from_name"`
}

// Redacted returns a copy safe to expose through the management surface.
func (c EmailConfig) Redacted() EmailConfig {
	if c.Password != "" {
		c.Password = "********"
	}
	return c
}
