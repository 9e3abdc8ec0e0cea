// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNotificationRecipient_AppliesTo(t *testing.T) {
	scoped := "7"
	tests := []struct {
		name     string
		tenantID *string
		query    string
		want     bool
	}{
		{"global recipient", nil, "7", true},
		{"global recipient other tenant", nil, "8", true},
		{"scoped recipient same tenant", &scoped, "7", true},
		{"scoped recipient other tenant", &scoped, "8", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &NotificationRecipient{Email: "ops@example.com", TenantID: tt.tenantID}
			if got := r.AppliesTo(tt.query); got != tt.want {
				t.Errorf("AppliesTo(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestEmailConfig_Redacted(t *testing.T) {
	cfg := EmailConfig{Host: "smtp.example.com", Password: "s3cret"}

	redacted := cfg.Redacted()
	if redacted.Password != "********" {
		t.Errorf("Password = %q, want redacted", redacted.Password)
	}
	if cfg.Password != "s3cret" {
		t.Error("Redacted modified the receiver")
	}
	if empty := (EmailConfig{}).Redacted(); empty.Password != "" {
		t.Errorf("empty password redacted to %q", empty.Password)
	}
}

func TestSnapshotDocument_HeaderFieldNames(t *testing.T) {
	doc := SnapshotDocument{
		Timestamp:  time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC),
		Version:    "2.1",
		TenantID:   "7",
		TenantName: "Acme",
		Data:       map[string][]map[string]interface{}{"empresas": {{"id": 7}}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"timestamp"`, `"version"`, `"tenantId"`, `"tenantName"`, `"data"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("encoded snapshot missing %s: %s", field, data)
		}
	}

	var raw RawSnapshotDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw.TenantID) != `"7"` || len(raw.Data) != 1 {
		t.Errorf("raw decode = %s / %d tables", raw.TenantID, len(raw.Data))
	}
}

func TestAPIResponse_OmitsNilError(t *testing.T) {
	data, err := json.Marshal(APIResponse{Status: "success", Data: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("success response carries error field: %s", data)
	}
}
