// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/snapvault/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func validTenantConfig() models.TenantBackupConfig {
	return models.TenantBackupConfig{
		TenantID:          "t1",
		TenantName:        "Acme",
		AutoBackupEnabled: true,
		Frequency:         models.FrequencyDaily,
		BackupTime:        "02:00",
		KeepLocalBackup:   true,
		MaxBackups:        7,
		RetentionDays:     30,
	}
}

func TestValidateStruct_TenantConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.TenantBackupConfig)
		wantField string
		wantTag   string
	}{
		{name: "valid", mutate: func(*models.TenantBackupConfig) {}},
		{
			name:      "missing tenant id",
			mutate:    func(c *models.TenantBackupConfig) { c.TenantID = "" },
			wantField: "tenant_id",
			wantTag:   "required",
		},
		{
			name:      "unknown frequency",
			mutate:    func(c *models.TenantBackupConfig) { c.Frequency = "hourly" },
			wantField: "frequency",
			wantTag:   "oneof",
		},
		{
			name:      "hour out of range",
			mutate:    func(c *models.TenantBackupConfig) { c.BackupTime = "24:00" },
			wantField: "backup_time",
			wantTag:   "hhmm",
		},
		{
			name:      "not zero padded",
			mutate:    func(c *models.TenantBackupConfig) { c.BackupTime = "2:00" },
			wantField: "backup_time",
			wantTag:   "hhmm",
		},
		{
			name:      "negative max backups",
			mutate:    func(c *models.TenantBackupConfig) { c.MaxBackups = -1 },
			wantField: "max_backups",
			wantTag:   "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTenantConfig()
			tt.mutate(&cfg)

			err := ValidateStruct(&cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			found := false
			for _, e := range err.Errors() {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, err)
			}
		})
	}
}

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantOK     bool
	}{
		{"00:00", 0, 0, true},
		{"02:00", 2, 0, true},
		{"23:59", 23, 59, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"1:30", 0, 0, false},
		{"", 0, 0, false},
		{"ab:cd", 0, 0, false},
	}

	for _, tt := range tests {
		h, m, ok := ParseHHMM(tt.input)
		if ok != tt.wantOK || h != tt.wantHour || m != tt.wantMinute {
			t.Errorf("ParseHHMM(%q) = %d, %d, %v; want %d, %d, %v",
				tt.input, h, m, ok, tt.wantHour, tt.wantMinute, tt.wantOK)
		}
	}
}

func TestValidateStruct_Recipient(t *testing.T) {
	r := models.NotificationRecipient{Email: "not-an-email"}
	err := ValidateStruct(&r)
	if err == nil {
		t.Fatal("expected validation error for bad email")
	}
	if !strings.Contains(err.Error(), "valid email") {
		t.Errorf("expected email message, got %q", err.Error())
	}
}

func TestValidateStruct_EmailConfig(t *testing.T) {
	disabled := models.EmailConfig{Enabled: false}
	if err := ValidateStruct(&disabled); err != nil {
		t.Errorf("disabled email config should validate, got %v", err)
	}

	enabled := models.EmailConfig{Enabled: true}
	err := ValidateStruct(&enabled)
	if err == nil {
		t.Fatal("enabled email config without host should fail")
	}
	fields := map[string]bool{}
	for _, e := range err.Errors() {
		fields[e.Field()] = true
	}
	for _, f := range []string{"host", "port", "from_email"} {
		if !fields[f] {
			t.Errorf("expected error on %s, got %v", f, err)
		}
	}

	ok := models.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, FromEmail: "backups@example.com"}
	if err := ValidateStruct(&ok); err != nil {
		t.Errorf("complete email config should validate, got %v", err)
	}
}

func TestToAPIError(t *testing.T) {
	cfg := validTenantConfig()
	cfg.TenantName = ""
	err := ValidateStruct(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != ErrorCode {
		t.Errorf("expected code %s, got %s", ErrorCode, apiErr.Code)
	}
	if apiErr.Details["field"] != "tenant_name" {
		t.Errorf("expected field tenant_name in details, got %v", apiErr.Details)
	}

	cfg.BackupTime = "99:99"
	multi := ValidateStruct(&cfg).ToAPIError()
	if _, ok := multi.Details["fields"]; !ok {
		t.Error("expected details to contain 'fields' key for multiple errors")
	}
}

func TestToAPIError_HidesSecretValues(t *testing.T) {
	req := struct {
		Password string `json:"password" validate:"max=3"`
	}{Password: "hunter22"}

	apiErr := ValidateStruct(&req).ToAPIError()
	if apiErr.Details["field"] != "password" {
		t.Errorf("field = %v, want password", apiErr.Details["field"])
	}
	if _, ok := apiErr.Details["value"]; ok {
		t.Error("password value echoed in error details")
	}
	if !strings.Contains(apiErr.Message, "at most 3 characters") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestValidateStruct_UntaggedFieldUsesGoName(t *testing.T) {
	req := struct {
		TenantID string `validate:"required,printascii"`
	}{TenantID: "acmé"}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected printascii failure")
	}
	if got := err.Errors()[0].Field(); got != "TenantID" {
		t.Errorf("Field() = %q, want TenantID", got)
	}
	if !strings.Contains(err.Error(), "printable ASCII") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	if err := ValidateStruct("plain string"); err == nil || err.Errors()[0].Field() != "unknown" {
		t.Errorf("ValidateStruct(string) = %v", err)
	}
}
