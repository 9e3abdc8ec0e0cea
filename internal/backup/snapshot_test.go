// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/snapvault/internal/models"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme", "Acme"},
		{"Acme S.A.", "Acme_S_A_"},
		{"Panadería López", "Panader_a_L_pez"},
		{"../etc/passwd", "___etc_passwd"},
		{"ok-name_2", "ok-name_2"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnapshotFileName(t *testing.T) {
	created := time.Date(2026, 10, 17, 2, 0, 0, 123_000_000, time.UTC)
	got := SnapshotFileName("Acme S.A.", created)
	want := "backup_Acme_S_A__2026-10-17T02-00-00-123Z.json"
	if got != want {
		t.Errorf("SnapshotFileName() = %q, want %q", got, want)
	}
}

func TestParseSnapshotTime_RoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	created := time.Date(2026, 3, 9, 23, 59, 58, 999_000_000, loc)

	name := SnapshotFileName("Tenant", created)
	got, ok := ParseSnapshotTime(name)
	if !ok {
		t.Fatalf("ParseSnapshotTime(%q) failed", name)
	}
	if !got.Equal(created) {
		t.Errorf("ParseSnapshotTime() = %v, want %v", got, created)
	}
}

func TestParseSnapshotTime_Invalid(t *testing.T) {
	for _, name := range []string{
		"backup_Acme.json",
		"backup_Acme_2026-10-17.json",
		"backup_Acme_2026-13-40T99-00-00-000Z.json",
		"notes.txt",
	} {
		if _, ok := ParseSnapshotTime(name); ok {
			t.Errorf("ParseSnapshotTime(%q) ok = true, want false", name)
		}
	}
}

func TestWriteSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "Acme")
	path := filepath.Join(dir, "backup_Acme_2026-10-17T02-00-00-000Z.json")
	doc := &models.SnapshotDocument{
		Timestamp:  time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC),
		Version:    SnapshotVersion,
		TenantID:   "7",
		TenantName: "Acme",
		Data: map[string][]map[string]interface{}{
			"empresas": {{"id": 7}},
			"gastos":   {},
		},
	}

	size, err := writeSnapshot(path, doc)
	if err != nil {
		t.Fatalf("writeSnapshot() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != size {
		t.Errorf("size = %d, file has %d bytes", size, len(data))
	}
	if !strings.Contains(string(data), "\n  \"") {
		t.Error("snapshot is not pretty-printed")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if decoded["tenantId"] != "7" {
		t.Errorf("tenantId = %v", decoded["tenantId"])
	}
	tables := decoded["data"].(map[string]interface{})
	if rows, ok := tables["gastos"].([]interface{}); !ok || len(rows) != 0 {
		t.Errorf("gastos = %v, want empty array", tables["gastos"])
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the snapshot", len(entries))
	}
}
