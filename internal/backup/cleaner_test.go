// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package backup

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/tomtom215/snapvault/internal/models"
)

// writeSnapshotAt creates a fake snapshot for tenantName created at t.
func writeSnapshotAt(t *testing.T, root, tenantName string, created time.Time) string {
	t.Helper()
	dir := TenantDir(root, tenantName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, SnapshotFileName(tenantName, created))
	if err := os.WriteFile(path, []byte(`{"data":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func ageDays(now, created time.Time) int {
	return int(math.Round(now.Sub(created).Hours() / 24))
}

func TestCleanup_RetentionUnion(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	cfg := models.TenantBackupConfig{TenantID: "1", TenantName: "Acme", MaxBackups: 2, RetentionDays: 30}

	for _, days := range []int{0, 5, 10, 40} {
		writeSnapshotAt(t, env.cfg.RootDir, "Acme", now.AddDate(0, 0, -days))
	}

	result, err := env.manager.Cleaner().Cleanup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	var removed []int
	for _, f := range result.Removed {
		removed = append(removed, ageDays(now, f.CreatedAt))
	}
	sort.Ints(removed)
	if len(removed) != 2 || removed[0] != 10 || removed[1] != 40 {
		t.Errorf("removed ages = %v, want [10 40]", removed)
	}
	if result.FilesRemoved != 2 || result.SpaceFreed != 2*int64(len(`{"data":{}}`)) {
		t.Errorf("result = %d files %d bytes", result.FilesRemoved, result.SpaceFreed)
	}

	remaining, err := env.manager.Cleaner().ListSnapshots("Acme")
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	var kept []int
	for _, f := range remaining {
		kept = append(kept, ageDays(now, f.CreatedAt))
	}
	if len(kept) != 2 || kept[0] != 0 || kept[1] != 5 {
		t.Errorf("kept ages = %v, want [0 5]", kept)
	}

	if got := countAction(env.logEntries(t), models.ActionCleanup); got != 2 {
		t.Errorf("cleanup entries = %d, want 2", got)
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	cfg := models.TenantBackupConfig{TenantID: "1", TenantName: "Acme", MaxBackups: 3, RetentionDays: 7}

	for _, days := range []int{0, 1, 2, 3, 8, 9} {
		writeSnapshotAt(t, env.cfg.RootDir, "Acme", now.AddDate(0, 0, -days))
	}

	first, err := env.manager.Cleaner().Cleanup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("first Cleanup() error = %v", err)
	}
	if first.FilesRemoved != 3 {
		t.Errorf("first pass removed %d, want 3", first.FilesRemoved)
	}

	second, err := env.manager.Cleaner().Cleanup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second Cleanup() error = %v", err)
	}
	if second.FilesRemoved != 0 {
		t.Errorf("second pass removed %d, want 0", second.FilesRemoved)
	}
}

func TestCleanup_ZeroLimitsKeepEverything(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	cfg := models.TenantBackupConfig{TenantID: "1", TenantName: "Acme"}

	for _, days := range []int{0, 100, 400} {
		writeSnapshotAt(t, env.cfg.RootDir, "Acme", now.AddDate(0, 0, -days))
	}

	result, err := env.manager.Cleaner().Cleanup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if result.FilesRemoved != 0 {
		t.Errorf("removed %d, want 0", result.FilesRemoved)
	}
}

func TestListSnapshots_ModTimeFallback(t *testing.T) {
	env := newTestEnv(t)
	dir := TenantDir(env.cfg.RootDir, "Acme")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}

	legacy := filepath.Join(dir, "backup_Acme_legacy.json")
	if err := os.WriteFile(legacy, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(legacy, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	stamped := writeSnapshotAt(t, env.cfg.RootDir, "Acme", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := env.manager.Cleaner().ListSnapshots("Acme")
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	if files[0].Path != stamped {
		t.Errorf("newest = %s, want %s", files[0].Path, stamped)
	}
	if !files[1].CreatedAt.Equal(mtime) {
		t.Errorf("fallback CreatedAt = %v, want %v", files[1].CreatedAt, mtime)
	}
}

func TestListSnapshots_MissingDirectory(t *testing.T) {
	env := newTestEnv(t)
	files, err := env.manager.Cleaner().ListSnapshots("Nobody")
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %d, want 0", len(files))
	}
}

func TestSweepRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := env.clock.Now()

	for _, days := range []int{1, 89, 91, 200} {
		rec := &models.ValidationRecord{
			FileName:  "f.json",
			Status:    models.ValidationValid,
			CreatedAt: now.AddDate(0, 0, -days),
		}
		if err := env.store.PutValidation(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	result, err := env.manager.Cleaner().SweepRecords(ctx, now)
	if err != nil {
		t.Fatalf("SweepRecords() error = %v", err)
	}
	if result.ValidationsDeleted != 2 {
		t.Errorf("ValidationsDeleted = %d, want 2", result.ValidationsDeleted)
	}

	left, err := env.store.ListValidations(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 2 {
		t.Errorf("remaining validations = %d, want 2", len(left))
	}
}

func TestStorageStats(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	writeSnapshotAt(t, env.cfg.RootDir, "Acme", now)
	writeSnapshotAt(t, env.cfg.RootDir, "Acme", now.Add(-48*time.Hour))
	writeSnapshotAt(t, env.cfg.RootDir, "Globex Corp", now)
	if err := os.MkdirAll(filepath.Join(env.cfg.RootDir, scratchDir), 0o750); err != nil {
		t.Fatal(err)
	}

	stats, err := env.manager.GetStorageStats(context.Background())
	if err != nil {
		t.Fatalf("GetStorageStats() error = %v", err)
	}
	if stats.FileCount != 3 || len(stats.Tenants) != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	for _, ts := range stats.Tenants {
		if ts.Directory != "Acme" {
			continue
		}
		if ts.FileCount != 2 {
			t.Errorf("Acme FileCount = %d, want 2", ts.FileCount)
		}
		if !ts.Newest.Equal(now.UTC().Truncate(time.Millisecond)) {
			t.Errorf("Acme Newest = %v, want %v", ts.Newest, now)
		}
	}
}
