// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
cleaner.go - Snapshot Retention and Record Sweeping

Retention is applied per tenant after every successful run. A snapshot is
removed when it is beyond the newest MaxBackups files OR older than
RetentionDays; the two rules are evaluated independently and their union is
deleted. Zero or negative limits disable the corresponding rule.

Creation time comes from the timestamp embedded in the file name. Files
whose name carries no parseable timestamp fall back to the filesystem
modification time.

SweepRecords is the daily housekeeping pass: validation records older than
ValidationRetention and event log files older than EventLogRetention are
deleted under a SweepTimeout deadline.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/models"
)

// RecordSweeper deletes expired validation records.
type RecordSweeper interface {
	DeleteValidationsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// CleanupResult reports one retention pass.
type CleanupResult struct {
	FilesRemoved int                   `json:"files_removed"`
	SpaceFreed   int64                 `json:"space_freed"`
	Removed      []models.SnapshotFile `json:"removed"`
}

// SweepResult reports one housekeeping sweep.
type SweepResult struct {
	ValidationsDeleted int `json:"validations_deleted"`
	LogFilesDeleted    int `json:"log_files_deleted"`
}

// TenantStorage summarizes the snapshots of one tenant directory.
type TenantStorage struct {
	Directory  string     `json:"directory"`
	FileCount  int        `json:"file_count"`
	TotalBytes int64      `json:"total_bytes"`
	Newest     *time.Time `json:"newest,omitempty"`
	Oldest     *time.Time `json:"oldest,omitempty"`
}

// StorageStats summarizes the whole backup tree.
type StorageStats struct {
	RootDir    string          `json:"root_dir"`
	FileCount  int             `json:"file_count"`
	TotalBytes int64           `json:"total_bytes"`
	Tenants    []TenantStorage `json:"tenants"`
}

// Cleaner applies retention to the backup tree.
type Cleaner struct {
	cfg     Config
	records RecordSweeper
	events  *eventlog.Logger
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCleaner creates a cleaner for the tree under cfg.RootDir.
func NewCleaner(cfg Config, records RecordSweeper, events *eventlog.Logger) *Cleaner {
	return &Cleaner{
		cfg:     cfg,
		records: records,
		events:  events,
		logger:  logging.WithComponent("backup-cleaner"),
		now:     time.Now,
	}
}

// ListSnapshots returns the snapshots of a tenant, newest first. A missing
// directory yields an empty list.
func (c *Cleaner) ListSnapshots(tenantName string) ([]models.SnapshotFile, error) {
	return listSnapshotDir(TenantDir(c.cfg.RootDir, tenantName))
}

func listSnapshotDir(dir string) ([]models.SnapshotFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SnapshotFile{}, nil
		}
		return nil, errors.Mark(errors.Wrapf(err, "read snapshot directory %s", dir), ErrIO)
	}

	files := make([]models.SnapshotFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed concurrently.
			continue
		}
		created, ok := ParseSnapshotTime(name)
		if !ok {
			created = info.ModTime()
		}
		files = append(files, models.SnapshotFile{
			Name:      name,
			Path:      filepath.Join(dir, name),
			Size:      info.Size(),
			CreatedAt: created,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// selectExpired returns the files to remove from a newest-first list.
func selectExpired(files []models.SnapshotFile, maxBackups, retentionDays int, now time.Time) []models.SnapshotFile {
	var cutoff time.Time
	if retentionDays > 0 {
		cutoff = now.AddDate(0, 0, -retentionDays)
	}

	var expired []models.SnapshotFile
	for i, f := range files {
		byCount := maxBackups > 0 && i >= maxBackups
		byAge := retentionDays > 0 && f.CreatedAt.Before(cutoff)
		if byCount || byAge {
			expired = append(expired, f)
		}
	}
	return expired
}

// Cleanup deletes the snapshots of a tenant that fall outside its
// retention policy. Individual deletion failures are logged and skipped.
func (c *Cleaner) Cleanup(ctx context.Context, cfg models.TenantBackupConfig) (*CleanupResult, error) {
	result := &CleanupResult{Removed: []models.SnapshotFile{}}

	files, err := c.ListSnapshots(cfg.TenantName)
	if err != nil {
		return result, err
	}

	for _, f := range selectExpired(files, cfg.MaxBackups, cfg.RetentionDays, c.now()) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := os.Remove(f.Path); err != nil {
			if !os.IsNotExist(err) {
				c.logger.Warn().Err(err).Str("file", f.Path).Msg("Failed to remove expired snapshot")
			}
			continue
		}

		f.TenantID = cfg.TenantID
		f.TenantName = cfg.TenantName
		result.FilesRemoved++
		result.SpaceFreed += f.Size
		result.Removed = append(result.Removed, f)

		c.events.Log(models.LogInfo, models.ActionCleanup,
			fmt.Sprintf("Removed expired snapshot %s", f.Name),
			eventlog.WithTenant(cfg.TenantID, cfg.TenantName),
			eventlog.WithFile(f.Path, f.Size),
			eventlog.WithDetails(map[string]interface{}{
				"created_at":     f.CreatedAt,
				"max_backups":    cfg.MaxBackups,
				"retention_days": cfg.RetentionDays,
			}))
	}

	if result.FilesRemoved > 0 {
		metrics.CleanupFilesRemoved.Add(float64(result.FilesRemoved))
		metrics.CleanupBytesFreed.Add(float64(result.SpaceFreed))
		c.logger.Info().
			Str("tenant_id", cfg.TenantID).
			Int("files_removed", result.FilesRemoved).
			Int64("space_freed", result.SpaceFreed).
			Msg("Retention applied")
	}
	return result, nil
}

// SweepRecords deletes expired validation records and event log files.
func (c *Cleaner) SweepRecords(ctx context.Context, now time.Time) (*SweepResult, error) {
	if c.cfg.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SweepTimeout)
		defer cancel()
	}

	result := &SweepResult{}
	var errs []error

	if c.records != nil && c.cfg.ValidationRetention > 0 {
		n, err := c.records.DeleteValidationsBefore(ctx, now.Add(-c.cfg.ValidationRetention))
		result.ValidationsDeleted = n
		if err != nil {
			errs = append(errs, errors.Wrap(err, "sweep validation records"))
		}
	}

	if c.events != nil && c.cfg.EventLogRetention > 0 {
		n, err := c.events.Prune(ctx, now.Add(-c.cfg.EventLogRetention))
		result.LogFilesDeleted = n
		if err != nil {
			errs = append(errs, errors.Wrap(err, "sweep event log files"))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		if ctx.Err() != nil {
			err = errors.Mark(err, ErrTimeout)
		} else {
			err = errors.Mark(err, ErrIO)
		}
		c.logger.Error().Err(err).Msg("Record sweep incomplete")
		return result, err
	}

	if result.ValidationsDeleted > 0 || result.LogFilesDeleted > 0 {
		c.events.Log(models.LogInfo, models.ActionCleanup,
			fmt.Sprintf("Swept %d validation records and %d log files",
				result.ValidationsDeleted, result.LogFilesDeleted),
			eventlog.WithDetails(map[string]interface{}{
				"validations_deleted": result.ValidationsDeleted,
				"log_files_deleted":   result.LogFilesDeleted,
			}))
	}
	return result, nil
}

// StorageStats walks the backup root and summarizes every tenant
// directory.
func (c *Cleaner) StorageStats() (*StorageStats, error) {
	stats := &StorageStats{RootDir: c.cfg.RootDir, Tenants: []TenantStorage{}}

	entries, err := os.ReadDir(c.cfg.RootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, errors.Mark(errors.Wrap(err, "read backup root"), ErrIO)
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == scratchDir {
			continue
		}
		files, err := listSnapshotDir(filepath.Join(c.cfg.RootDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}

		ts := TenantStorage{Directory: entry.Name(), FileCount: len(files)}
		for _, f := range files {
			ts.TotalBytes += f.Size
		}
		newest, oldest := files[0].CreatedAt, files[len(files)-1].CreatedAt
		ts.Newest, ts.Oldest = &newest, &oldest

		stats.FileCount += ts.FileCount
		stats.TotalBytes += ts.TotalBytes
		stats.Tenants = append(stats.Tenants, ts)
	}
	return stats, nil
}
