// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package eventlog

import (
	"context"

	"github.com/tomtom215/snapvault/internal/models"
)

// Stats aggregates the most recent StatsWindow entries, not the full history.
func (l *Logger) Stats(ctx context.Context) (*models.LogStats, error) {
	entries, err := l.Recent(ctx, l.cfg.StatsWindow)
	if err != nil {
		return nil, err
	}
	return aggregate(entries, l.cfg.StatsWindow), nil
}

func aggregate(entries []models.LogEntry, window int) *models.LogStats {
	stats := &models.LogStats{
		Window:   window,
		ByLevel:  make(map[models.LogLevel]int),
		ByAction: make(map[models.LogAction]int),
	}

	for i := range entries {
		e := &entries[i]
		stats.ByLevel[e.Level]++
		stats.ByAction[e.Action]++

		switch e.Action {
		case models.ActionBackupComplete:
			stats.SuccessfulBackups++
			if stats.LastSuccessfulBackup == nil || e.Timestamp.After(*stats.LastSuccessfulBackup) {
				ts := e.Timestamp
				stats.LastSuccessfulBackup = &ts
			}
		case models.ActionBackupError:
			stats.FailedBackups++
		}
	}
	stats.TotalBackups = stats.SuccessfulBackups + stats.FailedBackups
	return stats
}
