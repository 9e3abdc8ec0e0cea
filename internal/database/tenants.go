// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/models"
)

// configSelect reads backup configuration joined to the tenant name.
// hora_backup is rendered as HH:MM to match the scheduler's format.
const configSelect = `
SELECT
	e.id::text,
	e.nombre,
	c.backup_automatico,
	c.frecuencia,
	to_char(c.hora_backup, 'HH24:MI'),
	c.mantener_local,
	c.max_backups,
	c.retencion_dias,
	c.ultimo_backup
FROM configuracion_backup c
JOIN empresas e ON e.id = c.empresa_id`

// sqlStateInvalidText is raised when a tenant ID does not parse as the
// empresas key type
const sqlStateInvalidText = "22P02"

func isInvalidTenantID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateInvalidText
}

func scanConfig(row pgx.CollectableRow) (models.TenantBackupConfig, error) {
	var (
		cfg       models.TenantBackupConfig
		frequency string
	)
	err := row.Scan(
		&cfg.TenantID,
		&cfg.TenantName,
		&cfg.AutoBackupEnabled,
		&frequency,
		&cfg.BackupTime,
		&cfg.KeepLocalBackup,
		&cfg.MaxBackups,
		&cfg.RetentionDays,
		&cfg.LastBackup,
	)
	cfg.Frequency = models.Frequency(frequency)
	return cfg, err
}

// ListConfigs returns the backup configuration of every tenant
func (db *Postgres) ListConfigs(ctx context.Context) ([]models.TenantBackupConfig, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx, configSelect+" ORDER BY e.id")
	if err != nil {
		return nil, fmt.Errorf("list backup configs: %w", err)
	}

	configs, err := pgx.CollectRows(rows, scanConfig)
	if err != nil {
		return nil, fmt.Errorf("scan backup configs: %w", err)
	}
	return configs, nil
}

// GetConfig returns one tenant's backup configuration, or an error marked
// backup.ErrNotFound
func (db *Postgres) GetConfig(ctx context.Context, tenantID string) (*models.TenantBackupConfig, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx, configSelect+" WHERE e.id = $1", tenantID)
	if err != nil {
		return nil, fmt.Errorf("get backup config: %w", err)
	}

	cfg, err := pgx.CollectExactlyOneRow(rows, scanConfig)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidTenantID(err) {
		return nil, errors.Mark(fmt.Errorf("tenant %s has no backup configuration", tenantID), backup.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan backup config: %w", err)
	}
	return &cfg, nil
}

// UpdateLastBackup records the time of a committed snapshot
func (db *Postgres) UpdateLastBackup(ctx context.Context, tenantID string, at time.Time) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	tag, err := db.pool.Exec(ctx,
		"UPDATE configuracion_backup SET ultimo_backup = $2 WHERE empresa_id = $1",
		tenantID, at)
	if isInvalidTenantID(err) {
		return errors.Mark(fmt.Errorf("tenant %s has no backup configuration", tenantID), backup.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update last backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Mark(fmt.Errorf("tenant %s has no backup configuration", tenantID), backup.ErrNotFound)
	}
	return nil
}
