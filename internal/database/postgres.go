// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
postgres.go - Connection Pool Lifecycle

This file opens and closes the pgx connection pool to the business database.

Pool Configuration:
  - MaxConns / MinConns: from DatabaseConfig (backups run sequentially, so
    a small pool is enough)
  - ConnectTimeout: bounds both pool creation and the startup ping
  - QueryTimeout: applied to every query issued by this package
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/config"
	"github.com/tomtom215/snapvault/internal/logging"
)

// Postgres wraps the pgx pool of the business database
type Postgres struct {
	pool   *pgxpool.Pool
	cfg    *config.DatabaseConfig
	logger zerolog.Logger
}

// New creates the connection pool and verifies connectivity.
// The pool is closed again if the ping fails.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &Postgres{
		pool:   pool,
		cfg:    cfg,
		logger: logging.WithComponent("database"),
	}

	db.logger.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("Connected to business database")

	return db, nil
}

// Pool returns the underlying pgx pool (used for pool metrics)
func (db *Postgres) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping verifies the database is reachable
func (db *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	return db.pool.Ping(ctx)
}

// Close releases all pooled connections
func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// queryContext applies the configured query timeout. A context that
// already carries an earlier deadline keeps it.
func (db *Postgres) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg == nil || db.cfg.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < db.cfg.QueryTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}
