// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package config provides centralized configuration management for Snapvault.

Configuration is loaded with Koanf in three layers, later layers overriding
earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/snapvault/config.yaml, /etc/snapvault/config.yml
 3. Environment variables (explicitly mapped, others ignored)

# Configuration Structure

  - BackupConfig: snapshot root directory, run timeout, inter-tenant pause
  - RetryConfig: max retries and exponential backoff
  - SchedulerConfig: tick, sweep and record retention intervals
  - EventLogConfig: backup event log directory and rotation
  - StoreConfig: BadgerDB path for failures, validations and recipients
  - DatabaseConfig: PostgreSQL business database
  - EmailConfig: fallback SMTP transport and delivery tuning
  - OffsiteConfig: optional S3-compatible snapshot mirror
  - ServerConfig: management API listener, CORS and rate limiting
  - LoggingConfig: zerolog level and format

# Environment Variables

Backup:
  - BACKUP_ROOT_DIR: Snapshot root (default: /data/backups)
  - BACKUP_RUN_TIMEOUT: Per-run timeout (default: 10m)
  - BACKUP_TENANT_PAUSE: Pause between tenants (default: 1s)

Retry:
  - RETRY_MAX_RETRIES: Failures before giving up (default: 3)
  - RETRY_BASE_DELAY: First retry delay (default: 5m)
  - RETRY_MULTIPLIER: Backoff multiplier (default: 2)

Database:
  - DATABASE_URL: PostgreSQL connection string (required)
  - DATABASE_MAX_CONNS: Pool size (default: 4)
  - DATABASE_AUTO_MIGRATE: Create configuracion_backup if missing (default: false)

Email:
  - EMAIL_ENABLED, SMTP_HOST, SMTP_PORT, SMTP_SECURE, SMTP_USER,
    SMTP_PASSWORD, EMAIL_FROM, EMAIL_FROM_NAME

Settings stored through the API take precedence over EMAIL_* variables.

Offsite:
  - OFFSITE_ENABLED, OFFSITE_BUCKET, OFFSITE_REGION, OFFSITE_ENDPOINT,
    OFFSITE_ACCESS_KEY_ID, OFFSITE_SECRET_ACCESS_KEY, OFFSITE_PREFIX

Server:
  - HTTP_HOST, HTTP_PORT (default: 8090), CORS_ORIGINS,
    RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL (default: info), LOG_FORMAT (default: json), LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
