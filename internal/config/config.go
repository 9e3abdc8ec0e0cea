// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package config

import (
	"time"

	"github.com/tomtom215/snapvault/internal/models"
)

// Config holds all application configuration
type Config struct {
	Backup    BackupConfig    `koanf:"backup"`
	Retry     RetryConfig     `koanf:"retry"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	EventLog  EventLogConfig  `koanf:"eventlog"`
	Store     StoreConfig     `koanf:"store"`
	Database  DatabaseConfig  `koanf:"database"`
	Email     EmailConfig     `koanf:"email"`
	Offsite   OffsiteConfig   `koanf:"offsite"` // Optional: S3-compatible mirror of validated snapshots
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// BackupConfig holds snapshot production settings
type BackupConfig struct {
	// RootDir is the root of the per-tenant snapshot tree.
	RootDir string `koanf:"root_dir"`

	// RunTimeout bounds one backup run, export through notification.
	RunTimeout time.Duration `koanf:"run_timeout"`

	// TenantPause separates consecutive tenants within one scheduler tick.
	TenantPause time.Duration `koanf:"tenant_pause"`
}

// RetryConfig holds failed-backup retry settings
type RetryConfig struct {
	MaxRetries int           `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
	Multiplier float64       `koanf:"multiplier"`
	Interval   time.Duration `koanf:"interval"` // How often due retries are processed
	Pause      time.Duration `koanf:"pause"`    // Pause between consecutive retry attempts
}

// SchedulerConfig holds scheduler loop and record sweep settings
type SchedulerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	CheckInterval       time.Duration `koanf:"check_interval"`
	SweepInterval       time.Duration `koanf:"sweep_interval"`
	SweepTimeout        time.Duration `koanf:"sweep_timeout"`
	ValidationRetention time.Duration `koanf:"validation_retention"`
	EventLogRetention   time.Duration `koanf:"eventlog_retention"`
}

// EventLogConfig holds backup event log settings
type EventLogConfig struct {
	Dir             string `koanf:"dir"`
	MaxFileSize     int64  `koanf:"max_file_size"`
	MaxRotatedFiles int    `koanf:"max_rotated_files"`
	QueueSize       int    `koanf:"queue_size"`
	StatsWindow     int    `koanf:"stats_window"`
}

// StoreConfig holds BadgerDB settings for failure, validation and
// recipient records
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty opens an in-memory store.
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// DatabaseConfig holds PostgreSQL settings for the business database
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	MaxConns       int32         `koanf:"max_conns"`
	MinConns       int32         `koanf:"min_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate"` // Create configuracion_backup when missing
}

// EmailConfig holds the SMTP transport used until settings are stored
// through the API, plus delivery tuning
type EmailConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Secure      bool          `koanf:"secure"`
	User        string        `koanf:"user"`
	Password    string        `koanf:"password"`
	FromEmail   string        `koanf:"from_email"`
	FromName    string        `koanf:"from_name"`
	SendTimeout time.Duration `koanf:"send_timeout"`
	Concurrency int           `koanf:"concurrency"`
}

// Transport returns the SMTP settings as the persisted model.
func (e EmailConfig) Transport() models.EmailConfig {
	return models.EmailConfig{
		Enabled:   e.Enabled,
		Host:      e.Host,
		Port:      e.Port,
		Secure:    e.Secure,
		User:      e.User,
		Password:  e.Password,
		FromEmail: e.FromEmail,
		FromName:  e.FromName,
	}
}

// OffsiteConfig holds S3-compatible object storage settings
type OffsiteConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Bucket          string        `koanf:"bucket"`
	Region          string        `koanf:"region"`
	Endpoint        string        `koanf:"endpoint"` // Empty uses AWS; set for MinIO and similar
	AccessKeyID     string        `koanf:"access_key_id"`
	SecretAccessKey string        `koanf:"secret_access_key"`
	Prefix          string        `koanf:"prefix"`
	UsePathStyle    bool          `koanf:"use_path_style"`
	UploadTimeout   time.Duration `koanf:"upload_timeout"`
}

// ServerConfig holds HTTP management API settings
type ServerConfig struct {
	Port              int           `koanf:"port"`
	Host              string        `koanf:"host"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}
