// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/snapvault/config.yaml",
	"/etc/snapvault/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Backup: BackupConfig{
			RootDir:     "/data/backups",
			RunTimeout:  10 * time.Minute,
			TenantPause: time.Second,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  5 * time.Minute, // Delays 5m, 10m, 20m, ...
			Multiplier: 2,
			Interval:   time.Minute,
			Pause:      2 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			CheckInterval:       time.Minute,
			SweepInterval:       24 * time.Hour,
			SweepTimeout:        30 * time.Second,
			ValidationRetention: 90 * 24 * time.Hour,
			EventLogRetention:   60 * 24 * time.Hour,
		},
		EventLog: EventLogConfig{
			Dir:             "/data/logs",
			MaxFileSize:     10 * 1024 * 1024, // 10MB
			MaxRotatedFiles: 30,
			QueueSize:       256,
			StatsWindow:     1000,
		},
		Store: StoreConfig{
			Path:       "/data/store",
			GCInterval: 10 * time.Minute,
		},
		Database: DatabaseConfig{
			URL:            "",
			MaxConns:       4,
			MinConns:       0,
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   2 * time.Minute,
			AutoMigrate:    false,
		},
		Email: EmailConfig{
			Enabled:     false, // Configured through the API or EMAIL_* variables
			Port:        587,
			FromName:    "Snapvault",
			SendTimeout: 30 * time.Second,
			Concurrency: 4,
		},
		Offsite: OffsiteConfig{
			Enabled:       false,
			Region:        "us-east-1",
			Prefix:        "snapshots",
			UploadTimeout: 5 * time.Minute,
		},
		Server: ServerConfig{
			Port:            8090,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources.
//
// Configuration is loaded in the following order (later sources override earlier):
//  1. Default values
//  2. Config file (YAML): CONFIG_PATH, then DefaultConfigPaths
//  3. Environment variables
//
// The loaded configuration is validated before being returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Step 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Step 2: Load config file if exists
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Step 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default locations.
// Returns the first found path or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists configuration paths that should be parsed as
// comma-separated slices when coming from environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for fields that are expected to be slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Only mapped variables are loaded.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"backup_root_dir":     "backup.root_dir",
		"backup_run_timeout":  "backup.run_timeout",
		"backup_tenant_pause": "backup.tenant_pause",

		"retry_max_retries": "retry.max_retries",
		"retry_base_delay":  "retry.base_delay",
		"retry_multiplier":  "retry.multiplier",
		"retry_interval":    "retry.interval",
		"retry_pause":       "retry.pause",

		"scheduler_enabled":        "scheduler.enabled",
		"scheduler_check_interval": "scheduler.check_interval",
		"sweep_interval":           "scheduler.sweep_interval",
		"sweep_timeout":            "scheduler.sweep_timeout",
		"validation_retention":     "scheduler.validation_retention",
		"eventlog_retention":       "scheduler.eventlog_retention",

		"eventlog_dir":               "eventlog.dir",
		"eventlog_max_file_size":     "eventlog.max_file_size",
		"eventlog_max_rotated_files": "eventlog.max_rotated_files",

		"store_path":        "store.path",
		"store_gc_interval": "store.gc_interval",

		"database_url":             "database.url",
		"database_max_conns":       "database.max_conns",
		"database_min_conns":       "database.min_conns",
		"database_connect_timeout": "database.connect_timeout",
		"database_query_timeout":   "database.query_timeout",
		"database_auto_migrate":    "database.auto_migrate",

		"email_enabled":      "email.enabled",
		"smtp_host":          "email.host",
		"smtp_port":          "email.port",
		"smtp_secure":        "email.secure",
		"smtp_user":          "email.user",
		"smtp_password":      "email.password",
		"email_from":         "email.from_email",
		"email_from_name":    "email.from_name",
		"email_send_timeout": "email.send_timeout",
		"email_concurrency":  "email.concurrency",

		"offsite_enabled":           "offsite.enabled",
		"offsite_bucket":            "offsite.bucket",
		"offsite_region":            "offsite.region",
		"offsite_endpoint":          "offsite.endpoint",
		"offsite_access_key_id":     "offsite.access_key_id",
		"offsite_secret_access_key": "offsite.secret_access_key",
		"offsite_prefix":            "offsite.prefix",
		"offsite_use_path_style":    "offsite.use_path_style",
		"offsite_upload_timeout":    "offsite.upload_timeout",

		"http_port":           "server.port",
		"http_host":           "server.host",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
