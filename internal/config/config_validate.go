// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateBackup(); err != nil {
		return err
	}

	if err := c.validateRetry(); err != nil {
		return err
	}

	if err := c.validateScheduler(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateEmail(); err != nil {
		return err
	}

	if err := c.validateOffsite(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateBackup validates snapshot production settings
func (c *Config) validateBackup() error {
	if strings.TrimSpace(c.Backup.RootDir) == "" {
		return fmt.Errorf("BACKUP_ROOT_DIR is required")
	}
	if c.Backup.RunTimeout < time.Second {
		return fmt.Errorf("BACKUP_RUN_TIMEOUT must be at least 1s, got %v", c.Backup.RunTimeout)
	}
	if c.Backup.TenantPause < 0 {
		return fmt.Errorf("BACKUP_TENANT_PAUSE must not be negative")
	}
	return nil
}

// validateRetry validates retry backoff settings
func (c *Config) validateRetry() error {
	if c.Retry.MaxRetries < 1 || c.Retry.MaxRetries > 20 {
		return fmt.Errorf("RETRY_MAX_RETRIES must be between 1 and 20, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be positive")
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("RETRY_MULTIPLIER must be at least 1, got %v", c.Retry.Multiplier)
	}
	if c.Retry.Interval <= 0 {
		return fmt.Errorf("RETRY_INTERVAL must be positive")
	}
	return nil
}

// validateScheduler validates scheduler loop settings
func (c *Config) validateScheduler() error {
	// A check interval above two minutes can step over the due window
	if c.Scheduler.CheckInterval <= 0 || c.Scheduler.CheckInterval > 2*time.Minute {
		return fmt.Errorf("SCHEDULER_CHECK_INTERVAL must be between 0 and 2m, got %v", c.Scheduler.CheckInterval)
	}
	if c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.Scheduler.ValidationRetention <= 0 || c.Scheduler.EventLogRetention <= 0 {
		return fmt.Errorf("VALIDATION_RETENTION and EVENTLOG_RETENTION must be positive")
	}
	return nil
}

// validateDatabase validates the business database connection settings
func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	u, err := url.Parse(c.Database.URL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL failed to parse: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres or postgresql, got: %s", u.Scheme)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be at least 1")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS must be between 0 and DATABASE_MAX_CONNS")
	}
	return nil
}

// validateEmail validates the fallback SMTP settings (only if enabled)
func (c *Config) validateEmail() error {
	if c.Email.SendTimeout <= 0 {
		return fmt.Errorf("EMAIL_SEND_TIMEOUT must be positive")
	}
	if c.Email.Concurrency < 1 {
		return fmt.Errorf("EMAIL_CONCURRENCY must be at least 1")
	}
	if !c.Email.Enabled {
		return nil
	}

	if c.Email.Host == "" {
		return fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED=true")
	}
	if c.Email.Port < 1 || c.Email.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if !strings.Contains(c.Email.FromEmail, "@") {
		return fmt.Errorf("EMAIL_FROM must be an email address when EMAIL_ENABLED=true")
	}
	return nil
}

// validateOffsite validates object storage settings (only if enabled)
func (c *Config) validateOffsite() error {
	if !c.Offsite.Enabled {
		return nil
	}

	if c.Offsite.Bucket == "" {
		return fmt.Errorf("OFFSITE_BUCKET is required when OFFSITE_ENABLED=true")
	}
	if c.Offsite.Region == "" {
		return fmt.Errorf("OFFSITE_REGION is required when OFFSITE_ENABLED=true")
	}
	if (c.Offsite.AccessKeyID == "") != (c.Offsite.SecretAccessKey == "") {
		return fmt.Errorf("OFFSITE_ACCESS_KEY_ID and OFFSITE_SECRET_ACCESS_KEY must be set together")
	}
	if c.Offsite.Endpoint != "" {
		if err := validateHTTPURL(c.Offsite.Endpoint, "OFFSITE_ENDPOINT"); err != nil {
			return err
		}
	}
	return nil
}

// validateHTTPURL validates that a URL is properly formatted for HTTP/HTTPS services.
// Validates: scheme (http/https), host present, no paths or query params.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	// Allow trailing slash but no other paths
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
