// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
validator.go - Snapshot Validation and Integrity Checking

Validation steps, in order. Only the first two stop validation early:

 1. File exists and is not empty (fatal)
 2. File decodes as a JSON object (fatal)
 3. Required top-level fields: timestamp (RFC 3339), tenantId, tenantName,
    data (object); each missing field is an error
 4. Critical tables present under data; missing is an error, empty is a
    warning
 5. Every value under data is an array
 6. tenantId matches the id of a row in the exported tenant table
 7. SHA-256 checksum streamed from disk, record and table counts

Unknown table keys are accepted silently. Errors and warnings are collected
in the result rather than returned, and exactly one ValidationRecord is
persisted per call whatever the outcome.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
	"github.com/tomtom215/snapvault/internal/models"
)

// ValidationStats describes the validated file.
type ValidationStats struct {
	FileSize    int64  `json:"file_size"`
	RecordCount int    `json:"record_count"`
	TableCount  int    `json:"table_count"`
	Checksum    string `json:"checksum,omitempty"`
}

// ValidationResult is the outcome of validating one snapshot file.
type ValidationResult struct {
	IsValid    bool                    `json:"is_valid"`
	Status     models.ValidationStatus `json:"status"`
	Errors     []string                `json:"errors"`
	Warnings   []string                `json:"warnings"`
	Stats      ValidationStats         `json:"stats"`
	TenantID   string                  `json:"tenant_id,omitempty"`
	TenantName string                  `json:"tenant_name,omitempty"`
}

// ErrorText joins the errors into one message.
func (r *ValidationResult) ErrorText() string {
	return strings.Join(r.Errors, "; ")
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) finish() {
	r.IsValid = len(r.Errors) == 0
	switch {
	case !r.IsValid:
		r.Status = models.ValidationInvalid
	case len(r.Warnings) > 0:
		r.Status = models.ValidationWarning
	default:
		r.Status = models.ValidationValid
	}
}

// ValidationStore persists validation records.
type ValidationStore interface {
	PutValidation(ctx context.Context, rec *models.ValidationRecord) error
}

// Validator checks snapshot files.
type Validator struct {
	records ValidationStore
	events  *eventlog.Logger
	logger  zerolog.Logger
	now     func() time.Time
}

// NewValidator creates a validator persisting records to records.
func NewValidator(records ValidationStore, events *eventlog.Logger) *Validator {
	return &Validator{
		records: records,
		events:  events,
		logger:  logging.WithComponent("backup-validator"),
		now:     time.Now,
	}
}

// Validate checks the snapshot at path and persists a ValidationRecord.
func (v *Validator) Validate(ctx context.Context, path string) *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	v.check(path, result)
	result.finish()

	metrics.ValidationsTotal.WithLabelValues(string(result.Status)).Inc()
	v.persist(ctx, path, result)
	return result
}

func (v *Validator) check(path string, result *ValidationResult) {
	info, err := os.Stat(path)
	if err != nil {
		result.addError("snapshot file not readable: %v", err)
		return
	}
	result.Stats.FileSize = info.Size()
	if info.Size() == 0 {
		result.addError("snapshot file is empty")
		return
	}

	raw, err := decodeRaw(path)
	if err != nil {
		result.addError("snapshot is not a JSON object: %v", err)
		return
	}

	v.checkHeader(raw, result)
	tenantRows := v.checkTables(raw, result)
	if result.TenantID != "" && tenantRows != nil {
		checkTenantMatch(result.TenantID, tenantRows, result)
	}

	checksum, err := fileChecksum(path)
	if err != nil {
		result.addError("failed to calculate checksum: %v", err)
		return
	}
	result.Stats.Checksum = checksum
}

//nolint:gosec // G304: path is produced by the executor under the backup root
func decodeRaw(path string) (*models.RawSnapshotDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var raw models.RawSnapshotDocument
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (v *Validator) checkHeader(raw *models.RawSnapshotDocument, result *ValidationResult) {
	if isAbsent(raw.Timestamp) {
		result.addError("missing required field: timestamp")
	} else {
		var ts string
		if err := json.Unmarshal(raw.Timestamp, &ts); err != nil {
			result.addError("timestamp is not a string")
		} else if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
			result.addError("timestamp is not a valid date: %q", ts)
		}
	}

	if isAbsent(raw.TenantID) {
		result.addError("missing required field: tenantId")
	} else {
		result.TenantID = scalarString(raw.TenantID)
	}

	if isAbsent(raw.TenantName) {
		result.addError("missing required field: tenantName")
	} else {
		result.TenantName = scalarString(raw.TenantName)
	}

	if raw.Data == nil {
		result.addError("missing required field: data")
	}
}

// checkTables validates the data object and returns the tenant table rows
// with undecoded column values, or nil when they are unusable.
func (v *Validator) checkTables(raw *models.RawSnapshotDocument, result *ValidationResult) []map[string]json.RawMessage {
	if raw.Data == nil {
		return nil
	}

	var tenantRows []map[string]json.RawMessage
	for table, value := range raw.Data {
		var rows []json.RawMessage
		if isAbsent(value) || json.Unmarshal(value, &rows) != nil {
			result.addError("table %s is not an array", table)
			continue
		}
		result.Stats.TableCount++
		result.Stats.RecordCount += len(rows)

		if table == TenantTable {
			tenantRows = make([]map[string]json.RawMessage, 0, len(rows))
			for _, row := range rows {
				var m map[string]json.RawMessage
				if json.Unmarshal(row, &m) == nil {
					tenantRows = append(tenantRows, m)
				}
			}
		}
	}

	for _, table := range CriticalTables {
		value, ok := raw.Data[table]
		if !ok {
			result.addError("missing critical table: %s", table)
			continue
		}
		var rows []json.RawMessage
		if json.Unmarshal(value, &rows) == nil && len(rows) == 0 {
			result.addWarning("critical table %s is empty", table)
		}
	}

	return tenantRows
}

// checkTenantMatch requires a tenant table row whose id equals tenantID.
// Numeric ids compare by their literal JSON text.
func checkTenantMatch(tenantID string, rows []map[string]json.RawMessage, result *ValidationResult) {
	for _, row := range rows {
		if id, ok := row["id"]; ok && !isAbsent(id) && scalarString(id) == tenantID {
			return
		}
	}
	result.addError("tenantId %s does not match any row in %s", tenantID, TenantTable)
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// scalarString renders a JSON string as its value and any other scalar as
// its literal text, so 12345678 stays "12345678".
func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return ""
		}
		return str
	}
	return string(trimmed)
}

// fileChecksum streams the file through SHA-256.
//
//nolint:gosec // G304: path is produced by the executor under the backup root
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (v *Validator) persist(ctx context.Context, path string, result *ValidationResult) {
	rec := &models.ValidationRecord{
		FileName:    filepath.Base(path),
		TenantID:    result.TenantID,
		TenantName:  result.TenantName,
		FileSize:    result.Stats.FileSize,
		RecordCount: result.Stats.RecordCount,
		TableCount:  result.Stats.TableCount,
		Checksum:    result.Stats.Checksum,
		Status:      result.Status,
		Errors:      strings.Join(result.Errors, "; "),
		Warnings:    strings.Join(result.Warnings, "; "),
		CreatedAt:   v.now(),
	}
	if err := v.records.PutValidation(ctx, rec); err != nil {
		v.logger.Warn().Err(err).Str("file", rec.FileName).Msg("Failed to persist validation record")
	}

	if v.events == nil {
		return
	}
	level := models.LogInfo
	switch result.Status {
	case models.ValidationInvalid:
		level = models.LogError
	case models.ValidationWarning:
		level = models.LogWarn
	}
	v.events.Log(level, models.ActionValidation,
		fmt.Sprintf("Snapshot validation %s", result.Status),
		eventlog.WithTenant(result.TenantID, result.TenantName),
		eventlog.WithFile(path, result.Stats.FileSize),
		eventlog.WithDetails(map[string]interface{}{
			"errors":       result.Errors,
			"warnings":     result.Warnings,
			"record_count": result.Stats.RecordCount,
			"table_count":  result.Stats.TableCount,
			"checksum":     result.Stats.Checksum,
		}),
	)
}
