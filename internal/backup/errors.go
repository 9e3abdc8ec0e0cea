// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package backup

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Error kinds. Errors are tagged with errors.Mark and tested with errors.Is,
// so the original message and cause chain are preserved.
var (
	// ErrValidation marks a snapshot that failed structural or cross-reference checks.
	ErrValidation = errors.New("validation error")

	// ErrIO marks disk or data store read/write failures.
	ErrIO = errors.New("io error")

	// ErrTransport marks SMTP or object storage transport failures.
	ErrTransport = errors.New("transport error")

	// ErrConfig marks missing or invalid tenant or email configuration.
	ErrConfig = errors.New("config error")

	// ErrNotFound marks an unknown tenant or record.
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks a run that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// ErrTableNotFound is returned by a DataSource when an exported table does
// not exist. The executor exports it as an empty array.
var ErrTableNotFound = errors.New("table not found")

// Kind names stored on failure records and used as metric labels.
const (
	KindValidation = "validation"
	KindIO         = "io"
	KindTransport  = "transport"
	KindConfig     = "config"
	KindNotFound   = "not_found"
	KindTimeout    = "timeout"
	KindUnknown    = "unknown"
)

// KindOf classifies err. A deadline exceeded anywhere in the chain counts as
// a timeout.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindUnknown
	}
}
