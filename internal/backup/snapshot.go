// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
snapshot.go - Snapshot File Naming and Writing

Snapshot files live in one directory per tenant:

	<root>/<sanitized>/backup_<sanitized>_<stamp>.json

where <sanitized> is the tenant name with every character outside
[A-Za-z0-9_-] replaced by "_", and <stamp> is the UTC creation time in ISO
8601 with ":" and "." replaced by "-" (2026-10-17T02-00-00-000Z).

Writes go to a temporary file in the same directory which is renamed into
place once fully synced, so a crashed run never leaves a truncated snapshot
under a final name.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"github.com/tomtom215/snapvault/internal/models"
)

const (
	filePrefix = "backup_"
	fileExt    = ".json"

	// stampLayout is parseable by time.Parse; the "." before the
	// milliseconds is replaced by "-" in file names.
	stampLayout = "2006-01-02T15-04-05.000Z"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	fileStampRe     = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z)\.json$`)
)

// SanitizeName makes a tenant name safe for use as a path component.
func SanitizeName(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	if s == "" {
		return "_"
	}
	return s
}

// TenantDir returns the snapshot directory of a tenant.
func TenantDir(root, tenantName string) string {
	return filepath.Join(root, SanitizeName(tenantName))
}

// SnapshotFileName returns the file name of a snapshot created at t.
func SnapshotFileName(tenantName string, t time.Time) string {
	stamp := t.UTC().Format(stampLayout)
	stamp = strings.Replace(stamp, ".", "-", 1)
	return filePrefix + SanitizeName(tenantName) + "_" + stamp + fileExt
}

// ParseSnapshotTime extracts the creation time embedded in a snapshot file
// name. ok is false when the name carries no parseable timestamp.
func ParseSnapshotTime(name string) (t time.Time, ok bool) {
	m := fileStampRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	stamp := m[1]
	// 2026-10-17T02-00-00-000Z -> 2026-10-17T02-00-00.000Z
	stamp = stamp[:19] + "." + stamp[20:]
	t, err := time.Parse(stampLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// writeSnapshot writes doc as pretty-printed JSON to path via a temporary
// file and returns the final size. Errors are marked ErrIO.
func writeSnapshot(path string, doc *models.SnapshotDocument) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "create snapshot directory"), ErrIO)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "create temporary snapshot"), ErrIO)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()        //nolint:errcheck // Best effort cleanup
			os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	bw := bufio.NewWriterSize(tmp, 256*1024)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "encode snapshot"), ErrIO)
	}
	if err := bw.Flush(); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "write snapshot"), ErrIO)
	}
	if err := tmp.Sync(); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "sync snapshot"), ErrIO)
	}
	info, err := tmp.Stat()
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "stat snapshot"), ErrIO)
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "close snapshot"), ErrIO)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "rename snapshot"), ErrIO)
	}
	committed = true

	return info.Size(), nil
}

// countRecords returns the total number of rows in doc.
func countRecords(data map[string][]map[string]interface{}) int {
	total := 0
	for _, rows := range data {
		total += len(rows)
	}
	return total
}
