// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package eventlog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File naming:
//
//	backup-2026-10-17.log                      active file for a day
//	backup-2026-10-17.20261017T235959.123.log  rotated file (rotation time suffix)
const (
	filePrefix     = "backup-"
	fileExt        = ".log"
	dateLayout     = "2006-01-02"
	rotationLayout = "20060102T150405.000"
)

func activeName(day string) string {
	return filePrefix + day + fileExt
}

func rotatedName(day string, at time.Time) string {
	return filePrefix + day + "." + at.Format(rotationLayout) + fileExt
}

// logFile describes one file in the log directory.
type logFile struct {
	path      string
	day       string
	rotatedAt time.Time // zero for active files
	modTime   time.Time
}

func (f logFile) active() bool {
	return f.rotatedAt.IsZero()
}

// newestAt bounds the newest entry a file can hold. An active file may be
// appended to until the end of its day; a rotated file stopped at rotation.
func (f logFile) newestAt() time.Time {
	if !f.active() {
		return f.rotatedAt
	}
	d, err := time.ParseInLocation(dateLayout, f.day, time.Local)
	if err != nil {
		return f.modTime
	}
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// parseName splits a log file name into its day and rotation time.
func parseName(name string) (day string, rotatedAt time.Time, ok bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
		return "", time.Time{}, false
	}
	core := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
	if len(core) < len(dateLayout) {
		return "", time.Time{}, false
	}
	day = core[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, day); err != nil {
		return "", time.Time{}, false
	}
	rest := core[len(dateLayout):]
	if rest == "" {
		return day, time.Time{}, true
	}
	if !strings.HasPrefix(rest, ".") {
		return "", time.Time{}, false
	}
	at, err := time.ParseInLocation(rotationLayout, rest[1:], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	return day, at, true
}

// listFiles returns the log files in dir, newest first.
func listFiles(dir string) ([]logFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []logFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		day, at, ok := parseName(e.Name())
		if !ok {
			continue
		}
		f := logFile{path: filepath.Join(dir, e.Name()), day: day, rotatedAt: at}
		if info, err := e.Info(); err == nil {
			f.modTime = info.ModTime()
		}
		files = append(files, f)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].newestAt().After(files[j].newestAt())
	})
	return files, nil
}
