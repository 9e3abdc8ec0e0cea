// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

// Package eventlog implements the append-only backup event log.
//
// Entries are written as JSON lines to a day-named file in the log
// directory. Before each write the active file is rotated when it has grown
// past MaxFileSize or when the calendar day changed; at most MaxRotatedFiles
// rotated files are kept.
//
// All file access happens on a single writer goroutine that consumes a
// queue, so concurrent callers never interleave a rotation check with an
// append. Reads (Recent, Stats) and pruning are queued behind pending writes
// on the same goroutine.
//
// Every entry is also mirrored to the process zerolog logger.
package eventlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/models"
)

// ErrClosed is returned by reads issued after Close.
var ErrClosed = errors.New("event log closed")

// Config holds event log settings.
type Config struct {
	Dir             string
	MaxFileSize     int64
	MaxRotatedFiles int
	QueueSize       int
	StatsWindow     int
}

// DefaultConfig returns the default event log configuration.
func DefaultConfig() Config {
	return Config{
		Dir:             "./logs",
		MaxFileSize:     10 * 1024 * 1024,
		MaxRotatedFiles: 30,
		QueueSize:       256,
		StatsWindow:     1000,
	}
}

// op is one unit of work for the writer goroutine: an entry to append or a
// function to run with exclusive access to the log directory.
type op struct {
	entry *models.LogEntry
	fn    func()
}

// Logger is the backup event log.
type Logger struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	queue chan op
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	// Owned by the writer goroutine.
	file    *os.File
	fileDay string
	size    int64
}

// New creates the log directory and starts the writer goroutine.
func New(cfg Config) (*Logger, error) {
	def := DefaultConfig()
	if cfg.Dir == "" {
		cfg.Dir = def.Dir
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.MaxRotatedFiles <= 0 {
		cfg.MaxRotatedFiles = def.MaxRotatedFiles
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = def.StatsWindow
	}

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}

	l := &Logger{
		cfg:    cfg,
		logger: logging.WithComponent("backup-eventlog"),
		now:    time.Now,
		queue:  make(chan op, cfg.QueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Option sets optional fields on a log entry.
type Option func(*models.LogEntry)

// WithTenant scopes the entry to a tenant.
func WithTenant(id, name string) Option {
	return func(e *models.LogEntry) {
		e.TenantID = id
		e.TenantName = name
	}
}

// WithDetails attaches structured details.
func WithDetails(details map[string]interface{}) Option {
	return func(e *models.LogEntry) {
		e.Details = details
	}
}

// WithDuration records how long the logged operation took.
func WithDuration(d time.Duration) Option {
	return func(e *models.LogEntry) {
		e.DurationMS = d.Milliseconds()
	}
}

// WithFile records the snapshot file the entry refers to.
func WithFile(path string, size int64) Option {
	return func(e *models.LogEntry) {
		e.File = path
		e.Size = size
	}
}

// WithError records an error message.
func WithError(err error) Option {
	return func(e *models.LogEntry) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// Log appends an entry. It never fails the caller: after Close the entry is
// only mirrored to the process logger. A nil Logger discards entries.
func (l *Logger) Log(level models.LogLevel, action models.LogAction, message string, opts ...Option) {
	if l == nil {
		return
	}
	entry := &models.LogEntry{
		ID:        uuid.New().String(),
		Timestamp: l.now(),
		Level:     level,
		Action:    action,
		Message:   message,
	}
	for _, opt := range opts {
		opt(entry)
	}

	l.mirror(entry)

	select {
	case l.queue <- op{entry: entry}:
	case <-l.done:
	}
}

// mirror writes the entry to the process zerolog logger.
func (l *Logger) mirror(e *models.LogEntry) {
	var ev *zerolog.Event
	switch e.Level {
	case models.LogError:
		ev = l.logger.Error()
	case models.LogWarn:
		ev = l.logger.Warn()
	default:
		ev = l.logger.Info()
	}
	ev = ev.Str("action", string(e.Action)).Str("event_level", string(e.Level))
	if e.TenantID != "" {
		ev = ev.Str("tenant_id", e.TenantID).Str("tenant_name", e.TenantName)
	}
	if e.DurationMS > 0 {
		ev = ev.Int64("duration_ms", e.DurationMS)
	}
	if e.File != "" {
		ev = ev.Str("file", e.File).Int64("size", e.Size)
	}
	if e.Error != "" {
		ev = ev.Str("error", e.Error)
	}
	ev.Msg(e.Message)
}

// exec runs fn on the writer goroutine after every previously queued entry
// has been written.
func (l *Logger) exec(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.queue <- op{fn: wrapped}:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// The writer has exited; fn either ran during the final drain or never will.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until every entry logged before the call has been written.
func (l *Logger) Flush(ctx context.Context) error {
	return l.exec(ctx, func() {})
}

// Close drains pending entries, closes the active file and stops the writer.
func (l *Logger) Close() error {
	l.once.Do(func() {
		close(l.quit)
	})
	<-l.done
	return nil
}

func (l *Logger) run() {
	defer close(l.done)
	defer l.closeFile()

	for {
		select {
		case o := <-l.queue:
			l.handle(o)
		case <-l.quit:
			for {
				select {
				case o := <-l.queue:
					l.handle(o)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) handle(o op) {
	if o.fn != nil {
		o.fn()
		return
	}
	if err := l.write(o.entry); err != nil {
		l.logger.Error().Err(err).Str("action", string(o.entry.Action)).Msg("Failed to write backup event log entry")
	}
}

// write appends one JSON line, rotating first when needed.
func (l *Logger) write(e *models.LogEntry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	line = append(line, '\n')

	now := l.now()
	if err := l.prepare(now); err != nil {
		return err
	}

	n, err := l.file.Write(line)
	l.size += int64(n)
	if err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

// prepare makes sure the active file for now's day is open and below the
// size threshold.
func (l *Logger) prepare(now time.Time) error {
	today := now.Format(dateLayout)

	if l.file != nil && (l.size >= l.cfg.MaxFileSize || l.fileDay != today) {
		l.closeFile()
		if err := l.rotate(l.fileDay, now); err != nil {
			return err
		}
	}
	if l.file != nil {
		return nil
	}

	// First write since start: rotate active files left over from earlier
	// days, then reopen today's.
	files, err := listFiles(l.cfg.Dir)
	if err != nil {
		return fmt.Errorf("list event log files: %w", err)
	}
	for _, f := range files {
		if f.active() && f.day != today {
			if err := l.rotate(f.day, now); err != nil {
				return err
			}
		}
	}

	path := filepath.Join(l.cfg.Dir, activeName(today))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open event log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat event log file: %w", err)
	}

	l.file = f
	l.fileDay = today
	l.size = info.Size()

	if l.size >= l.cfg.MaxFileSize {
		l.closeFile()
		if err := l.rotate(today, now); err != nil {
			return err
		}
		return l.prepare(now)
	}
	return nil
}

// rotate renames the active file of day with a rotation timestamp suffix and
// enforces the rotated file cap.
func (l *Logger) rotate(day string, at time.Time) error {
	from := filepath.Join(l.cfg.Dir, activeName(day))
	to := filepath.Join(l.cfg.Dir, rotatedName(day, at))
	for i := 1; fileExists(to); i++ {
		to = filepath.Join(l.cfg.Dir, rotatedName(day, at.Add(time.Duration(i)*time.Millisecond)))
	}
	if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate event log file: %w", err)
	}

	files, err := listFiles(l.cfg.Dir)
	if err != nil {
		return fmt.Errorf("list event log files: %w", err)
	}
	kept := 0
	for _, f := range files {
		if f.active() {
			continue
		}
		kept++
		if kept > l.cfg.MaxRotatedFiles {
			if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
				l.logger.Warn().Err(err).Str("file", f.path).Msg("Failed to remove old event log file")
			}
		}
	}
	return nil
}

func (l *Logger) closeFile() {
	if l.file == nil {
		return
	}
	if err := l.file.Close(); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to close event log file")
	}
	l.file = nil
	l.size = 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Recent returns up to k of the most recent entries, newest first.
func (l *Logger) Recent(ctx context.Context, k int) ([]models.LogEntry, error) {
	if k <= 0 {
		return nil, nil
	}
	var (
		out     []models.LogEntry
		readErr error
	)
	err := l.exec(ctx, func() {
		out, readErr = l.readRecent(k)
	})
	if err != nil {
		return nil, err
	}
	return out, readErr
}

// readRecent scans the active file then older files until k entries are
// collected. Unparseable lines are skipped.
func (l *Logger) readRecent(k int) ([]models.LogEntry, error) {
	files, err := listFiles(l.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("list event log files: %w", err)
	}

	out := make([]models.LogEntry, 0, k)
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read event log file: %w", err)
		}

		lines := splitLines(data)
		for i := len(lines) - 1; i >= 0; i-- {
			var e models.LogEntry
			if err := json.Unmarshal(lines[i], &e); err != nil {
				continue
			}
			out = append(out, e)
			if len(out) == k {
				return out, nil
			}
		}
	}
	return out, nil
}

// splitLines returns the non-blank lines of data. Lines have no length
// limit, so an oversized entry cannot hide the entries after it.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Prune deletes rotated log files last written before cutoff and returns how
// many were removed. The active file is never pruned.
func (l *Logger) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	var (
		removed  int
		pruneErr error
	)
	err := l.exec(ctx, func() {
		files, err := listFiles(l.cfg.Dir)
		if err != nil {
			pruneErr = fmt.Errorf("list event log files: %w", err)
			return
		}
		for _, f := range files {
			if f.active() && f.day == l.fileDay {
				continue
			}
			if !f.newestAt().Before(cutoff) {
				continue
			}
			if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
				pruneErr = fmt.Errorf("remove event log file: %w", err)
				return
			}
			removed++
		}
	})
	if err != nil {
		return 0, err
	}
	return removed, pruneErr
}
