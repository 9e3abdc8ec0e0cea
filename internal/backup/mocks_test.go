// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package backup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tomtom215/snapvault/internal/eventlog"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/store"
)

// MockDataSource serves canned rows per tenant and table.
type MockDataSource struct {
	mu      sync.Mutex
	rows    map[string]map[string][]map[string]interface{}
	missing map[string]bool
	err     error
	delay   time.Duration
	calls   int
}

func NewMockDataSource() *MockDataSource {
	return &MockDataSource{
		rows:    make(map[string]map[string][]map[string]interface{}),
		missing: make(map[string]bool),
	}
}

// AddTenant seeds the tenant row and one row in each other critical table.
func (m *MockDataSource) AddTenant(tenantID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[tenantID] = map[string][]map[string]interface{}{
		"empresas":  {{"id": tenantID, "nombre": name}},
		"clientes":  {{"id": 1, "empresa_id": tenantID, "nombre": "Cliente"}},
		"productos": {{"id": 1, "empresa_id": tenantID, "nombre": "Producto"}, {"id": 2, "empresa_id": tenantID, "nombre": "Otro"}},
		"ventas":    {{"id": 1, "empresa_id": tenantID, "total": 150.5}},
	}
}

func (m *MockDataSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockDataSource) SetMissing(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing[table] = true
}

func (m *MockDataSource) SetRows(tenantID, table string, rows []map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[tenantID][table] = rows
}

func (m *MockDataSource) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *MockDataSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockDataSource) FetchTable(ctx context.Context, tenantID, table string) ([]map[string]interface{}, error) {
	m.mu.Lock()
	m.calls++
	delay, err, missing := m.delay, m.err, m.missing[table]
	rows := m.rows[tenantID][table]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, errors.Wrapf(ErrTableNotFound, "relation %q", table)
	}
	return rows, nil
}

// MockTenantStore keeps tenant configurations in memory.
type MockTenantStore struct {
	mu        sync.Mutex
	configs   map[string]*models.TenantBackupConfig
	order     []string
	updateErr error
	updates   int
}

func NewMockTenantStore() *MockTenantStore {
	return &MockTenantStore{configs: make(map[string]*models.TenantBackupConfig)}
}

func (m *MockTenantStore) Add(cfg models.TenantBackupConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[cfg.TenantID]; !ok {
		m.order = append(m.order, cfg.TenantID)
	}
	c := cfg
	m.configs[cfg.TenantID] = &c
}

func (m *MockTenantStore) Remove(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, tenantID)
}

func (m *MockTenantStore) Get(tenantID string) models.TenantBackupConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.configs[tenantID]
}

func (m *MockTenantStore) ListConfigs(_ context.Context) ([]models.TenantBackupConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TenantBackupConfig, 0, len(m.order))
	for _, id := range m.order {
		if cfg, ok := m.configs[id]; ok {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (m *MockTenantStore) GetConfig(_ context.Context, tenantID string) (*models.TenantBackupConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[tenantID]
	if !ok {
		return nil, errors.Mark(errors.Newf("tenant %s not found", tenantID), ErrNotFound)
	}
	c := *cfg
	return &c, nil
}

func (m *MockTenantStore) UpdateLastBackup(_ context.Context, tenantID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cfg, ok := m.configs[tenantID]
	if !ok {
		return errors.Mark(errors.Newf("tenant %s not found", tenantID), ErrNotFound)
	}
	t := at
	cfg.LastBackup = &t
	m.updates++
	return nil
}

// notification is one call recorded by MockNotifier.
type notification struct {
	Kind     string
	TenantID string
	Attempt  int
	Message  string
}

// MockNotifier records notifications.
type MockNotifier struct {
	mu           sync.Mutex
	sent         []notification
	configured   []models.EmailConfig
	configureErr error
}

func (m *MockNotifier) record(n notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *MockNotifier) NotifySuccess(_ context.Context, tenantID, _ string, _ int, _ int64, _ time.Duration) {
	m.record(notification{Kind: "success", TenantID: tenantID})
}

func (m *MockNotifier) NotifyFailure(_ context.Context, tenantID, _, errorMessage string, attempt int) {
	m.record(notification{Kind: "failure", TenantID: tenantID, Attempt: attempt, Message: errorMessage})
}

func (m *MockNotifier) NotifyRetrySuccess(_ context.Context, tenantID, _ string, attempt int) {
	m.record(notification{Kind: "recovered", TenantID: tenantID, Attempt: attempt})
}

func (m *MockNotifier) Configure(_ context.Context, cfg models.EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = append(m.configured, cfg)
	return m.configureErr
}

func (m *MockNotifier) Sent() []notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification(nil), m.sent...)
}

func (m *MockNotifier) Count(kind string) int {
	n := 0
	for _, s := range m.Sent() {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// MockMirror records uploads.
type MockMirror struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (m *MockMirror) Upload(_ context.Context, _ string, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.uploads = append(m.uploads, path)
	return nil
}

// testClock is a settable clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testEnv is a fully wired manager over fakes, an in-memory store and a
// temporary backup tree.
type testEnv struct {
	cfg      Config
	source   *MockDataSource
	tenants  *MockTenantStore
	notifier *MockNotifier
	mirror   *MockMirror
	store    *store.Store
	events   *eventlog.Logger
	clock    *testClock
	manager  *Manager
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RootDir = t.TempDir()
	cfg.RunTimeout = 5 * time.Second
	cfg.TenantPause = 0
	cfg.Retry.Pause = 0
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig(t))
}

func newTestEnvWithConfig(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	st, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	events, err := eventlog.New(eventlog.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("eventlog.New() error = %v", err)
	}
	t.Cleanup(func() { events.Close() })

	env := &testEnv{
		cfg:      cfg,
		source:   NewMockDataSource(),
		tenants:  NewMockTenantStore(),
		notifier: &MockNotifier{},
		mirror:   &MockMirror{},
		store:    st,
		events:   events,
		clock:    &testClock{t: time.Date(2026, 10, 17, 2, 0, 0, 0, time.Local)},
	}
	env.manager = NewManager(cfg, Deps{
		Source:   env.source,
		Tenants:  env.tenants,
		Store:    st,
		Events:   events,
		Notifier: env.notifier,
		Mirror:   env.mirror,
	})
	env.manager.executor.now = env.clock.Now
	env.manager.retries.now = env.clock.Now
	env.manager.cleaner.now = env.clock.Now
	env.manager.validator.now = env.clock.Now
	return env
}

// addTenant registers a tenant with local backups kept and data seeded.
func (e *testEnv) addTenant(id, name string, mutate func(*models.TenantBackupConfig)) models.TenantBackupConfig {
	cfg := models.TenantBackupConfig{
		TenantID:          id,
		TenantName:        name,
		AutoBackupEnabled: true,
		Frequency:         models.FrequencyDaily,
		BackupTime:        "02:00",
		KeepLocalBackup:   true,
		MaxBackups:        7,
		RetentionDays:     30,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e.tenants.Add(cfg)
	e.source.AddTenant(id, name)
	return cfg
}

// logEntries flushes the event log and returns the newest entries.
func (e *testEnv) logEntries(t *testing.T) []models.LogEntry {
	t.Helper()
	ctx := context.Background()
	if err := e.events.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	entries, err := e.events.Recent(ctx, 1000)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	return entries
}

func countAction(entries []models.LogEntry, action models.LogAction) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
