// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/models"
	"github.com/tomtom215/snapvault/internal/notify"
	"github.com/tomtom215/snapvault/internal/validation"
)

// MockBackupService is a configurable BackupService.
type MockBackupService struct {
	mu sync.Mutex

	ForceResult *backup.Result
	ForceErr    error
	Storage     *backup.StorageStats
	Failures    *backup.FailureStats
	Logs        []models.LogEntry
	LogStats    *models.LogStats
	Validations []models.ValidationRecord
	Recipients  []models.NotificationRecipient
	Email       models.EmailConfig
	Err         error
	UpdateErr   error

	forced     []string
	lastLimit  int
	added      []models.NotificationRecipient
	removed    []string
	lastUpdate *models.EmailConfig
}

func (m *MockBackupService) ForceBackup(_ context.Context, tenantID string) (*backup.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced = append(m.forced, tenantID)
	return m.ForceResult, m.ForceErr
}

func (m *MockBackupService) GetStorageStats(context.Context) (*backup.StorageStats, error) {
	return m.Storage, m.Err
}

func (m *MockBackupService) GetFailureStats(context.Context) (*backup.FailureStats, error) {
	return m.Failures, m.Err
}

func (m *MockBackupService) GetRecentLogs(_ context.Context, limit int) ([]models.LogEntry, error) {
	m.mu.Lock()
	m.lastLimit = limit
	m.mu.Unlock()
	return m.Logs, m.Err
}

func (m *MockBackupService) GetLogStats(context.Context) (*models.LogStats, error) {
	return m.LogStats, m.Err
}

func (m *MockBackupService) ListValidations(_ context.Context, limit int) ([]models.ValidationRecord, error) {
	m.mu.Lock()
	m.lastLimit = limit
	m.mu.Unlock()
	return m.Validations, m.Err
}

func (m *MockBackupService) AddRecipient(_ context.Context, r models.NotificationRecipient) (*models.NotificationRecipient, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = "rcpt-1"
	m.added = append(m.added, r)
	return &r, nil
}

func (m *MockBackupService) RemoveRecipient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	return m.Err
}

func (m *MockBackupService) ListRecipients(context.Context) ([]models.NotificationRecipient, error) {
	return m.Recipients, m.Err
}

func (m *MockBackupService) GetEmailConfig(context.Context) (models.EmailConfig, error) {
	return m.Email.Redacted(), m.Err
}

func (m *MockBackupService) UpdateEmailConfig(_ context.Context, cfg models.EmailConfig) (models.EmailConfig, error) {
	m.mu.Lock()
	m.lastUpdate = &cfg
	m.mu.Unlock()
	if m.UpdateErr != nil && !errors.Is(m.UpdateErr, backup.ErrTransport) {
		return models.EmailConfig{}, m.UpdateErr
	}
	return cfg.Redacted(), m.UpdateErr
}

// MockNotifications reports a fixed transport status.
type MockNotifications struct {
	status notify.Status
}

func (m *MockNotifications) Status() notify.Status { return m.status }

// MockPinger fails when err is set.
type MockPinger struct {
	err error
}

func (m *MockPinger) Ping(context.Context) error { return m.err }

// MockScheduler reports a fixed running state.
type MockScheduler struct {
	running bool
}

func (m *MockScheduler) Running() bool { return m.running }

func setupTestRouter(t *testing.T, svc *MockBackupService, deps HandlerDeps) http.Handler {
	t.Helper()
	deps.Backups = svc
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return NewRouter(NewHandler(deps), cfg).Setup()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestHandleForceBackup(t *testing.T) {
	tests := []struct {
		name       string
		result     *backup.Result
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			result:     &backup.Result{TenantID: "7", Status: backup.StatusSuccess, RecordCount: 12},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown tenant",
			err:        errors.Mark(errors.New("tenant 7 not found"), backup.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "run failed validation",
			result:     &backup.Result{TenantID: "7", Status: backup.StatusError, ErrorKind: backup.KindValidation, Message: "missing critical table"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "BACKUP_FAILED",
		},
		{
			name:       "run timed out",
			result:     &backup.Result{TenantID: "7", Status: backup.StatusError, ErrorKind: backup.KindTimeout, Message: "deadline exceeded"},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "BACKUP_FAILED",
		},
		{
			name:       "internal error hides cause",
			err:        errors.New("pool exhausted"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockBackupService{ForceResult: tt.result, ForceErr: tt.err}
			router := setupTestRouter(t, svc, HandlerDeps{})

			rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/backups/tenants/7/run", "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(svc.forced) != 1 || svc.forced[0] != "7" {
				t.Errorf("forced = %v, want [7]", svc.forced)
			}
			if tt.wantCode == "" {
				if resp.Status != "success" {
					t.Errorf("Status = %q, want success", resp.Status)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("Error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			if tt.wantCode == "INTERNAL_ERROR" && strings.Contains(resp.Error.Message, "pool exhausted") {
				t.Error("internal error message leaked to client")
			}
		})
	}
}

func TestHandleForceBackup_InvalidTenantID(t *testing.T) {
	svc := &MockBackupService{}
	router := setupTestRouter(t, svc, HandlerDeps{})

	rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/backups/tenants/"+strings.Repeat("9", 65)+"/run", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Error = %+v", resp.Error)
	}
	if len(svc.forced) != 0 {
		t.Error("service called with invalid tenant id")
	}
}

func TestHandleForceBackup_MethodNotAllowed(t *testing.T) {
	router := setupTestRouter(t, &MockBackupService{}, HandlerDeps{})
	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/backups/tenants/7/run", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestListEndpoints_Limit(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
		wantLimit  int
	}{
		{"/api/v1/backups/logs", http.StatusOK, defaultListLimit},
		{"/api/v1/backups/logs?limit=5", http.StatusOK, 5},
		{"/api/v1/backups/logs?limit=abc", http.StatusOK, defaultListLimit},
		{"/api/v1/backups/logs?limit=0", http.StatusBadRequest, 0},
		{"/api/v1/backups/validations?limit=5000", http.StatusBadRequest, 0},
		{"/api/v1/backups/validations?limit=20", http.StatusOK, 20},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			svc := &MockBackupService{Logs: []models.LogEntry{}, Validations: []models.ValidationRecord{}}
			router := setupTestRouter(t, svc, HandlerDeps{})

			rec, _ := doRequest(t, router, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if svc.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", svc.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestStatsEndpoints(t *testing.T) {
	svc := &MockBackupService{
		Storage:  &backup.StorageStats{RootDir: "/var/backups", FileCount: 3, TotalBytes: 4096},
		Failures: &backup.FailureStats{MaxRetries: 5, Pending: 1},
		LogStats: &models.LogStats{Window: 100, SuccessfulBackups: 4},
	}
	router := setupTestRouter(t, svc, HandlerDeps{})

	for _, path := range []string{"/api/v1/backups/storage", "/api/v1/backups/failures", "/api/v1/backups/logs/stats"} {
		rec, resp := doRequest(t, router, http.MethodGet, path, "")
		if rec.Code != http.StatusOK || resp.Status != "success" {
			t.Errorf("%s: status = %d/%s", path, rec.Code, resp.Status)
		}
		if resp.Data == nil {
			t.Errorf("%s: data is nil", path)
		}
	}

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/backups/storage", "")
	if !strings.Contains(rec.Body.String(), `"file_count":3`) {
		t.Errorf("storage body = %s", rec.Body.String())
	}
}

func TestStatsEndpoints_IOError(t *testing.T) {
	svc := &MockBackupService{Err: errors.Mark(errors.New("badger closed"), backup.ErrIO)}
	router := setupTestRouter(t, svc, HandlerDeps{})

	rec, resp := doRequest(t, router, http.MethodGet, "/api/v1/backups/failures", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Error == nil || resp.Error.Message != "Failed to get failure stats" {
		t.Errorf("Error = %+v", resp.Error)
	}
}

func TestHandleAddRecipient(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantActive bool
	}{
		{
			name:       "defaults to active",
			body:       `{"email":"ops@example.com","name":"Ops","notify_on_failure":true}`,
			wantStatus: http.StatusCreated,
			wantActive: true,
		},
		{
			name:       "explicitly inactive",
			body:       `{"email":"ops@example.com","active":false}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid email",
			body:       `{"email":"not-an-email"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"email":"ops@example.com","role":"admin"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "service validation error",
			body:       `{"email":"ops@example.com"}`,
			serviceErr: errors.Mark(validation.ValidateStruct(&struct {
				Email string `validate:"required"`
			}{}), backup.ErrConfig),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockBackupService{Err: tt.serviceErr}
			router := setupTestRouter(t, svc, HandlerDeps{})

			rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/notifications/recipients", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				if resp.Error == nil {
					t.Error("Error is nil")
				}
				return
			}
			if len(svc.added) != 1 {
				t.Fatalf("added = %d, want 1", len(svc.added))
			}
			if svc.added[0].Active != tt.wantActive {
				t.Errorf("Active = %v, want %v", svc.added[0].Active, tt.wantActive)
			}
		})
	}
}

func TestHandleRemoveRecipient(t *testing.T) {
	svc := &MockBackupService{}
	router := setupTestRouter(t, svc, HandlerDeps{})

	rec, _ := doRequest(t, router, http.MethodDelete, "/api/v1/notifications/recipients/abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(svc.removed) != 1 || svc.removed[0] != "abc" {
		t.Errorf("removed = %v", svc.removed)
	}

	svc.Err = errors.Mark(errors.New("recipient abc not found"), backup.ErrNotFound)
	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/notifications/recipients/abc", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleEmailConfig(t *testing.T) {
	svc := &MockBackupService{Email: models.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, Password: "s3cret"}}
	router := setupTestRouter(t, svc, HandlerDeps{})

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/notifications/email", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "s3cret") {
		t.Error("password exposed by GET")
	}

	body := `{"enabled":true,"host":"smtp.example.com","port":465,"secure":true,"password":"********","from_email":"backup@example.com"}`
	rec, resp := doRequest(t, router, http.MethodPut, "/api/v1/notifications/email", body)
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("PUT status = %d/%s", rec.Code, resp.Status)
	}
	if svc.lastUpdate == nil || svc.lastUpdate.Port != 465 || !svc.lastUpdate.Secure {
		t.Errorf("update = %+v", svc.lastUpdate)
	}
}

func TestHandleUpdateEmailConfig_ProbeFailureStillStored(t *testing.T) {
	svc := &MockBackupService{UpdateErr: errors.Mark(errors.New("dial tcp: connection refused"), backup.ErrTransport)}
	router := setupTestRouter(t, svc, HandlerDeps{})

	body := `{"enabled":true,"host":"smtp.example.com","port":587,"from_email":"backup@example.com"}`
	rec, _ := doRequest(t, router, http.MethodPut, "/api/v1/notifications/email", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"probe_error":"dial tcp: connection refused`) {
		t.Errorf("body = %s, want probe_error", rec.Body.String())
	}
}

func TestHandleUpdateEmailConfig_ConfigError(t *testing.T) {
	svc := &MockBackupService{UpdateErr: errors.Mark(errors.New("from address required"), backup.ErrConfig)}
	router := setupTestRouter(t, svc, HandlerDeps{})

	rec, resp := doRequest(t, router, http.MethodPut, "/api/v1/notifications/email", `{"enabled":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "INVALID_CONFIG" {
		t.Errorf("Error = %+v", resp.Error)
	}
}

func TestHandleNotificationStatus(t *testing.T) {
	notifications := &MockNotifications{status: notify.Status{Enabled: true, Host: "smtp.example.com", Breaker: "closed"}}
	router := setupTestRouter(t, &MockBackupService{}, HandlerDeps{Notifications: notifications})

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/notifications/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"breaker":"closed"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
