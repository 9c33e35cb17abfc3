package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

type failingPingStore struct {
	memStore
}

func (f *failingPingStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func (f *failingPingStore) Get(ctx context.Context, sessionID string) (*models.UserRecord, error) {
	return models.NewUserRecord(time.Now()), nil
}

func TestHealthCheckBasic(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(newMemStore())

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	checker.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy status, got %s", resp.Status)
	}
	if resp.Checks != nil {
		t.Error("Basic mode must not run extended checks")
	}
}

func TestHealthCheckExtended(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(newMemStore())

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	w := httptest.NewRecorder()
	checker.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Checks["redis"] != "healthy" {
		t.Errorf("Expected healthy redis check, got %q", resp.Checks["redis"])
	}
}

func TestHealthCheckExtendedUnhealthy(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(&failingPingStore{})

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	w := httptest.NewRecorder()
	checker.HealthCheck(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Expected unhealthy status, got %s", resp.Status)
	}
}
