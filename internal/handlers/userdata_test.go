package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/models"
)

func TestGetUserDataNewSession(t *testing.T) {
	t.Parallel()

	handler := NewUserDataHandler(newTestPatchService(newMemStore()), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "GET", "/user-data", "brand-new-session", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool             `json:"success"`
		Data    UserDataResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data.History == nil || len(envelope.Data.History) != 0 {
		t.Errorf("Expected empty history array, got %v", envelope.Data.History)
	}
	if envelope.Data.Usage.Remaining != 10 {
		t.Errorf("Expected full allowance, got %d", envelope.Data.Usage.Remaining)
	}
}

func TestGetUserDataExistingSession(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	now := time.Now()
	st.records["known-session"] = &models.UserRecord{
		History: []models.Interaction{
			{ID: 1, Input: "hi", Response: "Your assignment: breathe."},
		},
		Usage: models.Usage{Count: 4, LastReset: models.UTCDate(now)},
	}
	handler := NewUserDataHandler(newTestPatchService(st), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "GET", "/user-data", "known-session", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var envelope struct {
		Data UserDataResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(envelope.Data.History) != 1 {
		t.Errorf("Expected 1 history item, got %d", len(envelope.Data.History))
	}
	if envelope.Data.Usage.Count != 4 || envelope.Data.Usage.Remaining != 6 {
		t.Errorf("Unexpected usage: %+v", envelope.Data.Usage)
	}
}

func TestGetUserDataRequiresSession(t *testing.T) {
	t.Parallel()

	handler := NewUserDataHandler(newTestPatchService(newMemStore()), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "GET", "/user-data", "", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without session, got %d", w.Code)
	}
}
