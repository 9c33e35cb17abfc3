package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/services/patch"
)

func TestMigrateData(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	handler := NewMigrateHandler(newTestPatchService(st), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	body := []byte(`{
		"history": [
			{"id": 1, "input": "old", "response": "old response", "timestamp": "2025-01-05T10:00:00Z"}
		],
		"extraCredits": 0
	}`)
	w := doRequest(t, r, "POST", "/migrate-data", "legacy-session", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data patch.MigrationSummary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data.HistoryItems != 1 {
		t.Errorf("Expected 1 history item migrated, got %d", envelope.Data.HistoryItems)
	}
	if len(st.records["legacy-session"].History) != 1 {
		t.Error("Expected migrated history persisted")
	}
}

func TestMigrateDataRequiresSession(t *testing.T) {
	t.Parallel()

	handler := NewMigrateHandler(newTestPatchService(newMemStore()), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "POST", "/migrate-data", "", []byte(`{}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without session, got %d", w.Code)
	}
}

func TestMigrateDataRejectsOversizedHistory(t *testing.T) {
	t.Parallel()

	handler := NewMigrateHandler(newTestPatchService(newMemStore()), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	oversized := struct {
		History []map[string]any `json:"history"`
	}{}
	for i := 0; i <= maxMigrationHistoryItems; i++ {
		oversized.History = append(oversized.History, map[string]any{"id": i, "input": "x", "response": "y"})
	}
	body, _ := json.Marshal(oversized)

	w := doRequest(t, r, "POST", "/migrate-data", "legacy-session", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for oversized history, got %d", w.Code)
	}
}
