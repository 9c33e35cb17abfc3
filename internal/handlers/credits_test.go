package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/config"
)

func testPacks() map[string]config.CreditPack {
	return map[string]config.CreditPack{
		"starter": {Name: "starter", Credits: 5, ExpiryHours: 24, PriceUSD: 0.99},
	}
}

func TestAddCreditsFromPack(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	handler := NewCreditsHandler(newTestPatchService(st), testPacks(), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "POST", "/credits", "test-session-1", []byte(`{"pack":"starter"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data CreditsResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data.Granted != 5 || envelope.Data.ExtraCredits != 5 {
		t.Errorf("Expected 5 credits granted, got %+v", envelope.Data)
	}

	if st.records["test-session-1"].ExtraCredits != 5 {
		t.Errorf("Expected 5 credits persisted, got %d", st.records["test-session-1"].ExtraCredits)
	}
}

func TestAddCreditsExplicitAmount(t *testing.T) {
	t.Parallel()

	handler := NewCreditsHandler(newTestPatchService(newMemStore()), testPacks(), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "POST", "/credits", "test-session-1", []byte(`{"amount":3,"expiryHours":48}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAddCreditsRejectsBadRequests(t *testing.T) {
	t.Parallel()

	handler := NewCreditsHandler(newTestPatchService(newMemStore()), testPacks(), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown pack", body: `{"pack":"mega"}`},
		{name: "zero amount", body: `{"amount":0,"expiryHours":24}`},
		{name: "negative amount", body: `{"amount":-5,"expiryHours":24}`},
		{name: "amount over ceiling", body: `{"amount":101,"expiryHours":24}`},
		{name: "zero expiry", body: `{"amount":5,"expiryHours":0}`},
		{name: "expiry over ceiling", body: `{"amount":5,"expiryHours":2000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := doRequest(t, r, "POST", "/credits", "test-session-1", []byte(tt.body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestListPacks(t *testing.T) {
	t.Parallel()

	handler := NewCreditsHandler(newTestPatchService(newMemStore()), testPacks(), zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := doRequest(t, r, "GET", "/credits/packs", "test-session-1", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var envelope struct {
		Data struct {
			Packs []PackPayload `json:"packs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(envelope.Data.Packs) != 1 || envelope.Data.Packs[0].Name != "starter" {
		t.Errorf("Expected starter pack listed, got %+v", envelope.Data.Packs)
	}
}
