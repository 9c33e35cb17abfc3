package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/config"
	logpkg "github.com/realitypatch/realitypatch/internal/logger"
	"github.com/realitypatch/realitypatch/internal/request"
	"github.com/realitypatch/realitypatch/internal/services/patch"
	"github.com/realitypatch/realitypatch/internal/store"
)

// Hard ceilings for ad-hoc grants, independent of pack configuration.
const (
	maxGrantCredits     = 100
	maxGrantExpiryHours = 24 * 30
)

// CreditsHandler grants bonus credits, either from a configured pack or an
// explicit amount.
type CreditsHandler struct {
	service *patch.Service
	packs   map[string]config.CreditPack
	logger  *zap.Logger
}

// NewCreditsHandler creates a new credits handler.
func NewCreditsHandler(service *patch.Service, packs map[string]config.CreditPack, logger *zap.Logger) *CreditsHandler {
	return &CreditsHandler{service: service, packs: packs, logger: logger}
}

// RegisterRoutes registers credit routes.
func (h *CreditsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/credits", h.AddCredits).Methods("POST")
	r.HandleFunc("/credits/packs", h.ListPacks).Methods("GET")
}

// CreditsRequest selects either a pack by name or an explicit grant.
type CreditsRequest struct {
	Pack        string `json:"pack"`
	Amount      int    `json:"amount"`
	ExpiryHours int    `json:"expiryHours"`
}

// CreditsResponse reports the verified post-grant balance.
type CreditsResponse struct {
	SessionID    string    `json:"sessionId"`
	Granted      int       `json:"granted"`
	ExtraCredits int       `json:"extraCredits"`
	Expiry       time.Time `json:"creditsExpiry"`
}

// AddCredits handles POST /credits. The response balance comes from a
// post-grant verification read, so a 200 means the credits are really there.
func (h *CreditsHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	sessionID := request.SessionIDFromContext(r.Context())
	if sessionID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Session ID required")
		return
	}

	var req CreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	amount, expiryHours := req.Amount, req.ExpiryHours
	if req.Pack != "" {
		pack, ok := h.packs[req.Pack]
		if !ok {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Unknown credit pack")
			return
		}
		amount, expiryHours = pack.Credits, pack.ExpiryHours
	}

	if amount <= 0 || amount > maxGrantCredits {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Credit amount out of range")
		return
	}
	if expiryHours <= 0 || expiryHours > maxGrantExpiryHours {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Credit expiry out of range")
		return
	}

	result, err := h.service.GrantCredits(r.Context(), sessionID, amount, expiryHours)
	if err != nil {
		h.logger.Error("credit_grant_failed",
			zap.String("session_id", logpkg.SanitizeSessionID(sessionID)),
			zap.Int("amount", amount),
			zap.Error(err),
		)
		if errors.Is(err, store.ErrVerifyFailed) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Credit grant could not be verified. Please retry.")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to add credits")
		return
	}

	respondJSON(w, http.StatusOK, CreditsResponse{
		SessionID:    sessionID,
		Granted:      amount,
		ExtraCredits: result.Total,
		Expiry:       result.Expiry,
	})
}

// PackPayload is one purchasable pack as shown to clients.
type PackPayload struct {
	Name        string  `json:"name"`
	Credits     int     `json:"credits"`
	ExpiryHours int     `json:"expiryHours"`
	PriceUSD    float64 `json:"priceUsd"`
}

// ListPacks handles GET /credits/packs.
func (h *CreditsHandler) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs := make([]PackPayload, 0, len(h.packs))
	for name, p := range h.packs {
		packs = append(packs, PackPayload{
			Name:        name,
			Credits:     p.Credits,
			ExpiryHours: p.ExpiryHours,
			PriceUSD:    p.PriceUSD,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"packs": packs})
}
