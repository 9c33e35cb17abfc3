package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/realitypatch/realitypatch/internal/logger"
	"github.com/realitypatch/realitypatch/internal/request"
	"github.com/realitypatch/realitypatch/internal/services/patch"
	"github.com/realitypatch/realitypatch/internal/store"
)

// maxMigrationHistoryItems caps how many legacy interactions a single
// migration request may carry.
const maxMigrationHistoryItems = 200

// MigrateHandler accepts one-shot legacy localStorage payloads.
type MigrateHandler struct {
	service *patch.Service
	logger  *zap.Logger
}

// NewMigrateHandler creates a new migration handler.
func NewMigrateHandler(service *patch.Service, logger *zap.Logger) *MigrateHandler {
	return &MigrateHandler{service: service, logger: logger}
}

// RegisterRoutes registers migration routes.
func (h *MigrateHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/migrate-data", h.MigrateData).Methods("POST")
}

// MigrateData handles POST /migrate-data. Re-sending the same payload is safe:
// server state always wins the merge.
func (h *MigrateHandler) MigrateData(w http.ResponseWriter, r *http.Request) {
	sessionID := request.SessionIDFromContext(r.Context())
	if sessionID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Session ID required")
		return
	}

	var legacy patch.LegacyData
	if err := json.NewDecoder(r.Body).Decode(&legacy); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid migration payload")
		return
	}
	if len(legacy.History) > maxMigrationHistoryItems {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Migration history too large")
		return
	}

	summary, err := h.service.Migrate(r.Context(), sessionID, legacy)
	if err != nil {
		h.logger.Error("migration_failed",
			zap.String("session_id", logpkg.SanitizeSessionID(sessionID)),
			zap.Error(err),
		)
		if errors.Is(err, store.ErrVerifyFailed) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Credit migration could not be verified. Please retry.")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Migration failed")
		return
	}

	h.logger.Info("migration_completed",
		zap.String("session_id", logpkg.SanitizeSessionID(sessionID)),
		zap.Int("history_items", summary.HistoryItems),
		zap.Int("extra_credits", summary.ExtraCredits),
		zap.Bool("credits_skipped", summary.CreditsSkipped),
	)

	respondJSON(w, http.StatusOK, summary)
}
