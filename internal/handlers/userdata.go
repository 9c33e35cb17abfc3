package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/realitypatch/realitypatch/internal/logger"
	"github.com/realitypatch/realitypatch/internal/models"
	"github.com/realitypatch/realitypatch/internal/request"
	"github.com/realitypatch/realitypatch/internal/services/patch"
)

// UserDataHandler serves per-session history and quota state.
type UserDataHandler struct {
	service *patch.Service
	logger  *zap.Logger
}

// NewUserDataHandler creates a new user data handler.
func NewUserDataHandler(service *patch.Service, logger *zap.Logger) *UserDataHandler {
	return &UserDataHandler{service: service, logger: logger}
}

// RegisterRoutes registers user data routes.
func (h *UserDataHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/user-data", h.GetUserData).Methods("GET")
}

// UserDataResponse is the session snapshot payload.
type UserDataResponse struct {
	SessionID     string               `json:"sessionId"`
	History       []models.Interaction `json:"history"`
	Usage         UsagePayload         `json:"usage"`
	ExtraCredits  int                  `json:"extraCredits"`
	CreditsExpiry *time.Time           `json:"creditsExpiry"`
}

// GetUserData handles GET /user-data. A session with no stored record gets an
// empty snapshot, not an error.
func (h *UserDataHandler) GetUserData(w http.ResponseWriter, r *http.Request) {
	sessionID := request.SessionIDFromContext(r.Context())
	if sessionID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Session ID required")
		return
	}

	data, err := h.service.UserData(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("user_data_fetch_failed",
			zap.String("session_id", logpkg.SanitizeSessionID(sessionID)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load user data")
		return
	}

	history := data.History
	if history == nil {
		history = []models.Interaction{}
	}

	respondJSON(w, http.StatusOK, UserDataResponse{
		SessionID: sessionID,
		History:   history,
		Usage: UsagePayload{
			Count:        data.Usage.Count,
			Remaining:    data.Usage.Remaining,
			Limit:        data.Usage.Limit,
			ExtraCredits: data.Usage.ExtraCredits,
		},
		ExtraCredits:  data.ExtraCredits,
		CreditsExpiry: data.CreditsExpiry,
	})
}
