package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/realitypatch/realitypatch/internal/logger"
	"github.com/realitypatch/realitypatch/internal/request"
	"github.com/realitypatch/realitypatch/internal/services/ai"
	"github.com/realitypatch/realitypatch/internal/services/patch"
	"github.com/realitypatch/realitypatch/internal/validation"
)

// PatchHandler handles message submissions.
type PatchHandler struct {
	service *patch.Service
	logger  *zap.Logger
}

// NewPatchHandler creates a new patch handler.
func NewPatchHandler(service *patch.Service, logger *zap.Logger) *PatchHandler {
	return &PatchHandler{service: service, logger: logger}
}

// RegisterRoutes registers patch routes.
func (h *PatchHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/patch", h.SubmitPatch).Methods("POST")
}

// PatchRequest is the submission payload.
type PatchRequest struct {
	UserInput string `json:"userInput" validate:"required,user_input"`
}

// PatchResponse is the submission result payload.
type PatchResponse struct {
	Patch                 string       `json:"patch"`
	SessionID             string       `json:"sessionId"`
	IsFollowUp            bool         `json:"isFollowUp"`
	CompletedAssignmentID *int64       `json:"completedAssignmentId"`
	AssignmentMatch       string       `json:"assignmentMatch"`
	HistoryCount          int          `json:"historyCount"`
	Usage                 UsagePayload `json:"usage"`
}

// UsagePayload is the quota slice of a response.
type UsagePayload struct {
	Count        int    `json:"count"`
	Remaining    int    `json:"remaining"`
	Limit        int    `json:"limit"`
	ExtraCredits int    `json:"extraCredits"`
	ResetsAt     string `json:"resetsAt,omitempty"`
}

// SubmitPatch handles POST /patch.
func (h *PatchHandler) SubmitPatch(w http.ResponseWriter, r *http.Request) {
	sessionID := request.SessionIDFromContext(r.Context())
	if sessionID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Session ID required")
		return
	}

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	req.UserInput = validation.SanitizeText(req.UserInput)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Input text is required and must be under the length limit")
		return
	}

	result, err := h.service.Submit(r.Context(), sessionID, req.UserInput)
	if err != nil {
		var quotaErr *patch.QuotaExceededError
		if errors.As(err, &quotaErr) {
			// Quota exhaustion is a decision, not a fault: hand back the
			// numbers the client needs for its "come back tomorrow" state.
			respondJSONErrorData(w, http.StatusTooManyRequests, "Quota Exceeded",
				"Daily limit reached. Come back tomorrow or add extra credits.",
				UsagePayload{
					Count:        quotaErr.Allowance.Count,
					Remaining:    quotaErr.Allowance.Remaining,
					Limit:        quotaErr.Allowance.Limit,
					ExtraCredits: quotaErr.Allowance.ExtraCredits,
					ResetsAt:     quotaErr.ResetAt.Format(time.RFC3339),
				})
			return
		}

		h.logger.Error("patch_submission_failed",
			zap.String("session_id", logpkg.SanitizeSessionID(sessionID)),
			zap.Error(err),
		)

		if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI service temporarily unavailable. Please try again.")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process request. Please try again.")
		return
	}

	respondJSON(w, http.StatusOK, PatchResponse{
		Patch:                 result.Patch,
		SessionID:             result.SessionID,
		IsFollowUp:            result.IsFollowUp,
		CompletedAssignmentID: result.CompletedAssignmentID,
		AssignmentMatch:       string(result.Match.Kind),
		HistoryCount:          result.HistoryCount,
		Usage: UsagePayload{
			Count:        result.Usage.Count,
			Remaining:    result.Usage.Remaining,
			Limit:        result.Usage.Limit,
			ExtraCredits: result.Usage.ExtraCredits,
		},
	})
}
