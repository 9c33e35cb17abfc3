package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/store"
)

// analyticsSampleSize bounds how many records the usage estimate reads.
const analyticsSampleSize = 10

// AnalyticsHandler serves rough operator-facing usage numbers.
type AnalyticsHandler struct {
	store  *store.RedisStore
	logger *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(redisStore *store.RedisStore, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{store: redisStore, logger: logger}
}

// RegisterRoutes registers analytics routes.
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/analytics", h.GetAnalytics).Methods("GET")
}

// GetAnalytics handles GET /analytics. The daily usage figure is an estimate
// from a bounded sample, not an exact count.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.store.GetAnalytics(r.Context(), analyticsSampleSize)
	if err != nil {
		h.logger.Error("analytics_fetch_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load analytics")
		return
	}

	respondJSON(w, http.StatusOK, analytics)
}
