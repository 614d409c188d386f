package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/services"
)

// AnalyticsHandler serves the sentiment projection for charts.
type AnalyticsHandler struct {
	identityService  services.IdentityService
	analyticsService services.AnalyticsService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(
	identityService services.IdentityService,
	analyticsService services.AnalyticsService,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		identityService:  identityService,
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/analytics", authMiddleware.RequireAuth(h.List))
}

// List handles GET /api/analytics
func (h *AnalyticsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.identityService, h.logger)
	if !ok {
		return
	}

	points, err := h.analyticsService.ListAnalytics(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list analytics",
			zap.String("user_id", user.ID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: points}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
