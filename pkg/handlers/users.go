package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/services"
)

// OnboardingHandler creates the internal user after the first sign-in and
// hands the browser off to the journal.
type OnboardingHandler struct {
	identityService services.IdentityService
	homePath        string
	logger          *zap.Logger
}

// NewOnboardingHandler creates a new onboarding handler that redirects to homePath.
func NewOnboardingHandler(identityService services.IdentityService, homePath string, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		identityService: identityService,
		homePath:        homePath,
		logger:          logger,
	}
}

// RegisterRoutes registers the onboarding handler's routes on the given mux.
func (h *OnboardingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /new-user", authMiddleware.RequireAuth(h.NewUser))
}

// NewUser handles GET /new-user
// The sign-in flow lands here once; repeated visits are harmless.
func (h *OnboardingHandler) NewUser(w http.ResponseWriter, r *http.Request) {
	externalID := auth.GetExternalIDFromContext(r.Context())

	user, created, err := h.identityService.EnsureUser(r.Context(), externalID)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to ensure user",
			zap.String("external_id", externalID))
		return
	}

	if created {
		h.logger.Info("Onboarded new user", zap.String("user_id", user.ID.String()))
	}

	http.Redirect(w, r, h.homePath, http.StatusSeeOther)
}
