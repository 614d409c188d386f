package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
	"github.com/ekaya-inc/ekaya-journal/pkg/services"
)

// currentUser resolves the acting user from the session. A session whose
// identity has no user row is unauthorized. On failure the response has
// been written and ok is false.
func currentUser(w http.ResponseWriter, r *http.Request, identityService services.IdentityService, logger *zap.Logger) (*models.User, bool) {
	user, err := identityService.ResolveUser(r.Context(), auth.GetExternalIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			err = apperrors.ErrUnauthorized
		}
		writeServiceError(w, err, logger, "Failed to resolve user")
		return nil, false
	}
	return user, true
}
