package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/services"
)

// LogoutResponse represents the response for logout.
type LogoutResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
}

// AuthHandler serves the caller's own account and session.
type AuthHandler struct {
	identityService services.IdentityService
	sessionCookie   string
	cookies         auth.CookieSettings
	logger          *zap.Logger
}

// NewAuthHandler creates a new auth handler. sessionCookie names the cookie
// the session token is read from; cookies are the attributes it was set with.
func NewAuthHandler(identityService services.IdentityService, sessionCookie string, cookies auth.CookieSettings, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		sessionCookie:   sessionCookie,
		cookies:         cookies,
		logger:          logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/me", authMiddleware.RequireAuth(h.GetMe))
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
}

// GetMe handles GET /api/me
// Returns the internal user behind the session. A session with no user row is 401.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.identityService, h.logger)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout
// Clears the session cookie. It needs no session, so a stale cookie can always be dropped.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.ExpireCookie(h.sessionCookie))

	h.logger.Info("User logged out")

	if err := WriteJSON(w, http.StatusOK, LogoutResponse{
		Success:     true,
		RedirectURL: "/",
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
