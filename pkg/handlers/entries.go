package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/services"
)

// maxEntryBodyBytes bounds POST /api/entries bodies.
const maxEntryBodyBytes = 1 << 20

// ============================================================================
// Request Types
// ============================================================================

// CreateEntryRequest for POST /api/entries
type CreateEntryRequest struct {
	Content string `json:"content"`
}

// ============================================================================
// Handler
// ============================================================================

// EntriesHandler handles journal entry HTTP requests.
type EntriesHandler struct {
	identityService services.IdentityService
	journalService  services.JournalService
	logger          *zap.Logger
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(
	identityService services.IdentityService,
	journalService services.JournalService,
	logger *zap.Logger,
) *EntriesHandler {
	return &EntriesHandler{
		identityService: identityService,
		journalService:  journalService,
		logger:          logger,
	}
}

// RegisterRoutes registers the entries handler's routes on the given mux.
func (h *EntriesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/entries"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET "+base+"/{eid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("DELETE "+base+"/{eid}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/entries
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.identityService, h.logger)
	if !ok {
		return
	}

	entries, err := h.journalService.ListEntries(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list entries",
			zap.String("user_id", user.ID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/entries/{eid}
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	user, ok := currentUser(w, r, h.identityService, h.logger)
	if !ok {
		return
	}

	entry, err := h.journalService.GetEntry(r.Context(), user, entryID)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to get entry",
			zap.String("user_id", user.ID.String()),
			zap.String("entry_id", entryID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/entries/{eid}
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	user, ok := currentUser(w, r, h.identityService, h.logger)
	if !ok {
		return
	}

	if err := h.journalService.DeleteEntry(r.Context(), user, entryID); err != nil {
		writeServiceError(w, err, h.logger, "Failed to delete entry",
			zap.String("user_id", user.ID.String()),
			zap.String("entry_id", entryID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/entries
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.identityService, h.logger)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEntryBodyBytes)).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entry, err := h.journalService.CreateEntry(r.Context(), user, req.Content)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to create entry",
			zap.String("user_id", user.ID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
