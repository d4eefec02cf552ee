package handlers

import (
	"context"
	"errors"
	"finai-backend/internal/auth"
	"finai-backend/internal/checklist"
	"finai-backend/internal/models"
	"finai-backend/internal/services"
	"finai-backend/pkg/httputil"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
)

const maxProfilePayload = 1 << 20

// ProfileService stores and classifies checklist results.
type ProfileService interface {
	Save(ctx context.Context, userID uuid.UUID, raw []byte) (*models.ProfileResponse, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.ProfileResponse, checklist.ProfileStatus, error)
}

// ChecklistHandler serves the checklist definition and the user's stored profile.
type ChecklistHandler struct {
	profiles   ProfileService
	definition checklist.Definition
}

func NewChecklistHandler(profiles ProfileService, def checklist.Definition) *ChecklistHandler {
	return &ChecklistHandler{profiles: profiles, definition: def}
}

// HandleGetDefinition handles GET /checklist/definition.
func (h *ChecklistHandler) HandleGetDefinition(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.definition)
}

// HandleSubmit handles POST /checklist. The body is stored verbatim as the user's profile.
func (h *ChecklistHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfilePayload))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	profile, err := h.profiles.Save(r.Context(), userID, raw)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPayload):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			httputil.RespondError(w, http.StatusNotFound, "User not found")
		default:
			log.Printf("ERROR [ChecklistHandler] Saving profile for user %s: %v", userID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to save checklist")
		}
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ChecklistSubmitResponse{Success: true, Profile: profile})
}

// HandleGetProfile handles GET /checklist.
func (h *ChecklistHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, status, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [ChecklistHandler] Loading profile for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load checklist")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ProfileStatusResponse{Profile: profile, Status: string(status)})
}
