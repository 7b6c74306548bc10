package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/services"
)

// SurveyHandler handles survey submission and profile read endpoints.
type SurveyHandler struct {
	surveys services.SurveyService
	logger  *zap.Logger
}

// NewSurveyHandler creates a new SurveyHandler with dependencies.
func NewSurveyHandler(surveys services.SurveyService, logger *zap.Logger) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, logger: logger}
}

// RegisterRoutes registers the survey handler's routes on the given mux.
func (h *SurveyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/people/{personID}/survey", h.SubmitSurvey)
	mux.HandleFunc("GET /api/people/{personID}/profile", h.GetProfile)
}

// SubmitSurveyRequest is the body of POST /api/people/{personID}/survey.
type SubmitSurveyRequest struct {
	Answers []services.SurveyAnswer `json:"answers"`
}

// SubmitSurvey handles POST /api/people/{personID}/survey requests.
// Stores the batch, rescores the profile, and schedules an asynchronous
// affinity recalculation. The returned profile carries recalc_pending=true
// until the derived scores catch up.
func (h *SurveyHandler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(r.PathValue("personID"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_person_id", "Person ID must be a valid UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req SubmitSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON in request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profile, err := h.surveys.SubmitSurvey(r.Context(), personID, req.Answers)
	if err != nil {
		h.logger.Error("Failed to submit survey",
			zap.String("person_id", personID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode profile response", zap.Error(err))
	}
}

// GetProfile handles GET /api/people/{personID}/profile requests.
func (h *SurveyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(r.PathValue("personID"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_person_id", "Person ID must be a valid UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profile, err := h.surveys.GetProfile(r.Context(), personID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "profile_not_found", "No survey has been scored for this person"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get profile",
			zap.String("person_id", personID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode profile response", zap.Error(err))
	}
}
