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

// AffinityHandler handles person and team affinity read endpoints.
type AffinityHandler struct {
	affinities services.AffinityService
	teams      services.TeamService
	logger     *zap.Logger
}

// NewAffinityHandler creates a new AffinityHandler with dependencies.
func NewAffinityHandler(affinities services.AffinityService, teams services.TeamService, logger *zap.Logger) *AffinityHandler {
	return &AffinityHandler{affinities: affinities, teams: teams, logger: logger}
}

// RegisterRoutes registers the affinity handler's routes on the given mux.
func (h *AffinityHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/people/{personID}/affinities/{practiceVersionID}", h.GetPersonAffinity)
	mux.HandleFunc("POST /api/team-affinity", h.TeamAffinity)
}

// GetPersonAffinity handles GET /api/people/{personID}/affinities/{practiceVersionID}.
// A 404 with code "not_computed" means the person has no scored profile yet
// or their recalculation has not caught up, not that the practice is unknown.
func (h *AffinityHandler) GetPersonAffinity(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(r.PathValue("personID"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_person_id", "Person ID must be a valid UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	practiceVersionID, err := uuid.Parse(r.PathValue("practiceVersionID"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_practice_version_id", "Practice version ID must be a valid UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	affinity, err := h.affinities.GetPersonAffinity(r.Context(), personID, practiceVersionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_computed", "Affinity has not been computed for this person and practice"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get person affinity",
			zap.String("person_id", personID.String()),
			zap.String("practice_version_id", practiceVersionID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, affinity); err != nil {
		h.logger.Error("Failed to encode affinity response", zap.Error(err))
	}
}

// TeamAffinityRequest is the body of POST /api/team-affinity.
type TeamAffinityRequest struct {
	MemberIDs         []uuid.UUID `json:"member_ids"`
	PracticeVersionID uuid.UUID   `json:"practice_version_id"`
}

// TeamAffinity handles POST /api/team-affinity requests.
func (h *AffinityHandler) TeamAffinity(w http.ResponseWriter, r *http.Request) {
	var req TeamAffinityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON in request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if len(req.MemberIDs) == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "member_ids must not be empty"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.PracticeVersionID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "practice_version_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	summary, err := h.teams.TeamAffinity(r.Context(), req.MemberIDs, req.PracticeVersionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "practice_not_found", "Practice version not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to compute team affinity",
			zap.String("practice_version_id", req.PracticeVersionID.String()),
			zap.Int("member_count", len(req.MemberIDs)),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to encode team affinity response", zap.Error(err))
	}
}
