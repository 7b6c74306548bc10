package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/services"
)

// RecommendationHandler handles practice recommendation and alternative endpoints.
type RecommendationHandler struct {
	recommendations  services.RecommendationService
	defaultThreshold int
	logger           *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler with dependencies.
func NewRecommendationHandler(recommendations services.RecommendationService, defaultThreshold int, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations:  recommendations,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// RegisterRoutes registers the recommendation handler's routes on the given mux.
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/recommendations", h.Recommend)
	mux.HandleFunc("GET /api/teams/{teamID}/recommendations", h.RecommendForTeam)
	mux.HandleFunc("POST /api/practices/{practiceVersionID}/alternatives", h.Alternatives)
}

// RecommendRequest is the body of POST /api/recommendations.
// Threshold is optional; the configured default applies when omitted.
type RecommendRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids"`
	Threshold *int        `json:"threshold,omitempty"`
	GoalIDs   []uuid.UUID `json:"goal_ids,omitempty"`
}

// Recommend handles POST /api/recommendations requests.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
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

	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 100 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "threshold must be within [0,100]"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	recs, err := h.recommendations.RecommendForTeam(r.Context(), req.MemberIDs, threshold, req.GoalIDs)
	if err != nil {
		h.logger.Error("Failed to compute recommendations",
			zap.Int("member_count", len(req.MemberIDs)),
			zap.Int("threshold", threshold),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, recs); err != nil {
		h.logger.Error("Failed to encode recommendations response", zap.Error(err))
	}
}

// RecommendForTeam handles GET /api/teams/{teamID}/recommendations requests.
// The member list comes from the stored team; threshold and goal_id query
// parameters narrow the ranking the same way the POST body does.
func (h *RecommendationHandler) RecommendForTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(r.PathValue("teamID"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_team_id", "Team ID must be a valid UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	threshold := h.defaultThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err = strconv.Atoi(raw)
		if err != nil || threshold < 0 || threshold > 100 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "threshold must be an integer within [0,100]"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}

	var goalIDs []uuid.UUID
	for _, raw := range r.URL.Query()["goal_id"] {
		goalID, err := uuid.Parse(raw)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "goal_id must be a valid UUID"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		goalIDs = append(goalIDs, goalID)
	}

	recs, err := h.recommendations.RecommendForStoredTeam(r.Context(), teamID, threshold, goalIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "team_not_found", "Team not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to compute team recommendations",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, recs); err != nil {
		h.logger.Error("Failed to encode recommendations response", zap.Error(err))
	}
}

// AlternativesRequest is the body of POST /api/practices/{practiceVersionID}/alternatives.
type AlternativesRequest struct {
	MemberIDs      []uuid.UUID `json:"member_ids"`
	MinImprovement int         `json:"min_improvement"`
}

// Alternatives handles POST /api/practices/{practiceVersionID}/alternatives requests.
func (h *RecommendationHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	practiceVersionID, err := uuid.Parse(r.PathValue("practiceVersionID"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_practice_version_id", "Practice version ID must be a valid UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req AlternativesRequest
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
	if req.MinImprovement < 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "min_improvement must not be negative"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	alternatives, err := h.recommendations.AlternativesFor(r.Context(), practiceVersionID, req.MemberIDs, req.MinImprovement)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "practice_not_found", "Practice version not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to compute alternatives",
			zap.String("practice_version_id", practiceVersionID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, alternatives); err != nil {
		h.logger.Error("Failed to encode alternatives response", zap.Error(err))
	}
}
