package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/models"
	"github.com/agilehub/practice-engine/pkg/services"
)

// Stub services. Each call delegates to the configured function so tests
// declare exactly the behavior they need.

type stubSurveyService struct {
	submit func(ctx context.Context, personID uuid.UUID, answers []services.SurveyAnswer) (*models.PersonalityProfile, error)
	get    func(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error)
}

func (s *stubSurveyService) SubmitSurvey(ctx context.Context, personID uuid.UUID, answers []services.SurveyAnswer) (*models.PersonalityProfile, error) {
	return s.submit(ctx, personID, answers)
}

func (s *stubSurveyService) GetProfile(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error) {
	return s.get(ctx, personID)
}

type stubAffinityService struct {
	recalc func(ctx context.Context, personID uuid.UUID) ([]*models.PersonPracticeAffinity, error)
	get    func(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error)
}

func (s *stubAffinityService) RecalculateAffinities(ctx context.Context, personID uuid.UUID) ([]*models.PersonPracticeAffinity, error) {
	return s.recalc(ctx, personID)
}

func (s *stubAffinityService) GetPersonAffinity(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error) {
	return s.get(ctx, personID, practiceVersionID)
}

type stubTeamService struct {
	affinity func(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) (*models.TeamAffinitySummary, error)
}

func (s *stubTeamService) TeamAffinity(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) (*models.TeamAffinitySummary, error) {
	return s.affinity(ctx, memberIDs, practiceVersionID)
}

func (s *stubTeamService) TeamAffinityForVersion(ctx context.Context, memberIDs []uuid.UUID, version *models.PracticeVersion) (*models.TeamAffinitySummary, error) {
	return s.affinity(ctx, memberIDs, version.ID)
}

type stubRecommendationService struct {
	recommend       func(ctx context.Context, memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error)
	recommendStored func(ctx context.Context, teamID uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error)
	alternatives    func(ctx context.Context, practiceVersionID uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error)
}

func (s *stubRecommendationService) RecommendForTeam(ctx context.Context, memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
	return s.recommend(ctx, memberIDs, threshold, goalIDs)
}

func (s *stubRecommendationService) RecommendForStoredTeam(ctx context.Context, teamID uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
	return s.recommendStored(ctx, teamID, threshold, goalIDs)
}

func (s *stubRecommendationService) AlternativesFor(ctx context.Context, practiceVersionID uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error) {
	return s.alternatives(ctx, practiceVersionID, memberIDs, minImprovement)
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSubmitSurveySuccess(t *testing.T) {
	personID := uuid.New()
	svc := &stubSurveyService{
		submit: func(ctx context.Context, pid uuid.UUID, answers []services.SurveyAnswer) (*models.PersonalityProfile, error) {
			assert.Equal(t, personID, pid)
			assert.Len(t, answers, 1)
			return &models.PersonalityProfile{
				PersonID:      pid,
				Status:        models.ProfileComplete,
				AnsweredItems: 1,
				RecalcPending: true,
			}, nil
		},
	}

	mux := http.NewServeMux()
	NewSurveyHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/people/"+personID.String()+"/survey", SubmitSurveyRequest{
		Answers: []services.SurveyAnswer{{ItemID: "bfi-01", Result: 4}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.PersonalityProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.True(t, profile.RecalcPending)
}

func TestSubmitSurveyInvalidPersonID(t *testing.T) {
	svc := &stubSurveyService{}
	mux := http.NewServeMux()
	NewSurveyHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/people/not-a-uuid/survey", SubmitSurveyRequest{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_person_id", decodeError(t, rec)["error"])
}

func TestSubmitSurveyValidationErrorIncludesField(t *testing.T) {
	svc := &stubSurveyService{
		submit: func(ctx context.Context, pid uuid.UUID, answers []services.SurveyAnswer) (*models.PersonalityProfile, error) {
			return nil, &apperrors.ValidationError{Field: "bfi-02", Message: "result 6 outside Likert range [1,5]"}
		},
	}
	mux := http.NewServeMux()
	NewSurveyHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/people/"+uuid.NewString()+"/survey", SubmitSurveyRequest{
		Answers: []services.SurveyAnswer{{ItemID: "bfi-02", Result: 6}},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, "bfi-02", body["field"])
}

func TestGetProfileNotFound(t *testing.T) {
	svc := &stubSurveyService{
		get: func(ctx context.Context, pid uuid.UUID) (*models.PersonalityProfile, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	mux := http.NewServeMux()
	NewSurveyHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/people/"+uuid.NewString()+"/profile", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "profile_not_found", decodeError(t, rec)["error"])
}

func TestGetPersonAffinityNotComputed(t *testing.T) {
	affinities := &stubAffinityService{
		get: func(ctx context.Context, pid, pvid uuid.UUID) (*models.PersonPracticeAffinity, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	mux := http.NewServeMux()
	NewAffinityHandler(affinities, &stubTeamService{}, zap.NewNop()).RegisterRoutes(mux)

	target := fmt.Sprintf("/api/people/%s/affinities/%s", uuid.NewString(), uuid.NewString())
	rec := doJSON(t, mux, http.MethodGet, target, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_computed", decodeError(t, rec)["error"])
}

func TestGetPersonAffinitySuccess(t *testing.T) {
	personID := uuid.New()
	versionID := uuid.New()
	affinities := &stubAffinityService{
		get: func(ctx context.Context, pid, pvid uuid.UUID) (*models.PersonPracticeAffinity, error) {
			return &models.PersonPracticeAffinity{PersonID: pid, PracticeVersionID: pvid, Affinity: 85}, nil
		},
	}
	mux := http.NewServeMux()
	NewAffinityHandler(affinities, &stubTeamService{}, zap.NewNop()).RegisterRoutes(mux)

	target := fmt.Sprintf("/api/people/%s/affinities/%s", personID, versionID)
	rec := doJSON(t, mux, http.MethodGet, target, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var row models.PersonPracticeAffinity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, 85, row.Affinity)
}

func TestTeamAffinityValidation(t *testing.T) {
	mux := http.NewServeMux()
	NewAffinityHandler(&stubAffinityService{}, &stubTeamService{}, zap.NewNop()).RegisterRoutes(mux)

	// Empty member set
	rec := doJSON(t, mux, http.MethodPost, "/api/team-affinity", TeamAffinityRequest{
		PracticeVersionID: uuid.New(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing practice version
	rec = doJSON(t, mux, http.MethodPost, "/api/team-affinity", TeamAffinityRequest{
		MemberIDs: []uuid.UUID{uuid.New()},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamAffinitySuccess(t *testing.T) {
	teams := &stubTeamService{
		affinity: func(ctx context.Context, memberIDs []uuid.UUID, pvid uuid.UUID) (*models.TeamAffinitySummary, error) {
			return &models.TeamAffinitySummary{
				PracticeVersionID: pvid,
				Average:           75,
				MemberCount:       len(memberIDs),
				TeamSize:          len(memberIDs),
			}, nil
		},
	}
	mux := http.NewServeMux()
	NewAffinityHandler(&stubAffinityService{}, teams, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/team-affinity", TeamAffinityRequest{
		MemberIDs:         []uuid.UUID{uuid.New(), uuid.New()},
		PracticeVersionID: uuid.New(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.TeamAffinitySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.MemberCount)
}

func TestRecommendAppliesDefaultThreshold(t *testing.T) {
	var gotThreshold int
	svc := &stubRecommendationService{
		recommend: func(ctx context.Context, memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
			gotThreshold = threshold
			return []*models.Recommendation{}, nil
		},
	}
	mux := http.NewServeMux()
	NewRecommendationHandler(svc, 70, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/recommendations", RecommendRequest{
		MemberIDs: []uuid.UUID{uuid.New()},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 70, gotThreshold)

	explicit := 40
	rec = doJSON(t, mux, http.MethodPost, "/api/recommendations", RecommendRequest{
		MemberIDs: []uuid.UUID{uuid.New()},
		Threshold: &explicit,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40, gotThreshold)
}

func TestRecommendRejectsOutOfRangeThreshold(t *testing.T) {
	mux := http.NewServeMux()
	NewRecommendationHandler(&stubRecommendationService{}, 70, zap.NewNop()).RegisterRoutes(mux)

	bad := 101
	rec := doJSON(t, mux, http.MethodPost, "/api/recommendations", RecommendRequest{
		MemberIDs: []uuid.UUID{uuid.New()},
		Threshold: &bad,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendForStoredTeam(t *testing.T) {
	teamID := uuid.New()
	goalID := uuid.New()
	svc := &stubRecommendationService{
		recommendStored: func(ctx context.Context, tid uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
			assert.Equal(t, teamID, tid)
			assert.Equal(t, 60, threshold)
			assert.Equal(t, []uuid.UUID{goalID}, goalIDs)
			return []*models.Recommendation{}, nil
		},
	}
	mux := http.NewServeMux()
	NewRecommendationHandler(svc, 70, zap.NewNop()).RegisterRoutes(mux)

	target := fmt.Sprintf("/api/teams/%s/recommendations?threshold=60&goal_id=%s", teamID, goalID)
	rec := doJSON(t, mux, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecommendForStoredTeamNotFound(t *testing.T) {
	svc := &stubRecommendationService{
		recommendStored: func(ctx context.Context, tid uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	mux := http.NewServeMux()
	NewRecommendationHandler(svc, 70, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/teams/"+uuid.NewString()+"/recommendations", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "team_not_found", decodeError(t, rec)["error"])
}

func TestAlternativesUnknownPractice(t *testing.T) {
	svc := &stubRecommendationService{
		alternatives: func(ctx context.Context, pvid uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	mux := http.NewServeMux()
	NewRecommendationHandler(svc, 70, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/practices/"+uuid.NewString()+"/alternatives", AlternativesRequest{
		MemberIDs: []uuid.UUID{uuid.New()},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "practice_not_found", decodeError(t, rec)["error"])
}

func TestAlternativesSuccess(t *testing.T) {
	svc := &stubRecommendationService{
		alternatives: func(ctx context.Context, pvid uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error) {
			assert.Equal(t, 10, minImprovement)
			return []*models.PracticeVersion{
				{ID: uuid.New(), Name: "Continuous Review"},
			}, nil
		},
	}
	mux := http.NewServeMux()
	NewRecommendationHandler(svc, 70, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/practices/"+uuid.NewString()+"/alternatives", AlternativesRequest{
		MemberIDs:      []uuid.UUID{uuid.New()},
		MinImprovement: 10,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var out []*models.PracticeVersion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Continuous Review", out[0].Name)
}
