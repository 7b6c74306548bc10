package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/cache"
	"github.com/agilehub/practice-engine/pkg/models"
	"github.com/agilehub/practice-engine/pkg/repositories"
)

// RecommendationService ranks practices by team affinity and finds
// alternatives addressing the same goals with better fit.
type RecommendationService interface {
	// RecommendForTeam ranks the published practice versions (optionally
	// narrowed to a goal set) by the member set's average affinity,
	// descending, ties broken by practice name. A practice is recommended
	// iff its team average meets the threshold; otherwise Reason explains.
	RecommendForTeam(ctx context.Context, memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error)
	// RecommendForStoredTeam resolves a stored team's member list first.
	RecommendForStoredTeam(ctx context.Context, teamID uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error)
	// AlternativesFor returns published practices sharing at least one
	// goal with the given practice whose team average exceeds the
	// original's by at least minImprovement, best first. Returns
	// apperrors.ErrNotFound for an unknown practice version.
	AlternativesFor(ctx context.Context, practiceVersionID uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error)
}

// recommendationService implements RecommendationService.
type recommendationService struct {
	practices repositories.PracticeRepository
	teams     repositories.TeamRepository
	teamSvc   TeamService
	store     cache.Store
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRecommendationService creates a new recommendation service with dependencies.
func NewRecommendationService(
	practices repositories.PracticeRepository,
	teams repositories.TeamRepository,
	teamSvc TeamService,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		practices: practices,
		teams:     teams,
		teamSvc:   teamSvc,
		store:     store,
		ttl:       ttl,
		logger:    logger,
	}
}

// RecommendForTeam ranks published practices for an ad-hoc member set.
func (s *recommendationService) RecommendForTeam(ctx context.Context, memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
	key := cache.RecommendationsKey(memberIDs, threshold, goalIDs)
	return cache.GetOrCompute(ctx, s.store, s.logger, key, s.ttl, func(ctx context.Context) ([]*models.Recommendation, error) {
		return s.rank(ctx, memberIDs, threshold, goalIDs)
	})
}

// RecommendForStoredTeam resolves the team's member list and delegates.
func (s *recommendationService) RecommendForStoredTeam(ctx context.Context, teamID uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.RecommendForTeam(ctx, team.MemberIDs, threshold, goalIDs)
}

func (s *recommendationService) rank(ctx context.Context, memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) ([]*models.Recommendation, error) {
	candidates, err := s.practices.ListPublishedByGoals(ctx, goalIDs)
	if err != nil {
		return nil, err
	}

	recommendations := make([]*models.Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		summary, err := s.teamSvc.TeamAffinityForVersion(ctx, memberIDs, candidate)
		if err != nil {
			return nil, err
		}

		rec := &models.Recommendation{
			Practice:     candidate,
			TeamAffinity: *summary,
			Recommended:  summary.Average >= float64(threshold),
		}
		if !rec.Recommended {
			rec.Reason = fmt.Sprintf("team average affinity %.1f below threshold %d", summary.Average, threshold)
		}
		recommendations = append(recommendations, rec)
	}

	// Descending by team average; practice name decides ties so identical
	// scores always rank the same way.
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].TeamAffinity.Average != recommendations[j].TeamAffinity.Average {
			return recommendations[i].TeamAffinity.Average > recommendations[j].TeamAffinity.Average
		}
		return recommendations[i].Practice.Name < recommendations[j].Practice.Name
	})

	return recommendations, nil
}

// AlternativesFor finds better-fitting practices addressing the same goals.
func (s *recommendationService) AlternativesFor(ctx context.Context, practiceVersionID uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error) {
	key := cache.AlternativesKey(practiceVersionID, memberIDs, minImprovement)
	return cache.GetOrCompute(ctx, s.store, s.logger, key, s.ttl, func(ctx context.Context) ([]*models.PracticeVersion, error) {
		return s.findAlternatives(ctx, practiceVersionID, memberIDs, minImprovement)
	})
}

func (s *recommendationService) findAlternatives(ctx context.Context, practiceVersionID uuid.UUID, memberIDs []uuid.UUID, minImprovement int) ([]*models.PracticeVersion, error) {
	original, err := s.practices.GetVersion(ctx, practiceVersionID)
	if err != nil {
		return nil, err
	}

	goals, err := s.practices.GoalsForVersion(ctx, practiceVersionID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		// No linked goals means no shared-goal candidates.
		return []*models.PracticeVersion{}, nil
	}

	goalIDs := make([]uuid.UUID, len(goals))
	for i, goal := range goals {
		goalIDs[i] = goal.ID
	}

	candidates, err := s.practices.ListPublishedByGoals(ctx, goalIDs)
	if err != nil {
		return nil, err
	}

	originalSummary, err := s.teamSvc.TeamAffinityForVersion(ctx, memberIDs, original)
	if err != nil {
		return nil, err
	}

	type scored struct {
		version *models.PracticeVersion
		average float64
	}
	var better []scored
	for _, candidate := range candidates {
		if candidate.PracticeID == original.PracticeID {
			continue
		}
		summary, err := s.teamSvc.TeamAffinityForVersion(ctx, memberIDs, candidate)
		if err != nil {
			return nil, err
		}
		if summary.Average-originalSummary.Average >= float64(minImprovement) {
			better = append(better, scored{version: candidate, average: summary.Average})
		}
	}

	sort.SliceStable(better, func(i, j int) bool {
		if better[i].average != better[j].average {
			return better[i].average > better[j].average
		}
		return better[i].version.Name < better[j].version.Name
	})

	alternatives := make([]*models.PracticeVersion, len(better))
	for i, b := range better {
		alternatives[i] = b.version
	}
	return alternatives, nil
}

// Ensure recommendationService implements RecommendationService at compile time.
var _ RecommendationService = (*recommendationService)(nil)
