package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/cache"
	"github.com/agilehub/practice-engine/pkg/models"
	"github.com/agilehub/practice-engine/pkg/repositories"
)

// TeamService aggregates member affinities into team-level statistics.
type TeamService interface {
	// TeamAffinity summarizes the member set's fit for one practice
	// version. Returns apperrors.ErrNotFound for an unknown practice.
	TeamAffinity(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) (*models.TeamAffinitySummary, error)
	// TeamAffinityForVersion is TeamAffinity for an already-loaded
	// version, sparing the existence lookup on ranking hot paths.
	TeamAffinityForVersion(ctx context.Context, memberIDs []uuid.UUID, version *models.PracticeVersion) (*models.TeamAffinitySummary, error)
}

// teamService implements TeamService.
type teamService struct {
	affinities repositories.AffinityRepository
	practices  repositories.PracticeRepository
	store      cache.Store
	ttl        time.Duration
	logger     *zap.Logger
}

// NewTeamService creates a new team aggregation service with dependencies.
func NewTeamService(
	affinities repositories.AffinityRepository,
	practices repositories.PracticeRepository,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) TeamService {
	return &teamService{
		affinities: affinities,
		practices:  practices,
		store:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

// TeamAffinity summarizes the member set's fit for one practice version.
func (s *teamService) TeamAffinity(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) (*models.TeamAffinitySummary, error) {
	version, err := s.practices.GetVersion(ctx, practiceVersionID)
	if err != nil {
		return nil, err
	}
	return s.TeamAffinityForVersion(ctx, memberIDs, version)
}

// TeamAffinityForVersion summarizes the member set's fit for a loaded version.
func (s *teamService) TeamAffinityForVersion(ctx context.Context, memberIDs []uuid.UUID, version *models.PracticeVersion) (*models.TeamAffinitySummary, error) {
	key := cache.TeamAffinityKey(memberIDs, version.ID)
	return cache.GetOrCompute(ctx, s.store, s.logger, key, s.ttl, func(ctx context.Context) (*models.TeamAffinitySummary, error) {
		rows, err := s.affinities.GetForMembers(ctx, memberIDs, version.ID)
		if err != nil {
			return nil, err
		}
		return summarize(version.ID, len(memberIDs), rows), nil
	})
}

// summarize computes the aggregate statistics over the contributing rows.
// Members without a persisted row are excluded from the statistic, not
// zero-filled: a missing score means "unknown", not "poor fit".
func summarize(practiceVersionID uuid.UUID, teamSize int, rows []*models.PersonPracticeAffinity) *models.TeamAffinitySummary {
	summary := &models.TeamAffinitySummary{
		PracticeVersionID: practiceVersionID,
		TeamSize:          teamSize,
		IndividualScores:  make([]models.MemberScore, 0, len(rows)),
	}

	if len(rows) == 0 {
		return summary
	}

	sum := 0
	summary.Minimum = rows[0].Affinity
	summary.Maximum = rows[0].Affinity
	for _, row := range rows {
		summary.IndividualScores = append(summary.IndividualScores, models.MemberScore{
			PersonID: row.PersonID,
			Affinity: row.Affinity,
		})
		sum += row.Affinity
		if row.Affinity < summary.Minimum {
			summary.Minimum = row.Affinity
		}
		if row.Affinity > summary.Maximum {
			summary.Maximum = row.Affinity
		}
	}

	summary.MemberCount = len(rows)
	summary.Average = float64(sum) / float64(len(rows))

	// Population standard deviation; 0 for a single contributor.
	var variance float64
	for _, row := range rows {
		diff := float64(row.Affinity) - summary.Average
		variance += diff * diff
	}
	summary.StandardDeviation = math.Sqrt(variance / float64(len(rows)))

	return summary
}

// Ensure teamService implements TeamService at compile time.
var _ TeamService = (*teamService)(nil)
