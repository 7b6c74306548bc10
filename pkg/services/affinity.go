package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/cache"
	"github.com/agilehub/practice-engine/pkg/models"
	"github.com/agilehub/practice-engine/pkg/repositories"
)

// AffinityService defines affinity computation and derived-row maintenance.
type AffinityService interface {
	// RecalculateAffinities recomputes the person's affinity against every
	// practice version carrying a trait profile and replaces the persisted
	// rows atomically, then invalidates every cache entry that could
	// depend on this person. Returns the refreshed rows, or an empty
	// result when the profile is missing or not Complete: an unknown
	// profile must not masquerade as a poor fit.
	RecalculateAffinities(ctx context.Context, personID uuid.UUID) ([]*models.PersonPracticeAffinity, error)
	// GetPersonAffinity returns the persisted score for one practice or
	// apperrors.ErrNotFound when it has not been computed yet.
	GetPersonAffinity(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error)
}

// AffinityScore maps a personality profile and a practice's declared trait
// weights to an integer score in [0,100]. The score is 100 minus the mean
// absolute per-dimension distance, scaled: monotonic in each dimension's
// closeness to the practice's ideal, bounded, and deterministic.
func AffinityScore(profile, weights models.TraitVector) int {
	var distance float64
	for _, dim := range models.Dimensions {
		distance += math.Abs(profile.Get(dim) - weights.Get(dim))
	}
	distance /= float64(len(models.Dimensions))

	score := int(math.Round(float64(models.AffinityMax) * (1 - distance)))
	if score < models.AffinityMin {
		score = models.AffinityMin
	}
	if score > models.AffinityMax {
		score = models.AffinityMax
	}
	return score
}

// affinityService implements AffinityService.
type affinityService struct {
	profiles   repositories.ProfileRepository
	practices  repositories.PracticeRepository
	affinities repositories.AffinityRepository
	store      cache.Store
	ttl        time.Duration
	logger     *zap.Logger
}

// NewAffinityService creates a new affinity service with dependencies.
func NewAffinityService(
	profiles repositories.ProfileRepository,
	practices repositories.PracticeRepository,
	affinities repositories.AffinityRepository,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) AffinityService {
	return &affinityService{
		profiles:   profiles,
		practices:  practices,
		affinities: affinities,
		store:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

// RecalculateAffinities recomputes and replaces every affinity row for a person.
func (s *affinityService) RecalculateAffinities(ctx context.Context, personID uuid.UUID) ([]*models.PersonPracticeAffinity, error) {
	profile, err := s.profiles.GetByPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !profile.IsScoreable() {
		s.logger.Debug("skipping recalculation for non-complete profile",
			zap.String("person_id", personID.String()),
			zap.String("status", string(profile.Status)))
		return nil, nil
	}

	versions, err := s.practices.ListVersionsWithTraits(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]*models.PersonPracticeAffinity, len(versions))
	for i, version := range versions {
		rows[i] = &models.PersonPracticeAffinity{
			PersonID:          personID,
			PracticeVersionID: version.ID,
			Affinity:          AffinityScore(profile.Traits, version.Traits),
			ComputedAt:        now,
		}
	}

	if err := s.affinities.ReplaceForPerson(ctx, personID, rows); err != nil {
		return nil, err
	}

	// Synchronous write-triggered invalidation: individual, team, and
	// recommendation entries touching this person all go.
	cache.InvalidatePatterns(ctx, s.store, s.logger, cache.PersonPatterns(personID))

	s.logger.Info("affinities recalculated",
		zap.String("person_id", personID.String()),
		zap.Int("practices", len(rows)))

	return rows, nil
}

// GetPersonAffinity returns the persisted score for one practice version.
func (s *affinityService) GetPersonAffinity(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error) {
	key := cache.PersonAffinityKey(personID, practiceVersionID)
	return cache.GetOrCompute(ctx, s.store, s.logger, key, s.ttl, func(ctx context.Context) (*models.PersonPracticeAffinity, error) {
		return s.affinities.GetForPerson(ctx, personID, practiceVersionID)
	})
}

// Ensure affinityService implements AffinityService at compile time.
var _ AffinityService = (*affinityService)(nil)
