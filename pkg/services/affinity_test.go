package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/cache"
	"github.com/agilehub/practice-engine/pkg/models"
)

func TestAffinityScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	randomVector := func() models.TraitVector {
		var v models.TraitVector
		for _, dim := range models.Dimensions {
			v.Set(dim, rng.Float64())
		}
		return v
	}

	for trial := 0; trial < 200; trial++ {
		score := AffinityScore(randomVector(), randomVector())
		assert.GreaterOrEqual(t, score, models.AffinityMin)
		assert.LessOrEqual(t, score, models.AffinityMax)
	}
}

func TestAffinityScorePerfectMatch(t *testing.T) {
	v := models.TraitVector{
		Openness:          0.7,
		Conscientiousness: 0.2,
		Extraversion:      1.0,
		Agreeableness:     0.0,
		Neuroticism:       0.55,
	}
	assert.Equal(t, 100, AffinityScore(v, v))
}

func TestAffinityScoreMaximalDistance(t *testing.T) {
	low := models.TraitVector{}
	high := models.TraitVector{
		Openness:          1,
		Conscientiousness: 1,
		Extraversion:      1,
		Agreeableness:     1,
		Neuroticism:       1,
	}
	assert.Equal(t, 0, AffinityScore(low, high))
	assert.Equal(t, 0, AffinityScore(high, low))
}

func TestAffinityScoreMonotonicInCloseness(t *testing.T) {
	weights := models.TraitVector{Openness: 1}

	// Moving openness toward the ideal must never lower the score.
	prev := -1
	for o := 0.0; o <= 1.0; o += 0.05 {
		score := AffinityScore(models.TraitVector{Openness: o}, weights)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestAffinityScoreDeterministic(t *testing.T) {
	profile := models.TraitVector{Openness: 0.31, Extraversion: 0.87, Neuroticism: 0.12}
	weights := models.TraitVector{Openness: 0.9, Conscientiousness: 0.4}

	first := AffinityScore(profile, weights)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AffinityScore(profile, weights))
	}
}

func newAffinityFixture(store cache.Store) (*mockProfileRepo, *mockPracticeRepo, *mockAffinityRepo, AffinityService) {
	profiles := newMockProfileRepo()
	practices := &mockPracticeRepo{}
	affinities := newMockAffinityRepo()
	svc := NewAffinityService(profiles, practices, affinities, store, time.Minute, zap.NewNop())
	return profiles, practices, affinities, svc
}

func TestRecalculateAffinitiesReplacesRows(t *testing.T) {
	ctx := context.Background()
	profiles, practices, affinities, svc := newAffinityFixture(nil)

	personID := uuid.New()
	require.NoError(t, profiles.Upsert(ctx, &models.PersonalityProfile{
		PersonID:      personID,
		Traits:        models.TraitVector{Openness: 0.8, Extraversion: 0.6},
		Status:        models.ProfileComplete,
		AnsweredItems: 8,
	}))

	practices.versions = []*models.PracticeVersion{
		{ID: uuid.New(), PracticeID: uuid.New(), Name: "Pair Programming", Published: true, Traits: models.TraitVector{Openness: 0.8, Extraversion: 0.6}},
		{ID: uuid.New(), PracticeID: uuid.New(), Name: "Retrospective", Published: true, Traits: models.TraitVector{Agreeableness: 1}},
	}

	rows, err := svc.RecalculateAffinities(ctx, personID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, personID, row.PersonID)
		assert.GreaterOrEqual(t, row.Affinity, models.AffinityMin)
		assert.LessOrEqual(t, row.Affinity, models.AffinityMax)
	}
	// Exact match on every dimension scores 100.
	assert.Equal(t, 100, rows[0].Affinity)

	assert.Equal(t, []uuid.UUID{personID}, affinities.recalcCleared)
}

func TestRecalculateAffinitiesIdempotent(t *testing.T) {
	ctx := context.Background()
	profiles, practices, affinities, svc := newAffinityFixture(nil)

	personID := uuid.New()
	require.NoError(t, profiles.Upsert(ctx, &models.PersonalityProfile{
		PersonID: personID,
		Traits:   models.TraitVector{Conscientiousness: 0.5},
		Status:   models.ProfileComplete,
	}))
	practices.versions = []*models.PracticeVersion{
		{ID: uuid.New(), PracticeID: uuid.New(), Name: "Kanban", Published: true, Traits: models.TraitVector{Conscientiousness: 0.9}},
	}

	first, err := svc.RecalculateAffinities(ctx, personID)
	require.NoError(t, err)
	second, err := svc.RecalculateAffinities(ctx, personID)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Affinity, second[i].Affinity)
	}
	// The stored rows were replaced, not accumulated.
	assert.Len(t, affinities.rows[personID], 1)
}

func TestRecalculateAffinitiesSkipsMissingProfile(t *testing.T) {
	ctx := context.Background()
	_, practices, affinities, svc := newAffinityFixture(nil)
	practices.versions = []*models.PracticeVersion{
		{ID: uuid.New(), PracticeID: uuid.New(), Name: "Kanban", Published: true},
	}

	rows, err := svc.RecalculateAffinities(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, affinities.recalcCleared)
}

func TestRecalculateAffinitiesRefusesNonCompleteProfile(t *testing.T) {
	ctx := context.Background()
	profiles, practices, affinities, svc := newAffinityFixture(nil)

	personID := uuid.New()
	require.NoError(t, profiles.Upsert(ctx, &models.PersonalityProfile{
		PersonID: personID,
		Traits:   models.TraitVector{Openness: 0.5},
		Status:   models.ProfilePartiallyComplete,
	}))
	practices.versions = []*models.PracticeVersion{
		{ID: uuid.New(), PracticeID: uuid.New(), Name: "Kanban", Published: true},
	}

	rows, err := svc.RecalculateAffinities(ctx, personID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, affinities.rows[personID])
}

func TestRecalculateAffinitiesInvalidatesPersonEntries(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	profiles, practices, _, svc := newAffinityFixture(store)

	personID := uuid.New()
	otherID := uuid.New()
	versionID := uuid.New()

	require.NoError(t, profiles.Upsert(ctx, &models.PersonalityProfile{
		PersonID: personID,
		Status:   models.ProfileComplete,
	}))
	practices.versions = []*models.PracticeVersion{
		{ID: versionID, PracticeID: uuid.New(), Name: "Kanban", Published: true},
	}

	// Seed entries that must and must not survive the recalculation.
	stale := []cache.Key{
		cache.PersonAffinityKey(personID, versionID),
		cache.TeamAffinityKey([]uuid.UUID{personID, otherID}, versionID),
		cache.RecommendationsKey([]uuid.UUID{personID}, 70, nil),
	}
	unrelated := cache.PersonAffinityKey(otherID, versionID)
	for _, key := range append(stale, unrelated) {
		require.NoError(t, store.Set(ctx, key.String(), "{}", time.Minute))
	}

	_, err := svc.RecalculateAffinities(ctx, personID)
	require.NoError(t, err)

	for _, key := range stale {
		_, ok, err := store.Get(ctx, key.String())
		require.NoError(t, err)
		assert.False(t, ok, "expected %s to be invalidated", key)
	}
	_, ok, err := store.Get(ctx, unrelated.String())
	require.NoError(t, err)
	assert.True(t, ok, "unrelated person's entry must survive")
}

func TestGetPersonAffinityNotComputed(t *testing.T) {
	ctx := context.Background()
	_, _, _, svc := newAffinityFixture(nil)

	_, err := svc.GetPersonAffinity(ctx, uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGetPersonAffinityCachesResult(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	profiles, practices, affinities, svc := newAffinityFixture(store)

	personID := uuid.New()
	versionID := uuid.New()
	require.NoError(t, profiles.Upsert(ctx, &models.PersonalityProfile{
		PersonID: personID,
		Status:   models.ProfileComplete,
	}))
	practices.versions = []*models.PracticeVersion{
		{ID: versionID, PracticeID: uuid.New(), Name: "Kanban", Published: true},
	}

	_, err := svc.RecalculateAffinities(ctx, personID)
	require.NoError(t, err)

	first, err := svc.GetPersonAffinity(ctx, personID, versionID)
	require.NoError(t, err)

	// Wipe the backing rows; a cached read must still serve the value.
	affinities.rows[personID] = nil

	second, err := svc.GetPersonAffinity(ctx, personID, versionID)
	require.NoError(t, err)
	assert.Equal(t, first.Affinity, second.Affinity)
}
