package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/models"
)

// mockSurveyRepo implements repositories.SurveyRepository in memory.
type mockSurveyRepo struct {
	mu        sync.Mutex
	responses []*models.SurveyResponse
	insertErr error
}

func (m *mockSurveyRepo) InsertBatch(ctx context.Context, responses []*models.SurveyResponse) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return nil
}

func (m *mockSurveyRepo) LatestByPerson(ctx context.Context, personID uuid.UUID) ([]*models.SurveyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Last write wins per item, mirroring the DISTINCT ON query.
	latest := make(map[string]*models.SurveyResponse)
	for _, resp := range m.responses {
		if resp.PersonID == personID {
			latest[resp.ItemID] = resp
		}
	}
	out := make([]*models.SurveyResponse, 0, len(latest))
	for _, resp := range latest {
		out = append(out, resp)
	}
	return out, nil
}

// mockProfileRepo implements repositories.ProfileRepository in memory.
type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.PersonalityProfile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]*models.PersonalityProfile)}
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *models.PersonalityProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *profile
	m.profiles[profile.PersonID] = &copied
	return nil
}

func (m *mockProfileRepo) GetByPerson(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[personID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (m *mockProfileRepo) SetRecalcPending(ctx context.Context, personID uuid.UUID, pending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile, ok := m.profiles[personID]; ok {
		profile.RecalcPending = pending
	}
	return nil
}

// mockPracticeRepo implements repositories.PracticeRepository in memory.
type mockPracticeRepo struct {
	versions []*models.PracticeVersion
	// goals maps practice version ID to its linked goal IDs.
	goals map[uuid.UUID][]uuid.UUID
}

func (m *mockPracticeRepo) GetVersion(ctx context.Context, practiceVersionID uuid.UUID) (*models.PracticeVersion, error) {
	for _, v := range m.versions {
		if v.ID == practiceVersionID {
			return v, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockPracticeRepo) ListPublished(ctx context.Context) ([]*models.PracticeVersion, error) {
	var out []*models.PracticeVersion
	for _, v := range m.versions {
		if v.Published {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockPracticeRepo) ListPublishedByGoals(ctx context.Context, goalIDs []uuid.UUID) ([]*models.PracticeVersion, error) {
	if len(goalIDs) == 0 {
		return m.ListPublished(ctx)
	}
	wanted := make(map[uuid.UUID]bool, len(goalIDs))
	for _, id := range goalIDs {
		wanted[id] = true
	}
	var out []*models.PracticeVersion
	for _, v := range m.versions {
		if !v.Published {
			continue
		}
		for _, goalID := range m.goals[v.ID] {
			if wanted[goalID] {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}

func (m *mockPracticeRepo) ListVersionsWithTraits(ctx context.Context) ([]*models.PracticeVersion, error) {
	return m.versions, nil
}

func (m *mockPracticeRepo) GoalsForVersion(ctx context.Context, practiceVersionID uuid.UUID) ([]*models.Goal, error) {
	var out []*models.Goal
	for _, goalID := range m.goals[practiceVersionID] {
		out = append(out, &models.Goal{ID: goalID})
	}
	return out, nil
}

// mockAffinityRepo implements repositories.AffinityRepository in memory.
type mockAffinityRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]*models.PersonPracticeAffinity // keyed by person
	// recalcCleared records persons whose pending flag was cleared by
	// ReplaceForPerson, mirroring the transactional clear in the real repo.
	recalcCleared []uuid.UUID
	replaceErr    error
}

func newMockAffinityRepo() *mockAffinityRepo {
	return &mockAffinityRepo{rows: make(map[uuid.UUID][]*models.PersonPracticeAffinity)}
}

func (m *mockAffinityRepo) ReplaceForPerson(ctx context.Context, personID uuid.UUID, rows []*models.PersonPracticeAffinity) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[personID] = rows
	m.recalcCleared = append(m.recalcCleared, personID)
	return nil
}

func (m *mockAffinityRepo) GetForPerson(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows[personID] {
		if row.PracticeVersionID == practiceVersionID {
			return row, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAffinityRepo) GetForMembers(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) ([]*models.PersonPracticeAffinity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PersonPracticeAffinity
	for _, memberID := range memberIDs {
		for _, row := range m.rows[memberID] {
			if row.PracticeVersionID == practiceVersionID {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

// mockTeamRepo implements repositories.TeamRepository in memory.
type mockTeamRepo struct {
	teams map[uuid.UUID]*models.Team
}

func (m *mockTeamRepo) GetTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	team, ok := m.teams[teamID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return team, nil
}

// recordingScheduler records scheduled person IDs instead of running anything.
type recordingScheduler struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
}

func (s *recordingScheduler) Schedule(personID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, personID)
}

func (s *recordingScheduler) calls() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.scheduled...)
}
