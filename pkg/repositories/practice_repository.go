package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/database"
	"github.com/agilehub/practice-engine/pkg/models"
)

// PracticeRepository defines read access to the practice catalogue owned by
// the external content-management side: practice versions with declared
// trait weights, publication state, and goal links.
type PracticeRepository interface {
	// GetVersion returns one practice version or apperrors.ErrNotFound.
	GetVersion(ctx context.Context, practiceVersionID uuid.UUID) (*models.PracticeVersion, error)
	// ListPublished returns every published practice version.
	ListPublished(ctx context.Context) ([]*models.PracticeVersion, error)
	// ListPublishedByGoals returns published versions linked to at least
	// one of the given goals.
	ListPublishedByGoals(ctx context.Context, goalIDs []uuid.UUID) ([]*models.PracticeVersion, error)
	// ListVersionsWithTraits returns every version carrying a trait
	// profile, published or not. Recalculation scores against all of them
	// so no rows go stale when a practice is later published.
	ListVersionsWithTraits(ctx context.Context) ([]*models.PracticeVersion, error)
	// GoalsForVersion returns the goals linked to a practice version.
	GoalsForVersion(ctx context.Context, practiceVersionID uuid.UUID) ([]*models.Goal, error)
}

// practiceRepository implements PracticeRepository using PostgreSQL.
type practiceRepository struct {
	db *database.DB
}

// NewPracticeRepository creates a new practice catalogue repository.
func NewPracticeRepository(db *database.DB) PracticeRepository {
	return &practiceRepository{db: db}
}

const practiceVersionColumns = `id, practice_id, name, published,
	openness, conscientiousness, extraversion, agreeableness, neuroticism, created_at`

func scanPracticeVersion(row pgx.Row) (*models.PracticeVersion, error) {
	var pv models.PracticeVersion
	err := row.Scan(
		&pv.ID,
		&pv.PracticeID,
		&pv.Name,
		&pv.Published,
		&pv.Traits.Openness,
		&pv.Traits.Conscientiousness,
		&pv.Traits.Extraversion,
		&pv.Traits.Agreeableness,
		&pv.Traits.Neuroticism,
		&pv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pv, nil
}

// GetVersion retrieves one practice version.
func (r *practiceRepository) GetVersion(ctx context.Context, practiceVersionID uuid.UUID) (*models.PracticeVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM practice_versions WHERE id = $1`, practiceVersionColumns)

	pv, err := scanPracticeVersion(r.db.QueryRow(ctx, query, practiceVersionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get practice version: %w", err)
	}

	return pv, nil
}

func (r *practiceRepository) listVersions(ctx context.Context, query string, args ...any) ([]*models.PracticeVersion, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.PracticeVersion
	for rows.Next() {
		pv, err := scanPracticeVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan practice version: %w", err)
		}
		versions = append(versions, pv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating practice versions: %w", err)
	}

	return versions, nil
}

// ListPublished returns every published practice version.
func (r *practiceRepository) ListPublished(ctx context.Context) ([]*models.PracticeVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM practice_versions WHERE published ORDER BY name`, practiceVersionColumns)
	return r.listVersions(ctx, query)
}

// ListPublishedByGoals returns published versions linked to at least one goal.
func (r *practiceRepository) ListPublishedByGoals(ctx context.Context, goalIDs []uuid.UUID) ([]*models.PracticeVersion, error) {
	if len(goalIDs) == 0 {
		return r.ListPublished(ctx)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM practice_versions pv
		JOIN practice_goals pg ON pg.practice_version_id = pv.id
		WHERE pv.published AND pg.goal_id = ANY($1)
		ORDER BY name`, prefixedPracticeVersionColumns("pv"))
	return r.listVersions(ctx, query, goalIDs)
}

// ListVersionsWithTraits returns every version carrying a trait profile.
func (r *practiceRepository) ListVersionsWithTraits(ctx context.Context) ([]*models.PracticeVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM practice_versions ORDER BY name`, practiceVersionColumns)
	return r.listVersions(ctx, query)
}

// GoalsForVersion returns the goals linked to a practice version.
func (r *practiceRepository) GoalsForVersion(ctx context.Context, practiceVersionID uuid.UUID) ([]*models.Goal, error) {
	query := `
		SELECT g.id, g.name
		FROM goals g
		JOIN practice_goals pg ON pg.goal_id = g.id
		WHERE pg.practice_version_id = $1
		ORDER BY g.name`

	rows, err := r.db.Query(ctx, query, practiceVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	defer rows.Close()

	var goals []*models.Goal
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(&goal.ID, &goal.Name); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, &goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	return goals, nil
}

func prefixedPracticeVersionColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.practice_id, %[1]s.name, %[1]s.published,
	%[1]s.openness, %[1]s.conscientiousness, %[1]s.extraversion, %[1]s.agreeableness, %[1]s.neuroticism, %[1]s.created_at`, alias)
}

// Ensure practiceRepository implements PracticeRepository at compile time.
var _ PracticeRepository = (*practiceRepository)(nil)
