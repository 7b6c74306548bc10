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

// TeamRepository defines read access to stored teams and their member lists.
// Team management is owned by the external CRUD side.
type TeamRepository interface {
	// GetTeam returns a team with its member IDs or apperrors.ErrNotFound.
	GetTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
}

// teamRepository implements TeamRepository using PostgreSQL.
type teamRepository struct {
	db *database.DB
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *database.DB) TeamRepository {
	return &teamRepository{db: db}
}

// GetTeam retrieves a team with its member IDs.
func (r *teamRepository) GetTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := r.db.QueryRow(ctx, `SELECT id, name FROM teams WHERE id = $1`, teamID).
		Scan(&team.ID, &team.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT person_id FROM team_members WHERE team_id = $1 ORDER BY person_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var personID uuid.UUID
		if err := rows.Scan(&personID); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		team.MemberIDs = append(team.MemberIDs, personID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return &team, nil
}

// Ensure teamRepository implements TeamRepository at compile time.
var _ TeamRepository = (*teamRepository)(nil)
