package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/database"
	"github.com/agilehub/practice-engine/pkg/models"
)

// ProfileRepository defines the interface for personality profile data access.
type ProfileRepository interface {
	// Upsert writes the profile for a person, replacing any existing row.
	Upsert(ctx context.Context, profile *models.PersonalityProfile) error
	// GetByPerson returns the profile or apperrors.ErrNotFound.
	GetByPerson(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error)
	// SetRecalcPending flags or clears the pending-recalculation marker.
	SetRecalcPending(ctx context.Context, personID uuid.UUID, pending bool) error
}

// profileRepository implements ProfileRepository using PostgreSQL.
type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new personality profile repository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Upsert writes the profile for a person, replacing any existing row.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.PersonalityProfile) error {
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	query := `
		INSERT INTO personality_profiles
			(person_id, openness, conscientiousness, extraversion, agreeableness, neuroticism,
			 status, answered_items, recalc_pending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (person_id) DO UPDATE
		SET openness = EXCLUDED.openness,
		    conscientiousness = EXCLUDED.conscientiousness,
		    extraversion = EXCLUDED.extraversion,
		    agreeableness = EXCLUDED.agreeableness,
		    neuroticism = EXCLUDED.neuroticism,
		    status = EXCLUDED.status,
		    answered_items = EXCLUDED.answered_items,
		    recalc_pending = EXCLUDED.recalc_pending,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		profile.PersonID,
		profile.Traits.Openness,
		profile.Traits.Conscientiousness,
		profile.Traits.Extraversion,
		profile.Traits.Agreeableness,
		profile.Traits.Neuroticism,
		profile.Status,
		profile.AnsweredItems,
		profile.RecalcPending,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// GetByPerson retrieves the profile for a person.
func (r *profileRepository) GetByPerson(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error) {
	query := `
		SELECT person_id, openness, conscientiousness, extraversion, agreeableness, neuroticism,
		       status, answered_items, recalc_pending, created_at, updated_at
		FROM personality_profiles
		WHERE person_id = $1`

	var profile models.PersonalityProfile
	err := r.db.QueryRow(ctx, query, personID).Scan(
		&profile.PersonID,
		&profile.Traits.Openness,
		&profile.Traits.Conscientiousness,
		&profile.Traits.Extraversion,
		&profile.Traits.Agreeableness,
		&profile.Traits.Neuroticism,
		&profile.Status,
		&profile.AnsweredItems,
		&profile.RecalcPending,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// SetRecalcPending flags or clears the pending-recalculation marker.
func (r *profileRepository) SetRecalcPending(ctx context.Context, personID uuid.UUID, pending bool) error {
	query := `UPDATE personality_profiles SET recalc_pending = $1, updated_at = $2 WHERE person_id = $3`

	result, err := r.db.Exec(ctx, query, pending, time.Now(), personID)
	if err != nil {
		return fmt.Errorf("failed to set recalc pending: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure profileRepository implements ProfileRepository at compile time.
var _ ProfileRepository = (*profileRepository)(nil)
