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

// AffinityRepository defines the interface for derived affinity row access.
type AffinityRepository interface {
	// ReplaceForPerson atomically replaces every affinity row for a person
	// and clears the profile's recalc_pending flag. Either all rows are
	// refreshed or none are.
	ReplaceForPerson(ctx context.Context, personID uuid.UUID, rows []*models.PersonPracticeAffinity) error
	// GetForPerson returns one row or apperrors.ErrNotFound when the
	// affinity has not been computed yet.
	GetForPerson(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error)
	// GetForMembers returns the rows that exist for the given members and
	// practice version. Members without a row are simply absent.
	GetForMembers(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) ([]*models.PersonPracticeAffinity, error)
}

// affinityRepository implements AffinityRepository using PostgreSQL.
type affinityRepository struct {
	db *database.DB
}

// NewAffinityRepository creates a new affinity repository.
func NewAffinityRepository(db *database.DB) AffinityRepository {
	return &affinityRepository{db: db}
}

// ReplaceForPerson atomically replaces every affinity row for a person.
func (r *affinityRepository) ReplaceForPerson(ctx context.Context, personID uuid.UUID, rows []*models.PersonPracticeAffinity) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM person_practice_affinities WHERE person_id = $1`, personID); err != nil {
		return fmt.Errorf("failed to clear stale affinities: %w", err)
	}

	now := time.Now()
	batch := &pgx.Batch{}
	insert := `
		INSERT INTO person_practice_affinities (person_id, practice_version_id, affinity, computed_at)
		VALUES ($1, $2, $3, $4)`
	for _, row := range rows {
		if row.ComputedAt.IsZero() {
			row.ComputedAt = now
		}
		batch.Queue(insert, row.PersonID, row.PracticeVersionID, row.Affinity, row.ComputedAt)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert affinity row: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	// The refreshed rows satisfy the pending recalculation.
	if _, err = tx.Exec(ctx,
		`UPDATE personality_profiles SET recalc_pending = false, updated_at = $1 WHERE person_id = $2`,
		now, personID); err != nil {
		return fmt.Errorf("failed to clear recalc pending: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetForPerson retrieves one affinity row.
func (r *affinityRepository) GetForPerson(ctx context.Context, personID, practiceVersionID uuid.UUID) (*models.PersonPracticeAffinity, error) {
	query := `
		SELECT person_id, practice_version_id, affinity, computed_at
		FROM person_practice_affinities
		WHERE person_id = $1 AND practice_version_id = $2`

	var row models.PersonPracticeAffinity
	err := r.db.QueryRow(ctx, query, personID, practiceVersionID).Scan(
		&row.PersonID,
		&row.PracticeVersionID,
		&row.Affinity,
		&row.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get affinity: %w", err)
	}

	return &row, nil
}

// GetForMembers retrieves the affinity rows that exist for the given members.
func (r *affinityRepository) GetForMembers(ctx context.Context, memberIDs []uuid.UUID, practiceVersionID uuid.UUID) ([]*models.PersonPracticeAffinity, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT person_id, practice_version_id, affinity, computed_at
		FROM person_practice_affinities
		WHERE person_id = ANY($1) AND practice_version_id = $2
		ORDER BY person_id`

	rows, err := r.db.Query(ctx, query, memberIDs, practiceVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member affinities: %w", err)
	}
	defer rows.Close()

	var affinities []*models.PersonPracticeAffinity
	for rows.Next() {
		var row models.PersonPracticeAffinity
		err := rows.Scan(
			&row.PersonID,
			&row.PracticeVersionID,
			&row.Affinity,
			&row.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan affinity: %w", err)
		}
		affinities = append(affinities, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating affinities: %w", err)
	}

	return affinities, nil
}

// Ensure affinityRepository implements AffinityRepository at compile time.
var _ AffinityRepository = (*affinityRepository)(nil)
