package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agilehub/practice-engine/pkg/database"
	"github.com/agilehub/practice-engine/pkg/models"
)

// SurveyRepository defines the interface for survey response data access.
// Responses are append-only; new answers supersede old rows per item.
type SurveyRepository interface {
	InsertBatch(ctx context.Context, responses []*models.SurveyResponse) error
	// LatestByPerson returns the most recent response per item for a person.
	LatestByPerson(ctx context.Context, personID uuid.UUID) ([]*models.SurveyResponse, error)
}

// surveyRepository implements SurveyRepository using PostgreSQL.
type surveyRepository struct {
	db *database.DB
}

// NewSurveyRepository creates a new survey response repository.
func NewSurveyRepository(db *database.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

// InsertBatch appends a batch of responses atomically. An empty batch is a no-op.
func (r *surveyRepository) InsertBatch(ctx context.Context, responses []*models.SurveyResponse) error {
	if len(responses) == 0 {
		return nil
	}

	now := time.Now()
	batch := &pgx.Batch{}
	query := `
		INSERT INTO survey_responses (id, person_id, item_id, result, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	for _, resp := range responses {
		if resp.ID == uuid.Nil {
			resp.ID = uuid.New()
		}
		if resp.CreatedAt.IsZero() {
			resp.CreatedAt = now
		}
		batch.Queue(query, resp.ID, resp.PersonID, resp.ItemID, resp.Result, resp.CreatedAt)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	results := tx.SendBatch(ctx, batch)
	for range responses {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert survey response: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestByPerson retrieves the latest response per item for a person.
func (r *surveyRepository) LatestByPerson(ctx context.Context, personID uuid.UUID) ([]*models.SurveyResponse, error) {
	query := `
		SELECT DISTINCT ON (item_id) id, person_id, item_id, result, created_at
		FROM survey_responses
		WHERE person_id = $1
		ORDER BY item_id, created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.SurveyResponse
	for rows.Next() {
		var resp models.SurveyResponse
		err := rows.Scan(
			&resp.ID,
			&resp.PersonID,
			&resp.ItemID,
			&resp.Result,
			&resp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey response: %w", err)
		}
		responses = append(responses, &resp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating survey responses: %w", err)
	}

	return responses, nil
}

// Ensure surveyRepository implements SurveyRepository at compile time.
var _ SurveyRepository = (*surveyRepository)(nil)
