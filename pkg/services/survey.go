package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/models"
	"github.com/agilehub/practice-engine/pkg/repositories"
)

// SurveyAnswer is one submitted (item, result) pair.
type SurveyAnswer struct {
	ItemID string `json:"item_id"`
	Result int    `json:"result"`
}

// SurveyService defines the survey submission and profile read operations.
type SurveyService interface {
	// SubmitSurvey validates and stores a batch of answers, rescores the
	// person's profile from their complete response history, and schedules
	// an affinity recalculation. The returned profile has RecalcPending
	// set: derived affinities catch up asynchronously, in submission order.
	SubmitSurvey(ctx context.Context, personID uuid.UUID, answers []SurveyAnswer) (*models.PersonalityProfile, error)
	// GetProfile returns the person's profile or apperrors.ErrNotFound
	// when no survey has ever been scored for them.
	GetProfile(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error)
}

// RecalcScheduler dispatches asynchronous affinity recalculations.
type RecalcScheduler interface {
	Schedule(personID uuid.UUID)
}

// surveyService implements SurveyService.
type surveyService struct {
	surveys   repositories.SurveyRepository
	profiles  repositories.ProfileRepository
	catalogue *Catalogue
	scheduler RecalcScheduler
	logger    *zap.Logger
}

// NewSurveyService creates a new survey service with dependencies.
func NewSurveyService(
	surveys repositories.SurveyRepository,
	profiles repositories.ProfileRepository,
	catalogue *Catalogue,
	scheduler RecalcScheduler,
	logger *zap.Logger,
) SurveyService {
	return &surveyService{
		surveys:   surveys,
		profiles:  profiles,
		catalogue: catalogue,
		scheduler: scheduler,
		logger:    logger,
	}
}

// SubmitSurvey validates, stores, and scores a batch of answers.
func (s *surveyService) SubmitSurvey(ctx context.Context, personID uuid.UUID, answers []SurveyAnswer) (*models.PersonalityProfile, error) {
	// Validate the whole batch before touching storage.
	for _, answer := range answers {
		if answer.ItemID == "" {
			return nil, &apperrors.ValidationError{Field: "item_id", Message: "item id is required"}
		}
		if answer.Result < models.LikertMin || answer.Result > models.LikertMax {
			return nil, &apperrors.ValidationError{
				Field:   answer.ItemID,
				Message: fmt.Sprintf("result %d outside Likert range [%d,%d]", answer.Result, models.LikertMin, models.LikertMax),
			}
		}
	}

	rows := make([]*models.SurveyResponse, len(answers))
	for i, answer := range answers {
		rows[i] = &models.SurveyResponse{
			PersonID: personID,
			ItemID:   answer.ItemID,
			Result:   answer.Result,
		}
	}
	if err := s.surveys.InsertBatch(ctx, rows); err != nil {
		return nil, err
	}

	// Rescore from the full history, not just this batch: earlier answers
	// to other items still participate.
	history, err := s.surveys.LatestByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	traits, answered, err := ComputeProfile(s.catalogue, history)
	if err != nil {
		return nil, err
	}

	profile := &models.PersonalityProfile{
		PersonID:      personID,
		Traits:        traits,
		Status:        models.ProfileComplete,
		AnsweredItems: answered,
		RecalcPending: true,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("survey scored",
		zap.String("person_id", personID.String()),
		zap.Int("submitted", len(answers)),
		zap.Int("answered_items", answered))

	s.scheduler.Schedule(personID)

	return profile, nil
}

// GetProfile returns the person's current profile.
func (s *surveyService) GetProfile(ctx context.Context, personID uuid.UUID) (*models.PersonalityProfile, error) {
	return s.profiles.GetByPerson(ctx, personID)
}

// Ensure surveyService implements SurveyService at compile time.
var _ SurveyService = (*surveyService)(nil)
