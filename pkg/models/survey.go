package models

import (
	"time"

	"github.com/google/uuid"
)

// Likert scale bounds for survey answers.
const (
	LikertMin = 1
	LikertMax = 5
)

// SurveyResponse is one Likert-scale answer to a questionnaire item.
// Responses are append-only: a new answer to the same item supersedes the
// old row for scoring but never mutates it.
type SurveyResponse struct {
	ID        uuid.UUID `json:"id"`
	PersonID  uuid.UUID `json:"person_id"`
	ItemID    string    `json:"item_id"`
	Result    int       `json:"result"` // 1..5
	CreatedAt time.Time `json:"created_at"`
}
