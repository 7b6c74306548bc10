package models

import (
	"time"

	"github.com/google/uuid"
)

// PracticeVersion is one published revision of an agile practice together
// with the trait weights declared by experts. Practice content management
// is owned by an external collaborator; the engine only reads these rows.
type PracticeVersion struct {
	ID         uuid.UUID   `json:"id"`
	PracticeID uuid.UUID   `json:"practice_id"`
	Name       string      `json:"name"`
	Published  bool        `json:"published"`
	Traits     TraitVector `json:"traits"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Goal is an objective a practice can be linked to. Goals connect a flagged
// practice to alternative practices addressing the same objective.
type Goal struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Team is a stored member set. Ad-hoc member sets bypass this model.
type Team struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}
