package models

import (
	"time"

	"github.com/google/uuid"
)

// ProfileStatus describes how far a personality profile has been derived.
type ProfileStatus string

const (
	// ProfileIncomplete marks a profile stub that has never been scored.
	ProfileIncomplete ProfileStatus = "incomplete"
	// ProfilePartiallyComplete marks a profile written by an external
	// collaborator before all survey data arrived. The scoring function
	// never emits this status and the affinity calculator refuses it.
	ProfilePartiallyComplete ProfileStatus = "partially_complete"
	// ProfileComplete marks a profile derived by the scoring function.
	// A profile scored from zero responses is Complete with all-zero
	// dimensions; AnsweredItems distinguishes "no data" from all-low.
	ProfileComplete ProfileStatus = "complete"
)

// PersonalityProfile is the Big Five profile derived from a person's
// latest survey responses. One row per person, recalculated in full
// whenever new responses arrive.
type PersonalityProfile struct {
	PersonID uuid.UUID     `json:"person_id"`
	Traits   TraitVector   `json:"traits"`
	Status   ProfileStatus `json:"status"`

	// AnsweredItems is the number of catalogue items that contributed to
	// the scores. Zero means the all-zero profile carries no survey data.
	AnsweredItems int `json:"answered_items"`

	// RecalcPending is true while an affinity recalculation triggered by
	// a profile change has been enqueued but not yet committed.
	RecalcPending bool `json:"recalc_pending"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsScoreable reports whether affinities may be computed from this profile.
func (p *PersonalityProfile) IsScoreable() bool {
	return p.Status == ProfileComplete
}
