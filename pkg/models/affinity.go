package models

import (
	"time"

	"github.com/google/uuid"
)

// Affinity score bounds.
const (
	AffinityMin = 0
	AffinityMax = 100
)

// PersonPracticeAffinity is the derived fit score of one person for one
// practice version. Rows are fully recomputed whenever the person's profile
// changes; they are never hand-edited.
type PersonPracticeAffinity struct {
	PersonID          uuid.UUID `json:"person_id"`
	PracticeVersionID uuid.UUID `json:"practice_version_id"`
	Affinity          int       `json:"affinity"` // 0..100
	ComputedAt        time.Time `json:"computed_at"`
}

// MemberScore is one member's contribution to a team affinity summary.
type MemberScore struct {
	PersonID uuid.UUID `json:"person_id"`
	Affinity int       `json:"affinity"`
}

// TeamAffinitySummary aggregates member affinities for one practice version.
// Members without a persisted affinity row are excluded, not counted as zero:
// MemberCount is the number of contributing members while TeamSize is the
// size of the requested member set.
type TeamAffinitySummary struct {
	PracticeVersionID uuid.UUID     `json:"practice_version_id"`
	Average           float64       `json:"average"`
	Minimum           int           `json:"minimum"`
	Maximum           int           `json:"maximum"`
	StandardDeviation float64       `json:"standard_deviation"`
	MemberCount       int           `json:"member_count"`
	TeamSize          int           `json:"team_size"`
	IndividualScores  []MemberScore `json:"individual_scores"`
}

// Recommendation pairs a candidate practice with its team affinity and the
// threshold verdict. Reason is non-empty whenever Recommended is false.
type Recommendation struct {
	Practice     *PracticeVersion    `json:"practice"`
	TeamAffinity TeamAffinitySummary `json:"team_affinity"`
	Recommended  bool                `json:"recommended"`
	Reason       string              `json:"reason,omitempty"`
}
