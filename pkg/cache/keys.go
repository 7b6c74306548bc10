package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Key is a cache key derived from an operation tag and its canonicalized
// arguments. Semantically identical requests always build the same key
// regardless of argument order.
type Key struct {
	s string
}

func (k Key) String() string {
	return k.s
}

// Operation tags. These prefix every key and every invalidation pattern.
const (
	opPersonAffinity = "affinity:person"
	opTeamAffinity   = "affinity:team"
	opRecommendation = "reco:team"
	opAlternatives   = "reco:alt"
)

// canonicalMembers returns the member IDs sorted and joined with ".".
// Full UUIDs are kept in the key so person-scoped invalidation patterns
// cannot under-match.
func canonicalMembers(memberIDs []uuid.UUID) string {
	ids := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, ".")
}

func canonicalGoals(goalIDs []uuid.UUID) string {
	if len(goalIDs) == 0 {
		return "all"
	}
	ids := make([]string, len(goalIDs))
	for i, id := range goalIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, ".")
}

// PersonAffinityKey keys one person's affinity for one practice version.
func PersonAffinityKey(personID, practiceVersionID uuid.UUID) Key {
	return Key{fmt.Sprintf("%s:%s:practice:%s", opPersonAffinity, personID, practiceVersionID)}
}

// TeamAffinityKey keys a team affinity summary for a member set and practice.
func TeamAffinityKey(memberIDs []uuid.UUID, practiceVersionID uuid.UUID) Key {
	return Key{fmt.Sprintf("%s:%s:practice:%s", opTeamAffinity, canonicalMembers(memberIDs), practiceVersionID)}
}

// RecommendationsKey keys a ranked recommendation list.
func RecommendationsKey(memberIDs []uuid.UUID, threshold int, goalIDs []uuid.UUID) Key {
	return Key{fmt.Sprintf("%s:%s:threshold:%s:goals:%s",
		opRecommendation, canonicalMembers(memberIDs), strconv.Itoa(threshold), canonicalGoals(goalIDs))}
}

// AlternativesKey keys an alternative-practice search.
func AlternativesKey(practiceVersionID uuid.UUID, memberIDs []uuid.UUID, minImprovement int) Key {
	return Key{fmt.Sprintf("%s:%s:members:%s:improve:%s",
		opAlternatives, practiceVersionID, canonicalMembers(memberIDs), strconv.Itoa(minImprovement))}
}

// PersonPatterns returns the invalidation patterns covering every cache
// entry whose value could depend on the given person: their individual
// affinities, every team summary for a member set containing them, and
// every recommendation or alternative list over such a member set.
func PersonPatterns(personID uuid.UUID) []string {
	pid := personID.String()
	return []string{
		opPersonAffinity + ":" + pid + ":*",
		opTeamAffinity + ":*" + pid + "*",
		opRecommendation + ":*" + pid + "*",
		opAlternatives + ":*" + pid + "*",
	}
}

// PracticePatterns returns the invalidation patterns covering every cache
// entry whose value could depend on the given practice version, used when
// a practice's trait weights or goal links change.
func PracticePatterns(practiceVersionID uuid.UUID) []string {
	pvid := practiceVersionID.String()
	return []string{
		opPersonAffinity + ":*:practice:" + pvid,
		opTeamAffinity + ":*:practice:" + pvid,
		// Ranked lists select over all practices; drop them all.
		opRecommendation + ":*",
		opAlternatives + ":*",
	}
}
