// Package scoring computes fantasy points from raw stat lines under a
// league's rule set.
package scoring

import (
	"math"
	"sort"

	"fantasy-tracker/internal/domain"
)

// ComputeScore multiplies every statistical category in the record by the
// rule set's multiplier for that category and sums the products. Categories
// without a multiplier contribute zero, which keeps scoring
// forward-compatible with new feed categories. Iteration is lexicographic by
// category name so repeated calls with the same inputs are bit-for-bit
// identical; cached scores depend on that.
func ComputeScore(record *domain.StatLine, rules *domain.ScoringRules) (domain.FantasyScore, error) {
	categories := make([]string, 0, len(record.Stats))
	for category := range record.Stats {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var points float64
	for _, category := range categories {
		value := record.Stats[category]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return domain.FantasyScore{}, &domain.MalformedRecordError{
				PlayerID: record.PlayerID,
				Season:   record.Season,
				Week:     record.Week,
				Category: category,
				Reason:   "non-finite value",
			}
		}
		points += value * rules.Multipliers[category]
	}

	return domain.FantasyScore{
		PlayerID:      record.PlayerID,
		Season:        record.Season,
		Week:          record.Week,
		LeagueID:      rules.LeagueID,
		Points:        points,
		RecordVersion: record.VersionID,
		RuleVersion:   rules.VersionID,
	}, nil
}
