package scoring_test

import (
	"math"
	"testing"

	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statLine(stats map[string]float64) *domain.StatLine {
	return &domain.StatLine{
		VersionID: "rec-1",
		PlayerID:  "P1",
		Season:    2025,
		Week:      3,
		Stats:     stats,
	}
}

func rules(multipliers map[string]float64) *domain.ScoringRules {
	return &domain.ScoringRules{
		VersionID:   "rules-1",
		LeagueID:    "L1",
		Multipliers: multipliers,
	}
}

func TestComputeScore(t *testing.T) {
	record := statLine(map[string]float64{
		"passingTouchdown": 2,
		"reception":        5,
	})
	ruleSet := rules(map[string]float64{
		"passingTouchdown": 4,
		"reception":        1,
	})

	score, err := scoring.ComputeScore(record, ruleSet)
	require.NoError(t, err)

	assert.Equal(t, 13.0, score.Points)
	assert.Equal(t, "P1", score.PlayerID)
	assert.Equal(t, "L1", score.LeagueID)
	assert.Equal(t, "rec-1", score.RecordVersion)
	assert.Equal(t, "rules-1", score.RuleVersion)
}

func TestComputeScoreDeterministic(t *testing.T) {
	// Many small magnitudes so a different summation order would show up in
	// the float bits.
	stats := map[string]float64{}
	multipliers := map[string]float64{}
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		stats[c] = 0.1
		multipliers[c] = 0.3
	}

	first, err := scoring.ComputeScore(statLine(stats), rules(multipliers))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := scoring.ComputeScore(statLine(stats), rules(multipliers))
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(first.Points), math.Float64bits(again.Points))
	}
}

func TestComputeScoreUnknownCategoryContributesZero(t *testing.T) {
	ruleSet := rules(map[string]float64{"reception": 1})

	withUnknown, err := scoring.ComputeScore(statLine(map[string]float64{
		"reception":       5,
		"kickReturnYards": 120,
	}), ruleSet)
	require.NoError(t, err)

	withoutUnknown, err := scoring.ComputeScore(statLine(map[string]float64{
		"reception": 5,
	}), ruleSet)
	require.NoError(t, err)

	assert.Equal(t, withoutUnknown.Points, withUnknown.Points)
}

func TestComputeScoreNegativeMultiplier(t *testing.T) {
	score, err := scoring.ComputeScore(
		statLine(map[string]float64{"passingTouchdown": 3, "interception": 2}),
		rules(map[string]float64{"passingTouchdown": 4, "interception": -2}),
	)
	require.NoError(t, err)
	assert.Equal(t, 8.0, score.Points)
}

func TestComputeScoreMalformedRecord(t *testing.T) {
	for name, value := range map[string]float64{
		"nan":          math.NaN(),
		"positive inf": math.Inf(1),
		"negative inf": math.Inf(-1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := scoring.ComputeScore(
				statLine(map[string]float64{"rushingYards": value}),
				rules(map[string]float64{"rushingYards": 0.1}),
			)

			var malformed *domain.MalformedRecordError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "P1", malformed.PlayerID)
			assert.Equal(t, "rushingYards", malformed.Category)
		})
	}
}

func TestComputeScoreEmptyRecord(t *testing.T) {
	score, err := scoring.ComputeScore(statLine(map[string]float64{}), rules(map[string]float64{"reception": 1}))
	require.NoError(t, err)
	assert.Zero(t, score.Points)
}
