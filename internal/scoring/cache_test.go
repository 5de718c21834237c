package scoring_test

import (
	"math"
	"testing"

	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheScoreMemoizes(t *testing.T) {
	cache := scoring.NewCache()
	record := statLine(map[string]float64{"reception": 5})
	ruleSet := rules(map[string]float64{"reception": 1})

	first, err := cache.Score(record, ruleSet)
	require.NoError(t, err)
	assert.Equal(t, 5.0, first.Points)
	assert.Equal(t, 1, cache.Len())

	second, err := cache.Score(record, ruleSet)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheNewVersionsBypassOldEntries(t *testing.T) {
	cache := scoring.NewCache()
	record := statLine(map[string]float64{"reception": 5})
	ruleSet := rules(map[string]float64{"reception": 1})

	original, err := cache.Score(record, ruleSet)
	require.NoError(t, err)
	assert.Equal(t, 5.0, original.Points)

	// A stat correction arrives as a new record version; the cached entry
	// for the old version must not be reused.
	corrected := statLine(map[string]float64{"reception": 7})
	corrected.VersionID = "rec-2"

	updated, err := cache.Score(corrected, ruleSet)
	require.NoError(t, err)
	assert.Equal(t, 7.0, updated.Points)

	// Same for a rule change.
	doubled := rules(map[string]float64{"reception": 2})
	doubled.VersionID = "rules-2"

	rescored, err := cache.Score(record, doubled)
	require.NoError(t, err)
	assert.Equal(t, 10.0, rescored.Points)

	assert.Equal(t, 3, cache.Len())
}

func TestCacheMalformedNotCached(t *testing.T) {
	cache := scoring.NewCache()
	record := statLine(map[string]float64{"reception": 5, "bad": math.Inf(1)})

	_, err := cache.Score(record, rules(map[string]float64{"reception": 1}))
	var malformed *domain.MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Zero(t, cache.Len())
}
