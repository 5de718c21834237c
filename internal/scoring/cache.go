package scoring

import (
	"sync"

	"fantasy-tracker/internal/domain"
)

type cacheKey struct {
	recordVersion string
	ruleVersion   string
}

// Cache memoizes computed scores. Keys include the record version and rule
// version, so a stat correction or a rule change can never serve a stale
// total; superseded entries just stop being referenced.
type Cache struct {
	mu     sync.RWMutex
	scores map[cacheKey]domain.FantasyScore
}

func NewCache() *Cache {
	return &Cache{scores: make(map[cacheKey]domain.FantasyScore)}
}

func (c *Cache) Get(recordVersion, ruleVersion string) (domain.FantasyScore, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	score, ok := c.scores[cacheKey{recordVersion, ruleVersion}]
	return score, ok
}

func (c *Cache) Put(score domain.FantasyScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[cacheKey{score.RecordVersion, score.RuleVersion}] = score
}

// Score returns the cached score for the pair or computes and caches it.
func (c *Cache) Score(record *domain.StatLine, rules *domain.ScoringRules) (domain.FantasyScore, error) {
	if score, ok := c.Get(record.VersionID, rules.VersionID); ok {
		return score, nil
	}

	score, err := ComputeScore(record, rules)
	if err != nil {
		return domain.FantasyScore{}, err
	}
	c.Put(score)
	return score, nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scores)
}
