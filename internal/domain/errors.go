package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is the sentinel for unknown players, teams, leagues and stat
// lines. Wrap it with the entity kind and id so callers can report what was
// missing.
var ErrNotFound = errors.New("not found")

func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// MalformedRecordError reports a data-integrity violation in a stat line,
// e.g. a NaN or infinite value from the upstream feed. It is surfaced, never
// skipped, because it indicates feed corruption.
type MalformedRecordError struct {
	PlayerID string
	Season   int
	Week     int
	Category string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed stat line for player %s season %d week %d, category %q: %s",
		e.PlayerID, e.Season, e.Week, e.Category, e.Reason)
}

// QuotaExceededError reports admission rejection, distinct from data errors
// so clients can tell throttling from failure.
type QuotaExceededError struct {
	Key        string
	Limit      int64
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota of %d requests exceeded for key %q", e.Limit, e.Key)
}

// ConfigurationError marks a league whose scoring rules are missing or
// unusable. Queries against that league fail; the service keeps running.
type ConfigurationError struct {
	LeagueID string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("league %s misconfigured: %s", e.LeagueID, e.Reason)
}
