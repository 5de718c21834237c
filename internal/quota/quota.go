// Package quota admits or rejects requests against a per-API-key daily
// ceiling. A key moves from fresh through active counting to throttled, and
// resets when the calendar day rolls over in the configured timezone; the
// window is a fixed day boundary, not a rolling 24 hours.
package quota

import (
	"context"
	"time"

	"fantasy-tracker/internal/constants"
	"fantasy-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// Store counts requests per (key, day) bucket. Implementations must make
// Incr atomic; keys are independent so contention stays low.
type Store interface {
	// Incr adds one request to the bucket and returns the new count.
	Incr(ctx context.Context, key, day string) (int64, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Enforcer struct {
	store  Store
	limit  int64
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

func NewEnforcer(store Store, limit int64, loc *time.Location, logger zerolog.Logger) *Enforcer {
	if loc == nil {
		loc = time.UTC
	}
	return &Enforcer{
		store:  store,
		limit:  limit,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// Check admits one request for the key. An empty key falls into the shared
// anonymous bucket since the API permits unauthenticated use. Rejection is a
// QuotaExceededError so callers can tell throttling from data errors.
func (e *Enforcer) Check(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		key = constants.AnonymousQuotaKey
	}

	now := e.now().In(e.loc)
	day := now.Format("2006-01-02")

	count, err := e.store.Incr(ctx, key, day)
	if err != nil {
		e.logger.Error().Err(err).Str("key", key).Msg("quota store unavailable")
		return Decision{}, err
	}

	if count > e.limit {
		retryAfter := untilNextDay(now)
		e.logger.Warn().Str("key", key).Int64("count", count).Int64("limit", e.limit).Msg("quota exceeded")
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter},
			&domain.QuotaExceededError{Key: key, Limit: e.limit, RetryAfter: retryAfter}
	}

	return Decision{Allowed: true, Remaining: e.limit - count}, nil
}

func (e *Enforcer) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

func (e *Enforcer) Limit() int64 {
	return e.limit
}

// SetClock overrides the time source, for tests only.
func (e *Enforcer) SetClock(now func() time.Time) {
	e.now = now
}

func untilNextDay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}
