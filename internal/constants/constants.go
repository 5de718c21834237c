package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// DefaultDailyQuota is the admission ceiling per API key per calendar day.
	DefaultDailyQuota = 2000
	// QuotaReapInterval bounds how often stale day buckets are swept.
	QuotaReapInterval = 1 * time.Hour
	AnonymousQuotaKey = "anonymous"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 10000
)

const (
	// FeedRequestsPerSecond throttles calls to the upstream stat feed.
	FeedRequestsPerSecond = 5
	FeedBurst             = 10
)
