package fx

import (
	"fantasy-tracker/internal/config"
	"fantasy-tracker/internal/database"
	"fantasy-tracker/internal/feed"
	"fantasy-tracker/internal/logger"
	"fantasy-tracker/internal/metrics"
	"fantasy-tracker/internal/quota"
	"fantasy-tracker/internal/repository"
	"fantasy-tracker/internal/scoring"
	"fantasy-tracker/internal/server"
	"fantasy-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQuotaStore(cfg *config.Config, log zerolog.Logger) quota.Store {
	if cfg.QuotaRedisAddr != "" {
		log.Info().Str("addr", cfg.QuotaRedisAddr).Msg("using redis quota store")
		return quota.NewRedisStore(cfg.QuotaRedisAddr)
	}
	return quota.NewMemoryStore()
}

func ProvideEnforcer(store quota.Store, cfg *config.Config, log zerolog.Logger) *quota.Enforcer {
	return quota.NewEnforcer(store, cfg.QuotaDailyLimit, cfg.QuotaLocation(), log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(metrics.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewStatRepository),
	fx.Provide(repository.NewMembershipRepository),
	fx.Provide(repository.NewRuleRepository),
	// scoring
	fx.Provide(scoring.NewCache),
	// feed client
	fx.Provide(feed.NewClient),
	// quota
	fx.Provide(ProvideQuotaStore),
	fx.Provide(ProvideEnforcer),
	// svc
	fx.Provide(service.NewAggregationService),
	fx.Provide(service.NewIngestService),
	// server
	fx.Provide(server.NewAPIServer),
)
