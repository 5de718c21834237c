package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fantasy-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	// Quota admission settings. An empty QuotaRedisAddr selects the
	// in-process store.
	QuotaDailyLimit int64
	QuotaTimezone   string
	QuotaRedisAddr  string

	// Upstream stat feed. FeedAPIKey may be empty when ingestion is not
	// scheduled on this instance.
	FeedBaseURL string
	FeedAPIKey  string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "fantasy.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		QuotaDailyLimit: getEnvInt64("QUOTA_DAILY_LIMIT", constants.DefaultDailyQuota),
		QuotaTimezone:   getEnv("QUOTA_TIMEZONE", "UTC"),
		QuotaRedisAddr:  getEnv("QUOTA_REDIS_ADDR", ""),
		FeedBaseURL:     getEnv("FEED_BASE_URL", "https://feed.sportsdata.example"),
		FeedAPIKey:      getEnv("FEED_API_KEY", ""),
	}

	if cfg.QuotaDailyLimit <= 0 {
		return nil, fmt.Errorf("QUOTA_DAILY_LIMIT must be positive, got %d", cfg.QuotaDailyLimit)
	}
	if _, err := time.LoadLocation(cfg.QuotaTimezone); err != nil {
		return nil, fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", cfg.QuotaTimezone, err)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int64("quota_daily_limit", cfg.QuotaDailyLimit).
		Str("quota_timezone", cfg.QuotaTimezone).
		Bool("quota_redis", cfg.QuotaRedisAddr != "").
		Msg("configuration loaded")

	return cfg, nil
}

// QuotaLocation is safe to call after Load validated the zone name.
func (c *Config) QuotaLocation() *time.Location {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
