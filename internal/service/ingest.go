package service

import (
	"context"
	"fmt"
	"time"

	"fantasy-tracker/internal/constants"
	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/feed"
	"fantasy-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// IngestService feeds the stat store from the upstream provider. Stat lines
// are published append-only; re-ingesting a week after a correction adds new
// versions and never rewrites history.
type IngestService struct {
	feed    *feed.Client
	players *repository.PlayerRepository
	stats   *repository.StatRepository
	logger  zerolog.Logger
}

func NewIngestService(feedClient *feed.Client, players *repository.PlayerRepository, stats *repository.StatRepository, logger zerolog.Logger) *IngestService {
	return &IngestService{
		feed:    feedClient,
		players: players,
		stats:   stats,
		logger:  logger,
	}
}

// SyncPlayers refreshes the NFL player reference data.
func (s *IngestService) SyncPlayers(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	resp, err := s.feed.GetPlayers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch players from feed")
		return 0, fmt.Errorf("failed to fetch players from feed: %w", err)
	}

	players := make([]domain.Player, len(resp.Data))
	for i, p := range resp.Data {
		players[i] = domain.Player{
			PlayerID:        p.PlayerID,
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			Position:        p.Position,
			NFLTeam:         p.NFLTeam,
			LastChangedDate: p.LastChanged,
		}
	}

	if err := s.players.UpsertBatch(ctx, players); err != nil {
		s.logger.Error().Err(err).Int("count", len(players)).Msg("failed to upsert players")
		return 0, fmt.Errorf("failed to upsert players: %w", err)
	}

	s.logger.Info().Int("count", len(players)).Msg("players synced from feed")
	return len(players), nil
}

// SyncWeek publishes one week of stat lines.
func (s *IngestService) SyncWeek(ctx context.Context, season, week int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	resp, err := s.feed.GetWeekStats(ctx, season, week)
	if err != nil {
		s.logger.Error().Err(err).Int("season", season).Int("week", week).Msg("failed to fetch week stats from feed")
		return 0, fmt.Errorf("failed to fetch stats for season %d week %d: %w", season, week, err)
	}

	now := time.Now()
	lines := make([]domain.StatLine, len(resp.Data))
	for i, line := range resp.Data {
		lines[i] = domain.StatLine{
			PlayerID:        line.PlayerID,
			Season:          season,
			Week:            week,
			Stats:           line.Stats,
			IngestedAt:      now,
			LastChangedDate: line.LastChanged,
		}
	}

	if err := s.stats.PublishBatch(ctx, lines); err != nil {
		s.logger.Error().Err(err).Int("season", season).Int("week", week).Msg("failed to publish stat lines")
		return 0, fmt.Errorf("failed to publish stat lines for season %d week %d: %w", season, week, err)
	}

	s.logger.Info().Int("season", season).Int("week", week).Int("count", len(lines)).Msg("week stats synced from feed")
	return len(lines), nil
}
