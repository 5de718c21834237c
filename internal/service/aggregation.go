package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fantasy-tracker/internal/constants"
	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/repository"
	"fantasy-tracker/internal/scoring"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// standingsConcurrency bounds parallel team scoring so a season-wide
// standings query cannot starve short single-player lookups.
const standingsConcurrency = 8

// AggregationService joins the stat store, scoring engine and membership
// registry to answer score and standings queries. All operations are
// read-only; the only side effect is score cache population.
type AggregationService struct {
	players    *repository.PlayerRepository
	stats      *repository.StatRepository
	membership *repository.MembershipRepository
	rules      *repository.RuleRepository
	cache      *scoring.Cache
	logger     zerolog.Logger
}

func NewAggregationService(
	players *repository.PlayerRepository,
	stats *repository.StatRepository,
	membership *repository.MembershipRepository,
	rules *repository.RuleRepository,
	cache *scoring.Cache,
	logger zerolog.Logger,
) *AggregationService {
	return &AggregationService{
		players:    players,
		stats:      stats,
		membership: membership,
		rules:      rules,
		cache:      cache,
		logger:     logger,
	}
}

// GetPlayerPerformance returns the player's raw stat line for the week plus
// one score per league the player is rostered in. A player rostered nowhere
// gets the raw record and an empty score list.
func (s *AggregationService) GetPlayerPerformance(ctx context.Context, playerID string, season, week int) (*domain.PlayerPerformance, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	record, err := s.stats.LatestRecord(ctx, playerID, season, week)
	if err != nil {
		return nil, err
	}

	leagues, err := s.membership.LeaguesForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.FantasyScore, 0, len(leagues))
	for _, league := range leagues {
		rules, err := s.leagueRules(ctx, league.LeagueID)
		if err != nil {
			return nil, err
		}

		score, err := s.cache.Score(record, rules)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	s.logger.Debug().Str("player_id", playerID).Int("season", season).Int("week", week).
		Int("league_count", len(scores)).Msg("player performance computed")

	return &domain.PlayerPerformance{Record: record, Scores: scores}, nil
}

// GetTeamScore sums the week's scores over the team's current roster.
// Rostered players with no stat line contribute zero; bye weeks and injuries
// are expected, not exceptional.
func (s *AggregationService) GetTeamScore(ctx context.Context, teamID string, season, week int) (*domain.TeamScore, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	team, err := s.membership.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	rules, err := s.leagueRules(ctx, team.LeagueID)
	if err != nil {
		return nil, err
	}

	return s.scoreTeam(ctx, team, rules, season, week)
}

func (s *AggregationService) scoreTeam(ctx context.Context, team *domain.Team, rules *domain.ScoringRules, season, week int) (*domain.TeamScore, error) {
	result := &domain.TeamScore{Team: *team}

	for _, slot := range team.Roster {
		record, err := s.stats.LatestRecord(ctx, slot.Player.PlayerID, season, week)
		if errors.Is(err, domain.ErrNotFound) {
			result.PlayerScores = append(result.PlayerScores, domain.PlayerScore{
				Player: slot.Player,
				Slot:   slot.Slot,
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		score, err := s.cache.Score(record, rules)
		if err != nil {
			return nil, err
		}

		result.PlayerScores = append(result.PlayerScores, domain.PlayerScore{
			Player:    slot.Player,
			Slot:      slot.Slot,
			Points:    score.Points,
			HasRecord: true,
		})
		result.Total += score.Points
	}

	return result, nil
}

// GetLeagueStandings ranks the league's teams by cumulative total over weeks
// 1..upToWeek. Equal totals order by ascending team id so repeated calls
// with identical inputs return identical standings.
func (s *AggregationService) GetLeagueStandings(ctx context.Context, leagueID string, season, upToWeek int) ([]domain.Standing, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if upToWeek < 1 {
		return nil, fmt.Errorf("upToWeek must be at least 1, got %d", upToWeek)
	}

	if _, err := s.membership.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}

	rules, err := s.leagueRules(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	teams, err := s.membership.TeamsInLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	standings := make([]domain.Standing, len(teams))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(standingsConcurrency)
	for i, team := range teams {
		i, team := i, team
		g.Go(func() error {
			roster, err := s.membership.GetRoster(gCtx, team.TeamID)
			if err != nil {
				return err
			}
			team.Roster = roster

			var total float64
			for week := 1; week <= upToWeek; week++ {
				weekScore, err := s.scoreTeam(gCtx, &team, rules, season, week)
				if err != nil {
					return err
				}
				total += weekScore.Total
			}
			standings[i] = domain.Standing{Team: team, Total: total}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total > standings[j].Total
		}
		return standings[i].Team.TeamID < standings[j].Team.TeamID
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}

	s.logger.Info().Str("league_id", leagueID).Int("season", season).
		Int("up_to_week", upToWeek).Int("team_count", len(standings)).Msg("standings computed")

	return standings, nil
}

func (s *AggregationService) GetAllPlayers(ctx context.Context, filter domain.PlayerFilter) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.players.List(ctx, filter)
}

func (s *AggregationService) GetPlayerByID(ctx context.Context, playerID string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.players.Get(ctx, playerID)
}

// ListPlayerRecords returns every stat line for the player ordered by season
// then week, latest version of each.
func (s *AggregationService) ListPlayerRecords(ctx context.Context, playerID string) ([]domain.StatLine, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.players.Get(ctx, playerID); err != nil {
		return nil, err
	}
	return s.stats.ListRecords(ctx, playerID)
}

func (s *AggregationService) ListPerformances(ctx context.Context, filter domain.PerformanceFilter) ([]domain.StatLine, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.stats.ListPerformances(ctx, filter)
}

func (s *AggregationService) GetLeague(ctx context.Context, leagueID string) (*domain.League, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.membership.GetLeague(ctx, leagueID)
}

func (s *AggregationService) ListLeagues(ctx context.Context, filter domain.LeagueFilter) ([]domain.League, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.membership.ListLeagues(ctx, filter)
}

func (s *AggregationService) ListTeams(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.membership.ListTeams(ctx, filter)
}

// Counts backs the analytics endpoint.
func (s *AggregationService) Counts(ctx context.Context) (*domain.Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var counts domain.Counts
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		counts.PlayerCount, err = s.players.Count(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		counts.TeamCount, err = s.membership.CountTeams(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		counts.LeagueCount, err = s.membership.CountLeagues(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &counts, nil
}

// leagueRules resolves the league's current rule set. A league without a
// published rule set is a configuration error for that league's queries, not
// a crash.
func (s *AggregationService) leagueRules(ctx context.Context, leagueID string) (*domain.ScoringRules, error) {
	rules, err := s.rules.Latest(ctx, leagueID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Error().Str("league_id", leagueID).Msg("league has no published scoring rules")
		return nil, &domain.ConfigurationError{LeagueID: leagueID, Reason: "no published scoring rules"}
	}
	if err != nil {
		return nil, err
	}
	return rules, nil
}
