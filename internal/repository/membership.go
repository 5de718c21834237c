package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fantasy-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// MembershipRepository holds leagues, teams and roster assignments. Roster
// writes run inside a single transaction so a concurrent read sees a change
// fully applied or not at all, and the unique (league_id, player_id) index
// keeps a player on at most one team per league.
type MembershipRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMembershipRepository(sqlDB *sql.DB, logger zerolog.Logger) *MembershipRepository {
	return &MembershipRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *MembershipRepository) CreateLeague(ctx context.Context, league *domain.League) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leagues (league_id, name, scoring_type, last_changed_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		league.LeagueID, league.Name, league.ScoringType, now, now, now)
	if err != nil {
		r.logger.Error().Err(err).Str("league_id", league.LeagueID).Msg("failed to create league")
		return fmt.Errorf("failed to create league %s: %w", league.LeagueID, err)
	}
	return nil
}

func (r *MembershipRepository) GetLeague(ctx context.Context, leagueID string) (*domain.League, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT league_id, name, scoring_type, last_changed_date, created_at, updated_at
		FROM leagues WHERE league_id = ?`, leagueID)

	var l domain.League
	err := row.Scan(&l.LeagueID, &l.Name, &l.ScoringType, &l.LastChangedDate, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("league", leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league %s: %w", leagueID, err)
	}

	teams, err := r.TeamsInLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	l.Teams = teams
	return &l, nil
}

func (r *MembershipRepository) ListLeagues(ctx context.Context, filter domain.LeagueFilter) ([]domain.League, error) {
	query := `
		SELECT league_id, name, scoring_type, last_changed_date, created_at, updated_at
		FROM leagues WHERE 1=1`
	args := []any{}

	if filter.LeagueName != "" {
		query += " AND name = ?"
		args = append(args, filter.LeagueName)
	}
	if !filter.MinLastChangedDate.IsZero() {
		query += " AND last_changed_date >= ?"
		args = append(args, filter.MinLastChangedDate)
	}

	query += " ORDER BY league_id LIMIT ? OFFSET ?"
	args = append(args, pageLimit(filter.Limit), filter.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list leagues")
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []domain.League
	for rows.Next() {
		var l domain.League
		if err := rows.Scan(&l.LeagueID, &l.Name, &l.ScoringType, &l.LastChangedDate, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range leagues {
		teams, err := r.TeamsInLeague(ctx, leagues[i].LeagueID)
		if err != nil {
			return nil, err
		}
		leagues[i].Teams = teams
	}
	return leagues, nil
}

func (r *MembershipRepository) CountLeagues(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leagues").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leagues: %w", err)
	}
	return count, nil
}

func (r *MembershipRepository) CreateTeam(ctx context.Context, team *domain.Team) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (team_id, league_id, name, last_changed_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		team.TeamID, team.LeagueID, team.Name, now, now, now)
	if err != nil {
		r.logger.Error().Err(err).Str("team_id", team.TeamID).Str("league_id", team.LeagueID).Msg("failed to create team")
		return fmt.Errorf("failed to create team %s: %w", team.TeamID, err)
	}
	return nil
}

func (r *MembershipRepository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT team_id, league_id, name, last_changed_date, created_at, updated_at
		FROM teams WHERE team_id = ?`, teamID)

	var t domain.Team
	err := row.Scan(&t.TeamID, &t.LeagueID, &t.Name, &t.LastChangedDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("team", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}

	roster, err := r.GetRoster(ctx, teamID)
	if err != nil {
		return nil, err
	}
	t.Roster = roster
	return &t, nil
}

func (r *MembershipRepository) ListTeams(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, error) {
	query := `
		SELECT team_id, league_id, name, last_changed_date, created_at, updated_at
		FROM teams WHERE 1=1`
	args := []any{}

	if filter.TeamName != "" {
		query += " AND name = ?"
		args = append(args, filter.TeamName)
	}
	if filter.LeagueID != "" {
		query += " AND league_id = ?"
		args = append(args, filter.LeagueID)
	}
	if !filter.MinLastChangedDate.IsZero() {
		query += " AND last_changed_date >= ?"
		args = append(args, filter.MinLastChangedDate)
	}

	query += " ORDER BY team_id LIMIT ? OFFSET ?"
	args = append(args, pageLimit(filter.Limit), filter.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list teams")
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams, err := collectTeams(rows)
	if err != nil {
		return nil, err
	}

	for i := range teams {
		roster, err := r.GetRoster(ctx, teams[i].TeamID)
		if err != nil {
			return nil, err
		}
		teams[i].Roster = roster
	}
	return teams, nil
}

func (r *MembershipRepository) CountTeams(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

// GetRoster returns the team's slots in slot order with player reference
// data joined in.
func (r *MembershipRepository) GetRoster(ctx context.Context, teamID string) ([]domain.RosterSlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rs.slot, p.player_id, p.first_name, p.last_name, p.position, p.nfl_team,
			p.last_changed_date, p.created_at, p.updated_at
		FROM roster_slots rs
		JOIN players p ON p.player_id = rs.player_id
		WHERE rs.team_id = ?
		ORDER BY rs.slot`, teamID)
	if err != nil {
		r.logger.Error().Err(err).Str("team_id", teamID).Msg("failed to get roster")
		return nil, fmt.Errorf("failed to get roster for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var roster []domain.RosterSlot
	for rows.Next() {
		var slot domain.RosterSlot
		p := &slot.Player
		if err := rows.Scan(&slot.Slot, &p.PlayerID, &p.FirstName, &p.LastName, &p.Position, &p.NFLTeam,
			&p.LastChangedDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roster slot: %w", err)
		}
		roster = append(roster, slot)
	}
	return roster, rows.Err()
}

func (r *MembershipRepository) TeamsInLeague(ctx context.Context, leagueID string) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT team_id, league_id, name, last_changed_date, created_at, updated_at
		FROM teams WHERE league_id = ? ORDER BY team_id`, leagueID)
	if err != nil {
		r.logger.Error().Err(err).Str("league_id", leagueID).Msg("failed to get teams in league")
		return nil, fmt.Errorf("failed to get teams in league %s: %w", leagueID, err)
	}
	defer rows.Close()

	return collectTeams(rows)
}

// FindTeamForPlayer locates the one team rostering the player inside a
// league, or reports not found.
func (r *MembershipRepository) FindTeamForPlayer(ctx context.Context, leagueID, playerID string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.team_id, t.league_id, t.name, t.last_changed_date, t.created_at, t.updated_at
		FROM roster_slots rs
		JOIN teams t ON t.team_id = rs.team_id
		WHERE rs.league_id = ? AND rs.player_id = ?`, leagueID, playerID)

	var t domain.Team
	err := row.Scan(&t.TeamID, &t.LeagueID, &t.Name, &t.LastChangedDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("team rostering player", playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find team for player %s in league %s: %w", playerID, leagueID, err)
	}
	return &t, nil
}

// LeaguesForPlayer lists every league in which the player is rostered,
// ordered by league id.
func (r *MembershipRepository) LeaguesForPlayer(ctx context.Context, playerID string) ([]domain.League, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.league_id, l.name, l.scoring_type, l.last_changed_date, l.created_at, l.updated_at
		FROM roster_slots rs
		JOIN leagues l ON l.league_id = rs.league_id
		WHERE rs.player_id = ?
		ORDER BY l.league_id`, playerID)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", playerID).Msg("failed to get leagues for player")
		return nil, fmt.Errorf("failed to get leagues for player %s: %w", playerID, err)
	}
	defer rows.Close()

	var leagues []domain.League
	for rows.Next() {
		var l domain.League
		if err := rows.Scan(&l.LeagueID, &l.Name, &l.ScoringType, &l.LastChangedDate, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

// AssignPlayer fills a roster slot inside one transaction. Violating the
// one-team-per-league invariant surfaces as an error, never a partial write.
func (r *MembershipRepository) AssignPlayer(ctx context.Context, teamID, slot, playerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var leagueID string
	err = tx.QueryRowContext(ctx, "SELECT league_id FROM teams WHERE team_id = ?", teamID).Scan(&leagueID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("team", teamID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up team %s: %w", teamID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO roster_slots (team_id, league_id, slot, player_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		teamID, leagueID, slot, playerID, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("player %s is already rostered in league %s: %w", playerID, leagueID, err)
		}
		return fmt.Errorf("failed to assign player %s to team %s slot %s: %w", playerID, teamID, slot, err)
	}

	if err := touchTeam(ctx, tx, teamID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roster assignment: %w", err)
	}

	r.logger.Info().Str("team_id", teamID).Str("slot", slot).Str("player_id", playerID).Msg("player assigned to roster")
	return nil
}

func (r *MembershipRepository) DropPlayer(ctx context.Context, teamID, slot string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM roster_slots WHERE team_id = ? AND slot = ?", teamID, slot)
	if err != nil {
		return fmt.Errorf("failed to drop slot %s on team %s: %w", slot, teamID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("roster slot", fmt.Sprintf("%s/%s", teamID, slot))
	}

	if err := touchTeam(ctx, tx, teamID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roster drop: %w", err)
	}

	r.logger.Info().Str("team_id", teamID).Str("slot", slot).Msg("player dropped from roster")
	return nil
}

// MovePlayer trades a player between two teams of the same league as one
// atomic drop-and-assign.
func (r *MembershipRepository) MovePlayer(ctx context.Context, fromTeamID, toTeamID, toSlot, playerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var leagueID string
	err = tx.QueryRowContext(ctx, "SELECT league_id FROM teams WHERE team_id = ?", toTeamID).Scan(&leagueID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("team", toTeamID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up team %s: %w", toTeamID, err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM roster_slots WHERE team_id = ? AND player_id = ?`, fromTeamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player %s from team %s: %w", playerID, fromTeamID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("roster slot for player", playerID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO roster_slots (team_id, league_id, slot, player_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		toTeamID, leagueID, toSlot, playerID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign player %s to team %s: %w", playerID, toTeamID, err)
	}

	if err := touchTeam(ctx, tx, fromTeamID); err != nil {
		return err
	}
	if err := touchTeam(ctx, tx, toTeamID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade: %w", err)
	}

	r.logger.Info().Str("from_team", fromTeamID).Str("to_team", toTeamID).
		Str("player_id", playerID).Msg("player traded")
	return nil
}

func touchTeam(ctx context.Context, tx *sql.Tx, teamID string) error {
	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		"UPDATE teams SET last_changed_date = ?, updated_at = ? WHERE team_id = ?", now, now, teamID); err != nil {
		return fmt.Errorf("failed to touch team %s: %w", teamID, err)
	}
	return nil
}

func collectTeams(rows *sql.Rows) ([]domain.Team, error) {
	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.TeamID, &t.LeagueID, &t.Name, &t.LastChangedDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
