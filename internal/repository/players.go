package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fantasy-tracker/internal/constants"
	"fantasy-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// PlayerRepository serves NFL player reference data. Players are created and
// updated by the ingestion feed, never by query paths.
type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, playerID string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT player_id, first_name, last_name, position, nfl_team, last_changed_date, created_at, updated_at
		FROM players WHERE player_id = ?`, playerID)

	var p domain.Player
	err := row.Scan(&p.PlayerID, &p.FirstName, &p.LastName, &p.Position, &p.NFLTeam,
		&p.LastChangedDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("player", playerID)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", playerID).Msg("failed to get player")
		return nil, fmt.Errorf("failed to get player %s: %w", playerID, err)
	}
	return &p, nil
}

func (r *PlayerRepository) List(ctx context.Context, filter domain.PlayerFilter) ([]domain.Player, error) {
	query := `
		SELECT player_id, first_name, last_name, position, nfl_team, last_changed_date, created_at, updated_at
		FROM players WHERE 1=1`
	args := []any{}

	if filter.FirstName != "" {
		query += " AND first_name = ?"
		args = append(args, filter.FirstName)
	}
	if filter.LastName != "" {
		query += " AND last_name = ?"
		args = append(args, filter.LastName)
	}
	if !filter.MinLastChangedDate.IsZero() {
		query += " AND last_changed_date >= ?"
		args = append(args, filter.MinLastChangedDate)
	}

	query += " ORDER BY player_id LIMIT ? OFFSET ?"
	args = append(args, pageLimit(filter.Limit), filter.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list players")
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.PlayerID, &p.FirstName, &p.LastName, &p.Position, &p.NFLTeam,
			&p.LastChangedDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *PlayerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (player_id, first_name, last_name, position, nfl_team, last_changed_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			position = excluded.position,
			nfl_team = excluded.nfl_team,
			last_changed_date = excluded.last_changed_date,
			updated_at = excluded.updated_at`,
		player.PlayerID, player.FirstName, player.LastName, player.Position, player.NFLTeam,
		player.LastChangedDate, now, now)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", player.PlayerID).Msg("failed to upsert player")
		return fmt.Errorf("failed to upsert player %s: %w", player.PlayerID, err)
	}
	return nil
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []domain.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(players) {
			end = len(players)
		}

		for _, player := range players[i:end] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO players (player_id, first_name, last_name, position, nfl_team, last_changed_date, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (player_id) DO UPDATE SET
					first_name = excluded.first_name,
					last_name = excluded.last_name,
					position = excluded.position,
					nfl_team = excluded.nfl_team,
					last_changed_date = excluded.last_changed_date,
					updated_at = excluded.updated_at`,
				player.PlayerID, player.FirstName, player.LastName, player.Position, player.NFLTeam,
				player.LastChangedDate, now, now)
			if err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", player.PlayerID, err)
			}
		}
	}

	return tx.Commit()
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultPageLimit
	}
	if limit > constants.MaxPageLimit {
		return constants.MaxPageLimit
	}
	return limit
}
