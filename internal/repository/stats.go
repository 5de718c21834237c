package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fantasy-tracker/internal/constants"
	"fantasy-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// StatRepository is the append-only stat store. Published stat lines are
// immutable; a correction inserts a new version for the same
// (player, season, week) and "latest" resolves by ingested_at, then
// version_id for a stable tie-break.
type StatRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStatRepository(sqlDB *sql.DB, logger zerolog.Logger) *StatRepository {
	return &StatRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const statLineColumns = "version_id, player_id, season, week, stats, ingested_at, last_changed_date"

func scanStatLine(scanner interface{ Scan(...any) error }) (*domain.StatLine, error) {
	var line domain.StatLine
	var rawStats string
	if err := scanner.Scan(&line.VersionID, &line.PlayerID, &line.Season, &line.Week,
		&rawStats, &line.IngestedAt, &line.LastChangedDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawStats), &line.Stats); err != nil {
		return nil, &domain.MalformedRecordError{
			PlayerID: line.PlayerID,
			Season:   line.Season,
			Week:     line.Week,
			Reason:   fmt.Sprintf("stats payload is not a numeric category map: %v", err),
		}
	}
	return &line, nil
}

// LatestRecord returns the most recently ingested version for the week.
func (r *StatRepository) LatestRecord(ctx context.Context, playerID string, season, week int) (*domain.StatLine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+statLineColumns+` FROM stat_lines
		WHERE player_id = ? AND season = ? AND week = ?
		ORDER BY ingested_at DESC, version_id DESC LIMIT 1`, playerID, season, week)

	line, err := scanStatLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("stat line", fmt.Sprintf("%s/%d/%d", playerID, season, week))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stat line for player %s: %w", playerID, err)
	}
	return line, nil
}

// RecordVersion pins an exact published version for reproducible scoring.
func (r *StatRepository) RecordVersion(ctx context.Context, versionID string) (*domain.StatLine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+statLineColumns+` FROM stat_lines WHERE version_id = ?`, versionID)

	line, err := scanStatLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("stat line version", versionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stat line version %s: %w", versionID, err)
	}
	return line, nil
}

// ListRecords returns the latest version of every stat line for a player,
// ordered by season then week.
func (r *StatRepository) ListRecords(ctx context.Context, playerID string) ([]domain.StatLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+statLineColumns+` FROM stat_lines s
		WHERE player_id = ? AND NOT EXISTS (
			SELECT 1 FROM stat_lines newer
			WHERE newer.player_id = s.player_id AND newer.season = s.season AND newer.week = s.week
			AND (newer.ingested_at > s.ingested_at
				OR (newer.ingested_at = s.ingested_at AND newer.version_id > s.version_id))
		)
		ORDER BY season, week`, playerID)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", playerID).Msg("failed to list stat lines")
		return nil, fmt.Errorf("failed to list stat lines for player %s: %w", playerID, err)
	}
	defer rows.Close()

	return collectStatLines(rows)
}

// ListPerformances pages across all players' latest stat lines, optionally
// filtered by last-changed date.
func (r *StatRepository) ListPerformances(ctx context.Context, filter domain.PerformanceFilter) ([]domain.StatLine, error) {
	query := `
		SELECT ` + statLineColumns + ` FROM stat_lines s
		WHERE NOT EXISTS (
			SELECT 1 FROM stat_lines newer
			WHERE newer.player_id = s.player_id AND newer.season = s.season AND newer.week = s.week
			AND (newer.ingested_at > s.ingested_at
				OR (newer.ingested_at = s.ingested_at AND newer.version_id > s.version_id))
		)`
	args := []any{}

	if !filter.MinLastChangedDate.IsZero() {
		query += " AND last_changed_date >= ?"
		args = append(args, filter.MinLastChangedDate)
	}

	query += " ORDER BY player_id, season, week LIMIT ? OFFSET ?"
	args = append(args, pageLimit(filter.Limit), filter.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list performances")
		return nil, fmt.Errorf("failed to list performances: %w", err)
	}
	defer rows.Close()

	return collectStatLines(rows)
}

// Publish appends a new stat line version. The version id is generated when
// the caller does not supply one.
func (r *StatRepository) Publish(ctx context.Context, line *domain.StatLine) (string, error) {
	versionID := line.VersionID
	if versionID == "" {
		var err error
		versionID, err = gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	raw, err := json.Marshal(line.Stats)
	if err != nil {
		return "", fmt.Errorf("failed to encode stats for player %s: %w", line.PlayerID, err)
	}

	ingestedAt := line.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now()
	}
	lastChanged := line.LastChangedDate
	if lastChanged.IsZero() {
		lastChanged = ingestedAt
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stat_lines (version_id, player_id, season, week, stats, ingested_at, last_changed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		versionID, line.PlayerID, line.Season, line.Week, string(raw), ingestedAt, lastChanged)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", line.PlayerID).
			Int("season", line.Season).Int("week", line.Week).Msg("failed to publish stat line")
		return "", fmt.Errorf("failed to publish stat line for player %s: %w", line.PlayerID, err)
	}

	r.logger.Debug().Str("player_id", line.PlayerID).Str("version_id", versionID).
		Int("season", line.Season).Int("week", line.Week).Msg("stat line published")
	return versionID, nil
}

func (r *StatRepository) PublishBatch(ctx context.Context, lines []domain.StatLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i := 0; i < len(lines); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(lines) {
			end = len(lines)
		}

		for _, line := range lines[i:end] {
			versionID := line.VersionID
			if versionID == "" {
				versionID, err = gonanoid.New()
				if err != nil {
					return fmt.Errorf("failed to generate nanoid: %w", err)
				}
			}

			raw, err := json.Marshal(line.Stats)
			if err != nil {
				return fmt.Errorf("failed to encode stats for player %s: %w", line.PlayerID, err)
			}

			ingestedAt := line.IngestedAt
			if ingestedAt.IsZero() {
				ingestedAt = now
			}
			lastChanged := line.LastChangedDate
			if lastChanged.IsZero() {
				lastChanged = ingestedAt
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO stat_lines (version_id, player_id, season, week, stats, ingested_at, last_changed_date)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				versionID, line.PlayerID, line.Season, line.Week, string(raw), ingestedAt, lastChanged)
			if err != nil {
				return fmt.Errorf("failed to publish stat line for player %s: %w", line.PlayerID, err)
			}
		}
	}

	return tx.Commit()
}

func collectStatLines(rows *sql.Rows) ([]domain.StatLine, error) {
	var lines []domain.StatLine
	for rows.Next() {
		line, err := scanStatLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}
