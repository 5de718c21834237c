package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fantasy-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// RuleRepository stores per-league scoring rule sets as append-only versions,
// so a mid-season rule change never retroactively alters scores computed
// under a pinned version.
type RuleRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRuleRepository(sqlDB *sql.DB, logger zerolog.Logger) *RuleRepository {
	return &RuleRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Latest returns the league's current rule set.
func (r *RuleRepository) Latest(ctx context.Context, leagueID string) (*domain.ScoringRules, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT version_id, league_id, multipliers, published_at FROM scoring_rules
		WHERE league_id = ?
		ORDER BY published_at DESC, version_id DESC LIMIT 1`, leagueID)

	rules, err := scanRules(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("scoring rules for league", leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scoring rules for league %s: %w", leagueID, err)
	}
	return rules, nil
}

// Version pins an exact rule-set version for reproducible historical scores.
func (r *RuleRepository) Version(ctx context.Context, versionID string) (*domain.ScoringRules, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT version_id, league_id, multipliers, published_at FROM scoring_rules
		WHERE version_id = ?`, versionID)

	rules, err := scanRules(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("scoring rules version", versionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scoring rules version %s: %w", versionID, err)
	}
	return rules, nil
}

// Publish appends a new rule-set version and returns it.
func (r *RuleRepository) Publish(ctx context.Context, leagueID string, multipliers map[string]float64) (*domain.ScoringRules, error) {
	versionID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	raw, err := json.Marshal(multipliers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode multipliers for league %s: %w", leagueID, err)
	}

	publishedAt := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scoring_rules (version_id, league_id, multipliers, published_at)
		VALUES (?, ?, ?, ?)`,
		versionID, leagueID, string(raw), publishedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("league_id", leagueID).Msg("failed to publish scoring rules")
		return nil, fmt.Errorf("failed to publish scoring rules for league %s: %w", leagueID, err)
	}

	r.logger.Info().Str("league_id", leagueID).Str("version_id", versionID).
		Int("categories", len(multipliers)).Msg("scoring rules published")

	return &domain.ScoringRules{
		VersionID:   versionID,
		LeagueID:    leagueID,
		Multipliers: multipliers,
		PublishedAt: publishedAt,
	}, nil
}

func scanRules(row *sql.Row) (*domain.ScoringRules, error) {
	var rules domain.ScoringRules
	var raw string
	if err := row.Scan(&rules.VersionID, &rules.LeagueID, &raw, &rules.PublishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &rules.Multipliers); err != nil {
		return nil, fmt.Errorf("failed to decode multipliers: %w", err)
	}
	return &rules, nil
}
