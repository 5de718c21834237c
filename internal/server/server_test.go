package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/metrics"
	"fantasy-tracker/internal/quota"
	"fantasy-tracker/internal/repository"
	"fantasy-tracker/internal/scoring"
	"fantasy-tracker/internal/server"
	"fantasy-tracker/internal/service"
	"fantasy-tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, dailyLimit int64) http.Handler {
	t.Helper()
	db := testutil.NewDB(t)
	log := testutil.Logger()

	players := repository.NewPlayerRepository(db, log)
	stats := repository.NewStatRepository(db, log)
	membership := repository.NewMembershipRepository(db, log)
	rules := repository.NewRuleRepository(db, log)
	aggregation := service.NewAggregationService(players, stats, membership, rules, scoring.NewCache(), log)
	enforcer := quota.NewEnforcer(quota.NewMemoryStore(), dailyLimit, time.UTC, log)

	ctx := context.Background()
	require.NoError(t, players.Upsert(ctx, &domain.Player{
		PlayerID: "P1", FirstName: "Bryce", LastName: "Young", Position: "QB",
		NFLTeam: "CAR", LastChangedDate: time.Now(),
	}))
	require.NoError(t, membership.CreateLeague(ctx, &domain.League{LeagueID: "L1", Name: "Pigskin Prophets"}))
	require.NoError(t, membership.CreateTeam(ctx, &domain.Team{TeamID: "T1", LeagueID: "L1", Name: "Alpha"}))
	require.NoError(t, membership.AssignPlayer(ctx, "T1", "QB", "P1"))
	_, err := rules.Publish(ctx, "L1", map[string]float64{"passingTouchdown": 4, "reception": 1})
	require.NoError(t, err)
	_, err = stats.Publish(ctx, &domain.StatLine{
		PlayerID: "P1", Season: 2025, Week: 3,
		Stats: map[string]float64{"passingTouchdown": 2, "reception": 5},
	})
	require.NoError(t, err)

	return server.NewAPIServer(aggregation, enforcer, db, metrics.New(), log).Router()
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRootHealthCheck(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "API health check successful", body["message"])
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "ok", body["quota"])
}

func TestListPlayers(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/players/?first_name=Bryce&last_name=Young")
	require.Equal(t, http.StatusOK, rec.Code)

	var players []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	require.Len(t, players, 1)
	assert.Equal(t, "P1", players[0]["player_id"])
}

func TestGetPlayerNotFound(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/players/P999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "P999")
}

func TestPlayerScores(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/players/P1/scores/?season=2025&week=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Record struct {
			PlayerID string `json:"player_id"`
		} `json:"record"`
		Scores []struct {
			LeagueID string  `json:"league_id"`
			Points   float64 `json:"points"`
		} `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "P1", body.Record.PlayerID)
	require.Len(t, body.Scores, 1)
	assert.Equal(t, "L1", body.Scores[0].LeagueID)
	assert.Equal(t, 13.0, body.Scores[0].Points)
}

func TestPlayerScoresRequiresSeasonAndWeek(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/players/P1/scores/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamScore(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/teams/T1/score/?season=2025&week=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 13.0, body.Total)
}

func TestStandings(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/leagues/L1/standings/?season=2025&up_to_week=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var standings []struct {
		Rank  int     `json:"rank"`
		Total float64 `json:"total"`
		Team  struct {
			TeamID string `json:"team_id"`
		} `json:"team"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &standings))
	require.Len(t, standings, 1)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "T1", standings[0].Team.TeamID)
	assert.Equal(t, 13.0, standings[0].Total)
}

func TestCountsEndpoint(t *testing.T) {
	handler := newTestServer(t, 100)

	rec := get(t, handler, "/v0/counts/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["player_count"])
	assert.EqualValues(t, 1, body["team_count"])
	assert.EqualValues(t, 1, body["league_count"])
}

func TestQuotaRejectsOverLimit(t *testing.T) {
	handler := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := get(t, handler, "/v0/counts/")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := get(t, handler, "/v0/counts/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-Quota-Remaining"))

	// Health and metrics stay reachable when a key is throttled.
	assert.Equal(t, http.StatusOK, get(t, handler, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, handler, "/metrics").Code)
}

func TestQuotaPerKeyHeader(t *testing.T) {
	handler := newTestServer(t, 1)

	// Anonymous bucket exhausted.
	require.Equal(t, http.StatusOK, get(t, handler, "/v0/counts/").Code)
	require.Equal(t, http.StatusTooManyRequests, get(t, handler, "/v0/counts/").Code)

	// A keyed caller has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/v0/counts/", nil)
	req.Header.Set("X-API-Key", "caller-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
