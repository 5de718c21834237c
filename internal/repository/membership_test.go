package repository_test

import (
	"context"
	"testing"

	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/repository"
	"fantasy-tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type membershipFixture struct {
	players    *repository.PlayerRepository
	membership *repository.MembershipRepository
}

func newMembershipFixture(t *testing.T) membershipFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := membershipFixture{
		players:    repository.NewPlayerRepository(db, testutil.Logger()),
		membership: repository.NewMembershipRepository(db, testutil.Logger()),
	}

	ctx := context.Background()
	require.NoError(t, f.membership.CreateLeague(ctx, &domain.League{LeagueID: "L1", Name: "Pigskin Prophets"}))
	require.NoError(t, f.membership.CreateLeague(ctx, &domain.League{LeagueID: "L2", Name: "Turf Wars"}))
	require.NoError(t, f.membership.CreateTeam(ctx, &domain.Team{TeamID: "T1", LeagueID: "L1", Name: "Alpha"}))
	require.NoError(t, f.membership.CreateTeam(ctx, &domain.Team{TeamID: "T2", LeagueID: "L1", Name: "Bravo"}))
	require.NoError(t, f.membership.CreateTeam(ctx, &domain.Team{TeamID: "T3", LeagueID: "L2", Name: "Charlie"}))

	seedPlayer(t, f.players, "P1", "Bryce", "Young", "QB")
	seedPlayer(t, f.players, "P2", "Adam", "Thielen", "WR")
	return f
}

func TestRosterExclusivityWithinLeague(t *testing.T) {
	f := newMembershipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.membership.AssignPlayer(ctx, "T1", "QB", "P1"))

	// Same league, different team: rejected.
	err := f.membership.AssignPlayer(ctx, "T2", "QB", "P1")
	require.Error(t, err)

	// Different league: allowed.
	require.NoError(t, f.membership.AssignPlayer(ctx, "T3", "QB", "P1"))

	// The failed assignment left nothing behind.
	team, err := f.membership.FindTeamForPlayer(ctx, "L1", "P1")
	require.NoError(t, err)
	assert.Equal(t, "T1", team.TeamID)

	roster, err := f.membership.GetRoster(ctx, "T2")
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestRosterSlotUniquePerTeam(t *testing.T) {
	f := newMembershipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.membership.AssignPlayer(ctx, "T1", "WR1", "P1"))
	err := f.membership.AssignPlayer(ctx, "T1", "WR1", "P2")
	require.Error(t, err)
}

func TestFindTeamForPlayerNotFound(t *testing.T) {
	f := newMembershipFixture(t)

	_, err := f.membership.FindTeamForPlayer(context.Background(), "L1", "P2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLeaguesForPlayerOrdered(t *testing.T) {
	f := newMembershipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.membership.AssignPlayer(ctx, "T3", "QB", "P1"))
	require.NoError(t, f.membership.AssignPlayer(ctx, "T1", "QB", "P1"))

	leagues, err := f.membership.LeaguesForPlayer(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	assert.Equal(t, "L1", leagues[0].LeagueID)
	assert.Equal(t, "L2", leagues[1].LeagueID)
}

func TestMovePlayerIsAtomic(t *testing.T) {
	f := newMembershipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.membership.AssignPlayer(ctx, "T1", "WR1", "P2"))
	require.NoError(t, f.membership.MovePlayer(ctx, "T1", "T2", "WR2", "P2"))

	team, err := f.membership.FindTeamForPlayer(ctx, "L1", "P2")
	require.NoError(t, err)
	assert.Equal(t, "T2", team.TeamID)

	fromRoster, err := f.membership.GetRoster(ctx, "T1")
	require.NoError(t, err)
	assert.Empty(t, fromRoster)

	// Moving a player who is not on the source team changes nothing.
	err = f.membership.MovePlayer(ctx, "T1", "T2", "FLEX", "P1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetLeagueIncludesTeams(t *testing.T) {
	f := newMembershipFixture(t)

	league, err := f.membership.GetLeague(context.Background(), "L1")
	require.NoError(t, err)
	require.Len(t, league.Teams, 2)
	assert.Equal(t, "T1", league.Teams[0].TeamID)
	assert.Equal(t, "T2", league.Teams[1].TeamID)

	_, err = f.membership.GetLeague(context.Background(), "L9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTeamsFilters(t *testing.T) {
	f := newMembershipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.membership.AssignPlayer(ctx, "T1", "QB", "P1"))

	byLeague, err := f.membership.ListTeams(ctx, domain.TeamFilter{LeagueID: "L1"})
	require.NoError(t, err)
	require.Len(t, byLeague, 2)
	require.Len(t, byLeague[0].Roster, 1)
	assert.Equal(t, "P1", byLeague[0].Roster[0].Player.PlayerID)

	byName, err := f.membership.ListTeams(ctx, domain.TeamFilter{TeamName: "Charlie"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "T3", byName[0].TeamID)

	paged, err := f.membership.ListTeams(ctx, domain.TeamFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "T2", paged[0].TeamID)
}

func TestCounts(t *testing.T) {
	f := newMembershipFixture(t)
	ctx := context.Background()

	leagueCount, err := f.membership.CountLeagues(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, leagueCount)

	teamCount, err := f.membership.CountTeams(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, teamCount)

	playerCount, err := f.players.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, playerCount)
}
