package sleeper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguelink/internal/api"
	"leaguelink/internal/platform"
	"leaguelink/internal/store"
	"leaguelink/internal/vault"
)

func testVault(t *testing.T) *vault.Vault {
	t.Helper()

	st := store.NewMemoryStore()
	t.Cleanup(st.Stop)

	v, err := vault.New(st, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return v
}

func linkUsername(t *testing.T, v *vault.Vault, userID, username string) {
	t.Helper()
	err := v.Store(context.Background(), userID, Name, &vault.Credential{
		Kind:        vault.KindUsernameRef,
		UsernameRef: &vault.UsernameRef{Username: username},
	})
	require.NoError(t, err)
}

// routes maps request paths to JSON bodies.
func routedServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const rostersFixture = `[
	{"roster_id": 1, "owner_id": "u-1", "players": ["100", "200"], "starters": ["100"],
	 "settings": {"wins": 10, "losses": 2, "ties": 0, "fpts": 1400, "fpts_decimal": 25, "fpts_against": 1200, "fpts_against_decimal": 10}},
	{"roster_id": 2, "owner_id": "u-2", "players": ["300"], "starters": ["300"],
	 "settings": {"wins": 8, "losses": 4, "ties": 0, "fpts": 1350, "fpts_decimal": 0, "fpts_against": 1300, "fpts_against_decimal": 0}}
]`

const usersFixture = `[
	{"user_id": "u-1", "display_name": "alice", "metadata": {"team_name": "Alpha Squad"}},
	{"user_id": "u-2", "display_name": "bob", "metadata": {}}
]`

func TestStandingsCombinesSplitPoints(t *testing.T) {
	v := testVault(t)
	linkUsername(t, v, "user-1", "alice")
	srv := routedServer(t, map[string]string{
		"/league/L1/rosters": rostersFixture,
		"/league/L1/users":   usersFixture,
	})
	a := New(v, srv.URL)

	standings, err := a.Standings(context.Background(), platform.Request{
		UserID: "user-1", Sport: "football", LeagueID: "L1", SeasonYear: 2025,
	})
	require.NoError(t, err)
	require.Len(t, standings.Teams, 2)

	assert.Equal(t, "Alpha Squad", standings.Teams[0].TeamName)
	assert.Equal(t, 1400.25, standings.Teams[0].PointsFor)
	assert.InDelta(t, 1200.10, standings.Teams[0].PointsAgainst, 1e-9)
	assert.Equal(t, "bob", standings.Teams[1].TeamName)
	assert.Equal(t, 2, standings.Teams[1].Rank)
}

func TestMatchupsResolvesCurrentWeek(t *testing.T) {
	v := testVault(t)
	linkUsername(t, v, "user-1", "alice")
	srv := routedServer(t, map[string]string{
		"/state/nfl": `{"week": 7}`,
		"/league/L1/matchups/7": `[
			{"roster_id": 1, "matchup_id": 90, "points": 101.5},
			{"roster_id": 2, "matchup_id": 90, "points": 99.2}
		]`,
		"/league/L1/rosters": rostersFixture,
		"/league/L1/users":   usersFixture,
	})
	a := New(v, srv.URL)

	matchups, err := a.Matchups(context.Background(), platform.Request{
		UserID: "user-1", Sport: "football", LeagueID: "L1",
	})
	require.NoError(t, err)

	assert.Equal(t, 7, matchups.Week)
	require.Len(t, matchups.Matchups, 1)
	m := matchups.Matchups[0]
	assert.Equal(t, "90", m.MatchupID)
	assert.Equal(t, "1", m.Home.TeamID)
	assert.Equal(t, "2", m.Away.TeamID)
	assert.Equal(t, platform.WinnerHome, m.Winner)
}

func TestRosterStarterSlots(t *testing.T) {
	v := testVault(t)
	linkUsername(t, v, "user-1", "alice")
	srv := routedServer(t, map[string]string{
		"/league/L1/rosters": rostersFixture,
		"/league/L1/users":   usersFixture,
	})
	a := New(v, srv.URL)

	roster, err := a.Roster(context.Background(), platform.Request{
		UserID: "user-1", Sport: "football", LeagueID: "L1", TeamID: "1",
	})
	require.NoError(t, err)

	require.Len(t, roster.Players, 2)
	assert.Equal(t, "STARTER", roster.Players[0].Slot)
	assert.Equal(t, "BN", roster.Players[1].Slot)
	assert.Equal(t, "Alpha Squad", roster.TeamName)
}

func TestFreeAgentsNotSupported(t *testing.T) {
	v := testVault(t)
	linkUsername(t, v, "user-1", "alice")
	a := New(v, "http://unused.invalid")

	_, err := a.FreeAgents(context.Background(), platform.Request{
		UserID: "user-1", Sport: "football", LeagueID: "L1",
	})
	assert.True(t, api.IsNotSupported(err))
}

func TestTransactionsBidPrecedence(t *testing.T) {
	v := testVault(t)
	linkUsername(t, v, "user-1", "alice")
	srv := routedServer(t, map[string]string{
		"/league/L1/transactions/3": `[
			{"transaction_id": "t-1", "type": "waiver", "status": "complete", "status_updated": 1730766600000,
			 "roster_ids": [1], "adds": {"100": 1}, "drops": {"200": 1},
			 "settings": {"faab_bid": 7, "waiver_bid": 99}},
			{"transaction_id": "t-2", "type": "waiver", "status": "failed", "status_updated": 1730766600000,
			 "roster_ids": [2], "adds": {"300": 2},
			 "settings": {"waiver_bid": 5}},
			{"transaction_id": "t-3", "type": "commissioner", "status": "complete", "status_updated": 1730766600000}
		]`,
	})
	a := New(v, srv.URL)

	txs, err := a.Transactions(context.Background(), platform.Request{
		UserID: "user-1", Sport: "football", LeagueID: "L1", Week: 3,
	})
	require.NoError(t, err)

	// The commissioner entry has no recognizable type and is dropped.
	require.Len(t, txs, 2)

	require.NotNil(t, txs[0].FAABBid)
	assert.Equal(t, 7, *txs[0].FAABBid)
	assert.Equal(t, []string{"100"}, txs[0].PlayersAdded)
	assert.Equal(t, []string{"200"}, txs[0].PlayersDropped)
	assert.Equal(t, "2024-11-05", txs[0].Date)

	require.NotNil(t, txs[1].FAABBid)
	assert.Equal(t, 5, *txs[1].FAABBid)
	assert.Equal(t, platform.TransactionFailed, txs[1].Status)
}

func TestDiscoverLeagues(t *testing.T) {
	v := testVault(t)
	linkUsername(t, v, "user-1", "alice")
	srv := routedServer(t, map[string]string{
		"/user/alice": `{"user_id": "u-1", "display_name": "alice"}`,
		"/user/u-1/leagues/nfl/2025": `[
			{"league_id": "L1", "name": "Dynasty", "sport": "nfl", "season": "2025", "total_rosters": 12},
			{"league_id": "L2", "name": "Redraft", "sport": "nfl", "season": "2025", "total_rosters": 10}
		]`,
	})
	a := New(v, srv.URL)

	leagues, err := a.DiscoverLeagues(context.Background(), "user-1", "football", 2025)
	require.NoError(t, err)

	require.Len(t, leagues, 2)
	assert.Equal(t, "L1", leagues[0].LeagueID)
	assert.Equal(t, "Dynasty", leagues[0].Name)
	assert.Equal(t, 12, leagues[0].NumTeams)
	assert.Equal(t, "football", leagues[0].Sport)
}

func TestMissingUsernameCredential(t *testing.T) {
	v := testVault(t)
	a := New(v, "http://unused.invalid")

	_, err := a.Standings(context.Background(), platform.Request{
		UserID: "nobody", Sport: "football", LeagueID: "L1",
	})
	assert.True(t, api.IsCredentialsMissing(err))
}
