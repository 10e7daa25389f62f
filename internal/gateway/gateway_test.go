package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguelink/internal/api"
	"leaguelink/internal/league"
	"leaguelink/internal/platform"
	"leaguelink/internal/store"
	"leaguelink/internal/trust"
	"leaguelink/internal/vault"
)

// stubAdapter returns canned results so the pipeline can be exercised
// without upstream HTTP.
type stubAdapter struct {
	name    string
	lastReq platform.Request
	info    *platform.LeagueInfo
	err     error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) LeagueInfo(ctx context.Context, req platform.Request) (*platform.LeagueInfo, error) {
	s.lastReq = req
	return s.info, s.err
}

func (s *stubAdapter) Standings(ctx context.Context, req platform.Request) (*platform.Standings, error) {
	s.lastReq = req
	return &platform.Standings{LeagueID: req.LeagueID}, s.err
}

func (s *stubAdapter) Matchups(ctx context.Context, req platform.Request) (*platform.Matchups, error) {
	s.lastReq = req
	return &platform.Matchups{LeagueID: req.LeagueID, Week: req.Week}, s.err
}

func (s *stubAdapter) Roster(ctx context.Context, req platform.Request) (*platform.Roster, error) {
	s.lastReq = req
	return &platform.Roster{LeagueID: req.LeagueID, TeamID: req.TeamID}, s.err
}

func (s *stubAdapter) FreeAgents(ctx context.Context, req platform.Request) ([]platform.FreeAgent, error) {
	s.lastReq = req
	return nil, s.err
}

func (s *stubAdapter) Transactions(ctx context.Context, req platform.Request) ([]platform.Transaction, error) {
	s.lastReq = req
	return nil, s.err
}

func testGateway(t *testing.T) (*Gateway, *stubAdapter, *trust.Trust) {
	t.Helper()

	st := store.NewMemoryStore()
	t.Cleanup(st.Stop)

	ring, err := trust.NewKeyring(context.Background(), st)
	require.NoError(t, err)
	tr := trust.New(ring, "leaguelink", "leaguelink-clients", trust.NopNotifier{})

	v, err := vault.New(st, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	adapters := platform.NewRegistry()
	stub := &stubAdapter{
		name: "espn",
		info: &platform.LeagueInfo{Platform: "espn", LeagueID: "111", Name: "Office League"},
	}
	adapters.Register(stub)

	leagues := league.NewRegistry(st)

	g := New(Config{Host: "127.0.0.1", Port: 0}, tr, adapters, leagues, v, nil, nil)
	return g, stub, tr
}

func authedContext(t *testing.T, tr *trust.Trust, userID string) context.Context {
	t.Helper()

	token, err := tr.Mint(userID, trust.PlanFree, "", trust.ScopeFantasyRead, time.Minute)
	require.NoError(t, err)
	claims, err := tr.Validate(token)
	require.NoError(t, err)

	return context.WithValue(context.Background(), claimsContextKey{}, authResult{claims: claims})
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func decodeError(t *testing.T, result *mcp.CallToolResult) toolErrorBody {
	t.Helper()

	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var body toolErrorBody
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	return body
}

func TestToolRequiresToken(t *testing.T) {
	g, _, _ := testGateway(t)

	handler := g.handleTool(platform.ToolLeagueInfo)
	result, err := handler(context.Background(), callRequest(nil))
	require.NoError(t, err)

	body := decodeError(t, result)
	assert.Equal(t, api.CodeAuthFailed, body.Code)
}

func TestToolRequiresScope(t *testing.T) {
	g, _, tr := testGateway(t)

	token, err := tr.Mint("user-1", trust.PlanFree, "", "other.scope", time.Minute)
	require.NoError(t, err)
	claims, err := tr.Validate(token)
	require.NoError(t, err)
	ctx := context.WithValue(context.Background(), claimsContextKey{}, authResult{claims: claims})

	handler := g.handleTool(platform.ToolLeagueInfo)
	result, err := handler(ctx, callRequest(map[string]interface{}{
		"platform": "espn", "sport": "basketball", "league_id": "111",
	}))
	require.NoError(t, err)

	body := decodeError(t, result)
	assert.Equal(t, api.CodeInsufficientScope, body.Code)
}

func TestToolExplicitLeague(t *testing.T) {
	g, stub, tr := testGateway(t)
	ctx := authedContext(t, tr, "user-1")

	handler := g.handleTool(platform.ToolLeagueInfo)
	result, err := handler(ctx, callRequest(map[string]interface{}{
		"platform": "espn", "sport": "basketball", "league_id": "111", "season_year": float64(2025),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "user-1", stub.lastReq.UserID)
	assert.Equal(t, "111", stub.lastReq.LeagueID)
	assert.Equal(t, 2025, stub.lastReq.SeasonYear)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "Office League")
}

func TestToolResolvesDefaultLeague(t *testing.T) {
	g, stub, tr := testGateway(t)
	ctx := authedContext(t, tr, "user-1")

	_, err := g.leagues.Add(context.Background(), "user-1", league.League{
		Platform: "espn", Sport: "basketball", LeagueID: "999",
		SeasonYear: 2025, TeamID: "4", Default: true,
	})
	require.NoError(t, err)

	handler := g.handleTool(platform.ToolRoster)
	result, err := handler(ctx, callRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "999", stub.lastReq.LeagueID)
	assert.Equal(t, "basketball", stub.lastReq.Sport)
	assert.Equal(t, "4", stub.lastReq.TeamID)
	assert.Equal(t, 2025, stub.lastReq.SeasonYear)
}

func TestToolNoDefaultLeague(t *testing.T) {
	g, _, tr := testGateway(t)
	ctx := authedContext(t, tr, "user-1")

	handler := g.handleTool(platform.ToolStandings)
	result, err := handler(ctx, callRequest(nil))
	require.NoError(t, err)

	body := decodeError(t, result)
	assert.Equal(t, api.CodeNotFound, body.Code)
}

func TestToolUnknownPlatform(t *testing.T) {
	g, _, tr := testGateway(t)
	ctx := authedContext(t, tr, "user-1")

	handler := g.handleTool(platform.ToolStandings)
	result, err := handler(ctx, callRequest(map[string]interface{}{
		"platform": "czar-ball", "sport": "football", "league_id": "1",
	}))
	require.NoError(t, err)

	body := decodeError(t, result)
	assert.Equal(t, api.CodePlatformNotSupported, body.Code)
}

func TestToolAdapterErrorTranslated(t *testing.T) {
	g, stub, tr := testGateway(t)
	ctx := authedContext(t, tr, "user-1")
	stub.err = api.NewUpstreamError("espn", api.UpstreamRateLimited, 429)

	handler := g.handleTool(platform.ToolMatchups)
	result, err := handler(ctx, callRequest(map[string]interface{}{
		"platform": "espn", "sport": "basketball", "league_id": "111",
	}))
	require.NoError(t, err)

	body := decodeError(t, result)
	assert.Equal(t, api.CodeUpstreamError, body.Code)
	assert.NotContains(t, body.Message, "{")
}
